package models

import (
	"regexp"
	"time"

	"github.com/go-playground/validator"
)

const CalendarDateLayout = "2006-01-02"

var calendarDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type OutfitLog struct {
	JsonModel
	OwnerID        string      `gorm:"index;not null" json:"userId"`
	Owner          UserAccount `json:"-"`
	Date           string      `gorm:"index;type:varchar(10)" json:"date"`
	CollectionID   string      `gorm:"index" json:"collectionId"`
	CollectionName string      `json:"collectionName"`
	ThumbnailKey   string      `json:"-"`
	ThumbnailURL   string      `json:"thumbnailUrl"`
}

type CreateOutfitLogIn struct {
	Date         string `json:"date" validate:"required,calendar_date"`
	CollectionID string `json:"collectionId" validate:"required"`
}

// ValidateCalendarDate accepts YYYY-MM-DD strings that are real dates.
func ValidateCalendarDate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if !calendarDateRegex.MatchString(value) {
		return false
	}
	_, err := time.Parse(CalendarDateLayout, value)
	return err == nil
}
