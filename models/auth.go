package models

import (
	"time"
	"unicode"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JsonModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (m *JsonModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type RegisterIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password_strength"`
	UserName string `json:"userName" validate:"omitempty,min=2,max=100"`
}

type LoginIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshIn struct {
	RefreshToken string `json:"refreshToken"`
}

type UserProfileOut struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	UserName string `json:"userName"`
}

type LoginOut struct {
	Token        string         `json:"token"`
	RefreshToken string         `json:"refreshToken"`
	User         UserProfileOut `json:"user"`
}

type TokenPairOut struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type SuccessOut struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ValidatePasswordStrength requires an upper case letter, a lower case letter
// and a digit.
func ValidatePasswordStrength(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
