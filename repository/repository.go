package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Repositories bundles the gorm-backed stores so they can be injected as one.
type Repositories struct {
	Wardrobe    *WardrobeRepository
	Collections *CollectionRepository
	OutfitLogs  *OutfitLogRepository
	Users       *UserRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Wardrobe:    &WardrobeRepository{DB: db},
		Collections: &CollectionRepository{DB: db},
		OutfitLogs:  &OutfitLogRepository{DB: db},
		Users:       &UserRepository{DB: db},
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
