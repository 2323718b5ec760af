package repository

import (
	"context"

	"virtualwardrobe/models"

	"gorm.io/gorm"
)

type CollectionRepository struct {
	DB *gorm.DB
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

func (r *CollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	for i := range collection.Items {
		collection.Items[i].Position = i
	}
	return r.DB.WithContext(ctx).Create(collection).Error
}

func (r *CollectionRepository) Find(ctx context.Context, id string) (*models.Collection, error) {
	var collection models.Collection
	err := r.DB.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("id = ?", id).
		Take(&collection).Error
	if err != nil {
		return nil, translate(err)
	}
	return &collection, nil
}

func (r *CollectionRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.DB.WithContext(ctx).
		Preload("Items", orderedItems).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&collections).Error
	return collections, err
}

func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&models.CollectionItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Collection{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
