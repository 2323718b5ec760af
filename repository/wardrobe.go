package repository

import (
	"context"
	"time"

	"virtualwardrobe/models"

	"gorm.io/gorm"
)

type WardrobeRepository struct {
	DB *gorm.DB
}

// FindItem returns ErrNotFound when no item has the id.
func (r *WardrobeRepository) FindItem(ctx context.Context, id string) (*models.WardrobeItem, error) {
	var item models.WardrobeItem
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *WardrobeRepository) ListItemsByOwner(ctx context.Context, ownerID string) ([]models.WardrobeItem, error) {
	var items []models.WardrobeItem
	err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Find(&items).Error
	return items, err
}

func (r *WardrobeRepository) CreateItem(ctx context.Context, item *models.WardrobeItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

// UpdateAnalysis writes only the analysis columns, so a concurrent rename
// is never overwritten.
func (r *WardrobeRepository) UpdateAnalysis(ctx context.Context, id string, update models.AnalysisUpdate) error {
	columns := map[string]interface{}{
		"analysis_status":        update.Status,
		"analysis_retry_times":   update.RetryTimes,
		"analysis_error_message": update.ErrorMessage,
		"updated_at":             time.Now(),
	}
	if attrs := update.Attributes; attrs != nil {
		columns["color"] = attrs.Color
		columns["pattern"] = attrs.Pattern
		columns["material"] = attrs.Material
		columns["category"] = attrs.Category
	}
	res := r.DB.WithContext(ctx).Model(&models.WardrobeItem{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WardrobeRepository) UpdateItemName(ctx context.Context, id, name string) error {
	res := r.DB.WithContext(ctx).Model(&models.WardrobeItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WardrobeRepository) DeleteItem(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.WardrobeItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByType counts the owner's items per clothType.
func (r *WardrobeRepository) CountByType(ctx context.Context, ownerID string) (map[string]int64, error) {
	var rows []struct {
		ClothType string
		Total     int64
	}
	err := r.DB.WithContext(ctx).Model(&models.WardrobeItem{}).
		Select("cloth_type, count(*) as total").
		Where("owner_id = ?", ownerID).
		Group("cloth_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.ClothType] = row.Total
	}
	return counts, nil
}
