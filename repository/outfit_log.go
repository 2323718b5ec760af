package repository

import (
	"context"

	"virtualwardrobe/models"

	"gorm.io/gorm"
)

type OutfitLogRepository struct {
	DB *gorm.DB
}

func (r *OutfitLogRepository) Create(ctx context.Context, log *models.OutfitLog) error {
	return r.DB.WithContext(ctx).Create(log).Error
}

func (r *OutfitLogRepository) Find(ctx context.Context, id string) (*models.OutfitLog, error) {
	var log models.OutfitLog
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&log).Error; err != nil {
		return nil, translate(err)
	}
	return &log, nil
}

func (r *OutfitLogRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.OutfitLog, error) {
	var logs []models.OutfitLog
	err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date desc").
		Order("created_at desc").
		Find(&logs).Error
	return logs, err
}

func (r *OutfitLogRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.OutfitLog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByCollection counts logs per collection name on or after since (YYYY-MM-DD).
func (r *OutfitLogRepository) CountByCollection(ctx context.Context, ownerID, since string) (map[string]int64, error) {
	var rows []struct {
		CollectionName string
		Total          int64
	}
	err := r.DB.WithContext(ctx).Model(&models.OutfitLog{}).
		Select("collection_name, count(*) as total").
		Where("owner_id = ? AND date >= ?", ownerID, since).
		Group("collection_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CollectionName] = row.Total
	}
	return counts, nil
}

// CountByMonth counts logs per YYYY-MM on or after since (YYYY-MM-DD).
func (r *OutfitLogRepository) CountByMonth(ctx context.Context, ownerID, since string) (map[string]int64, error) {
	var rows []struct {
		Month string
		Total int64
	}
	err := r.DB.WithContext(ctx).Model(&models.OutfitLog{}).
		Select("substr(date, 1, 7) as month, count(*) as total").
		Where("owner_id = ? AND date >= ?", ownerID, since).
		Group("substr(date, 1, 7)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Month] = row.Total
	}
	return counts, nil
}

// OwnersWithoutLogOn returns ids of users holding an active push token that
// have not logged an outfit for date.
func (r *OutfitLogRepository) OwnersWithoutLogOn(ctx context.Context, date string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&models.UserPushToken{}).
		Distinct("user_account_id").
		Where("active = ?", true).
		Where("user_account_id NOT IN (?)",
			r.DB.Model(&models.OutfitLog{}).Select("owner_id").Where("date = ?", date),
		).
		Pluck("user_account_id", &ids).Error
	return ids, err
}
