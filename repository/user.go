package repository

import (
	"context"
	"strings"

	"virtualwardrobe/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.UserAccount, error) {
	var user models.UserAccount
	if err := r.DB.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	var user models.UserAccount
	err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).Take(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.UserAccount) error {
	user.Email = strings.ToLower(user.Email)
	return r.DB.WithContext(ctx).Create(user).Error
}

// FindOrCreateExternal maps an identity-provider subject to a local account,
// creating it on first sight.
func (r *UserRepository) FindOrCreateExternal(ctx context.Context, provider models.AuthProvider, subject, email string) (*models.UserAccount, error) {
	var user models.UserAccount
	err := r.DB.WithContext(ctx).Where("external_id = ?", subject).Take(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	user = models.UserAccount{
		Email:      strings.ToLower(email),
		Provider:   provider,
		ExternalID: &subject,
	}
	if user.Email == "" {
		user.Email = subject + "@" + string(provider)
	}
	if err := r.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) SavePushToken(ctx context.Context, userID string, in models.UserPushIn) error {
	token := models.UserPushToken{
		UserAccountID: userID,
		Platform:      in.Platform,
		Token:         in.Token,
		Active:        true,
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_account_id", "platform", "active", "updated_at"}),
	}).Create(&token).Error
}

func (r *UserRepository) ActivePushTokens(ctx context.Context, userID string) ([]models.UserPushToken, error) {
	var tokens []models.UserPushToken
	err := r.DB.WithContext(ctx).
		Where("user_account_id = ? AND active = ?", userID, true).
		Find(&tokens).Error
	return tokens, err
}

func (r *UserRepository) DeactivatePushToken(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).Model(&models.UserPushToken{}).
		Where("token = ?", token).
		Update("active", false).Error
}
