package controllers

import (
	"context"
	"time"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/logging"
	"virtualwardrobe/models"
	"virtualwardrobe/services"

	"github.com/labstack/echo/v4"
)

func bindAndValidate(c echo.Context, in interface{}) error {
	if err := c.Bind(in); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	return c.Validate(in)
}

func currentUser(c echo.Context) (models.UserAccount, error) {
	user, ok := c.Get("currentUser").(models.UserAccount)
	if !ok {
		return models.UserAccount{}, apperrors.Unauthenticated("Unauthorized", nil)
	}
	return user, nil
}

// imageURL never fails the request, an unresolvable image renders as "".
func imageURL(ctx context.Context, urls services.URLCacheServiceProvider, logger logging.Logger, key string, legacy *string) string {
	url, err := services.ItemImageURL(ctx, urls, key, legacy)
	if err != nil {
		logger.Warn("failed to resolve image url", logging.Fields{"key": key, "error": err})
		return ""
	}
	return url
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
