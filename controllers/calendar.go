package controllers

import (
	"context"
	"errors"
	"net/http"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/logging"
	"virtualwardrobe/models"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"

	"github.com/labstack/echo/v4"
)

type CalendarController struct {
	Logs        *repository.OutfitLogRepository
	Collections *repository.CollectionRepository
	URLs        services.URLCacheServiceProvider
	Logger      logging.Logger
}

func (controller *CalendarController) CalendarRoutes(g *echo.Group) {
	g.POST("/outfits", controller.CreateOutfitLog)
	g.GET("/outfits", controller.ListOutfitLogs)
	g.DELETE("/outfits/:logId", controller.DeleteOutfitLog)
}

func (controller *CalendarController) outfitLogOut(ctx context.Context, log models.OutfitLog) models.OutfitLogOut {
	var legacy *string
	if log.ThumbnailURL != "" {
		legacy = &log.ThumbnailURL
	}
	return models.OutfitLogOut{
		ID:             log.ID,
		Date:           log.Date,
		CollectionID:   log.CollectionID,
		CollectionName: log.CollectionName,
		ThumbnailURL:   imageURL(ctx, controller.URLs, controller.Logger, log.ThumbnailKey, legacy),
		UserID:         log.OwnerID,
		CreatedAt:      formatTime(log.CreatedAt),
		UpdatedAt:      formatTime(log.UpdatedAt),
	}
}

func (controller *CalendarController) CreateOutfitLog(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	in := new(models.CreateOutfitLogIn)
	if err := bindAndValidate(c, in); err != nil {
		return err
	}
	ctx := c.Request().Context()

	collection, err := controller.Collections.Find(ctx, in.CollectionID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Collection not found", err)
	}
	if err != nil {
		return apperrors.Internal("Failed to create outfit log", err)
	}
	if collection.OwnerID != user.ID {
		return apperrors.Forbidden("Unauthorized access to collection", nil)
	}

	log := &models.OutfitLog{
		OwnerID:        user.ID,
		Date:           in.Date,
		CollectionID:   collection.ID,
		CollectionName: collection.Name,
	}
	if len(collection.Items) > 0 {
		first := collection.Items[0]
		log.ThumbnailKey = first.ImageKey
		if first.ImageURL != nil {
			log.ThumbnailURL = *first.ImageURL
		}
	}
	if err := controller.Logs.Create(ctx, log); err != nil {
		return apperrors.Internal("Failed to create outfit log", err)
	}
	return c.JSON(http.StatusCreated, controller.outfitLogOut(ctx, *log))
}

func (controller *CalendarController) ListOutfitLogs(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	logs, err := controller.Logs.ListByOwner(ctx, user.ID)
	if err != nil {
		return apperrors.Internal("Failed to fetch outfit logs", err)
	}
	out := make([]models.OutfitLogOut, 0, len(logs))
	for _, log := range logs {
		out = append(out, controller.outfitLogOut(ctx, log))
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *CalendarController) DeleteOutfitLog(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	log, err := controller.Logs.Find(ctx, c.Param("logId"))
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Outfit log not found", err)
	}
	if err != nil {
		return apperrors.Internal("Failed to delete outfit log", err)
	}
	if log.OwnerID != user.ID {
		return apperrors.Forbidden("Unauthorized to delete this outfit log", nil)
	}
	if err := controller.Logs.Delete(ctx, log.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperrors.Internal("Failed to delete outfit log", err)
	}
	return c.JSON(http.StatusOK, models.SuccessOut{Success: true, Message: "Outfit log deleted successfully"})
}
