package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/logging"
	"virtualwardrobe/models"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"
	"virtualwardrobe/suggestion"
	"virtualwardrobe/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
)

const MaxUploadSize = 10 << 20

type WardrobeController struct {
	Items    *repository.WardrobeRepository
	Store    services.ObjectStore
	URLs     services.URLCacheServiceProvider
	Enqueuer tasks.Enqueuer
	Logger   logging.Logger
	Now      func() time.Time
}

func (controller *WardrobeController) WardrobeRoutes(g *echo.Group) {
	g.POST("/uploadItem", controller.UploadItem)
	g.POST("/getItem", controller.ListItems)
	g.GET("/items", controller.ListItems)
	g.PUT("/:itemId", controller.UpdateItem)
	g.DELETE("/:itemId", controller.DeleteItem)
}

func (controller *WardrobeController) now() time.Time {
	if controller.Now != nil {
		return controller.Now()
	}
	return time.Now()
}

func (controller *WardrobeController) UploadItem(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	file, err := c.FormFile("image")
	if err != nil {
		return apperrors.Validation("Validation error", apperrors.FieldError{Field: "image", Message: "is required"})
	}
	if file.Size > MaxUploadSize {
		return apperrors.Validation("Validation error", apperrors.FieldError{Field: "image", Message: "must be at most 10MB"})
	}
	contentType := file.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return apperrors.Validation("Validation error", apperrors.FieldError{Field: "image", Message: "only image files are allowed"})
	}

	in := models.UploadItemIn{
		ClothName: strings.TrimSpace(c.FormValue("clothName")),
		ClothType: strings.TrimSpace(c.FormValue("clothType")),
	}
	if err := c.Validate(in); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return apperrors.Internal("An error occurred during upload", err)
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		return apperrors.Internal("An error occurred during upload", err)
	}
	if len(data) > MaxUploadSize {
		return apperrors.Validation("Validation error", apperrors.FieldError{Field: "image", Message: "must be at most 10MB"})
	}
	data, err = services.NormalizeImage(data, contentType, services.MaxImageDimension)
	if err != nil {
		return apperrors.Validation("Validation error", apperrors.FieldError{Field: "image", Message: "could not be decoded"})
	}

	now := controller.now()
	key := services.ItemObjectKey(user.ID, in.ClothName, contentType, now)
	metadata := map[string]string{
		"originalName": file.Filename,
		"uploadedBy":   user.Email,
		"uploadedAt":   now.UTC().Format(time.RFC3339),
	}
	if err := controller.Store.Upload(ctx, key, data, contentType, metadata); err != nil {
		return apperrors.Upstream("Failed to upload file to storage", true, err)
	}

	item := &models.WardrobeItem{
		OwnerID:        user.ID,
		Name:           in.ClothName,
		ClothType:      in.ClothType,
		ImageKey:       key,
		ContentType:    contentType,
		AnalysisStatus: models.AnalysisPending,
	}
	if err := controller.Items.CreateItem(ctx, item); err != nil {
		controller.removeBlob(ctx, key)
		return apperrors.Internal("Failed to save item details", err)
	}

	if err := tasks.EnqueueAnalyzeItem(ctx, controller.Enqueuer, item.ID); err != nil {
		sentry.CaptureException(fmt.Errorf("[Item %s] failed to enqueue analysis: %w", item.ID, err))
		controller.Logger.Warn("analysis not enqueued", logging.Fields{"item_id": item.ID, "error": err})
		item.AnalysisStatus = models.AnalysisIdle
		if err := controller.Items.UpdateAnalysis(ctx, item.ID, models.AnalysisUpdate{Status: models.AnalysisIdle}); err != nil {
			controller.Logger.Warn("failed to reset analysis status", logging.Fields{"item_id": item.ID, "error": err})
		}
	}

	url := controller.readURL(ctx, *item)
	controller.Logger.Info("item uploaded", logging.Fields{"user_id": user.ID, "item_id": item.ID, "bytes": len(data)})
	return c.JSON(http.StatusCreated, item.Out(url))
}

// removeBlob deletes key now, or hands it to the cleanup task when the store
// refuses.
func (controller *WardrobeController) removeBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	err := controller.Store.Delete(ctx, key)
	if err == nil || errors.Is(err, services.ErrObjectNotFound) {
		return
	}
	controller.Logger.Warn("blob delete failed, scheduling cleanup", logging.Fields{"key": key, "error": err})
	if err := tasks.EnqueueDeleteBlob(context.WithoutCancel(ctx), controller.Enqueuer, key); err != nil {
		sentry.CaptureException(fmt.Errorf("failed to schedule cleanup of %s: %w", key, err))
	}
}

// readURL resolves a readable image URL. A failing cache falls back to a
// direct presign, and a failing presign leaves the URL empty.
func (controller *WardrobeController) readURL(ctx context.Context, item models.WardrobeItem) string {
	url, err := services.ItemImageURL(ctx, controller.URLs, item.ImageKey, item.ImageURL)
	if err == nil {
		return url
	}
	controller.Logger.Warn("url cache failed, presigning directly", logging.Fields{"key": item.ImageKey, "error": err})
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("failure_type", "cache_system")
		scope.SetExtra("objectKey", item.ImageKey)
		sentry.CaptureException(err)
	})
	url, err = controller.Store.PresignRead(ctx, item.ImageKey)
	if err != nil {
		sentry.CaptureException(err)
		return ""
	}
	return url
}

// populateItemURLs renders items with their read URLs, resolved concurrently
// into an index-aligned slice.
func (controller *WardrobeController) populateItemURLs(ctx context.Context, items []models.WardrobeItem) []models.WardrobeItemOut {
	out := make([]models.WardrobeItemOut, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(index int, item models.WardrobeItem) {
			defer wg.Done()
			out[index] = item.Out(controller.readURL(ctx, item))
		}(i, item)
	}
	wg.Wait()
	return out
}

func (controller *WardrobeController) ListItems(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := controller.Items.ListItemsByOwner(c.Request().Context(), user.ID)
	if err != nil {
		return apperrors.Internal("An error occurred during get item", err)
	}
	return c.JSON(http.StatusOK, controller.populateItemURLs(c.Request().Context(), items))
}

// ownedItem loads the path item and checks it belongs to user.
func (controller *WardrobeController) ownedItem(c echo.Context, user models.UserAccount, action string) (*models.WardrobeItem, error) {
	item, err := controller.Items.FindItem(c.Request().Context(), c.Param("itemId"))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Item not found", err)
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load item", err)
	}
	if item.OwnerID != user.ID {
		return nil, apperrors.Forbidden(fmt.Sprintf("Unauthorized to %s this item", action), nil)
	}
	return item, nil
}

func (controller *WardrobeController) UpdateItem(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	in := new(models.UpdateItemIn)
	if err := c.Bind(in); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	in.ClothName = strings.TrimSpace(in.ClothName)
	if err := c.Validate(in); err != nil {
		return err
	}

	item, err := controller.ownedItem(c, user, "update")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := controller.Items.UpdateItemName(ctx, item.ID, in.ClothName); err != nil {
		return apperrors.Internal("An error occurred while updating item", err)
	}
	item.Name = in.ClothName
	item.UpdatedAt = controller.now()
	return c.JSON(http.StatusOK, item.Out(controller.readURL(ctx, *item)))
}

func (controller *WardrobeController) DeleteItem(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	item, err := controller.ownedItem(c, user, "delete")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := controller.Items.DeleteItem(ctx, item.ID); err != nil {
		return apperrors.Internal("An error occurred while deleting item", err)
	}

	key, err := suggestion.ObjectKey(*item)
	if err != nil {
		controller.Logger.Warn("item has no object key", logging.Fields{"item_id": item.ID, "error": err})
	}
	controller.removeBlob(ctx, key)

	return c.JSON(http.StatusOK, models.SuccessOut{Success: true, Message: "Item deleted successfully"})
}
