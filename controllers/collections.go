package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/logging"
	"virtualwardrobe/models"
	"virtualwardrobe/repository"
	"virtualwardrobe/services"

	"github.com/labstack/echo/v4"
)

type CollectionController struct {
	Collections *repository.CollectionRepository
	Items       *repository.WardrobeRepository
	URLs        services.URLCacheServiceProvider
	Logger      logging.Logger
}

func (controller *CollectionController) CollectionRoutes(g *echo.Group) {
	g.POST("/create", controller.CreateCollection)
	g.GET("", controller.ListCollections)
	g.DELETE("/:collectionId", controller.DeleteCollection)
}

func (controller *CollectionController) collectionOut(ctx context.Context, collection models.Collection) models.CollectionOut {
	items := make([]models.CollectionItemOut, 0, len(collection.Items))
	for _, item := range collection.Items {
		items = append(items, models.CollectionItemOut{
			ClothID:   item.ClothID,
			ImageURL:  imageURL(ctx, controller.URLs, controller.Logger, item.ImageKey, item.ImageURL),
			ClothName: item.ClothName,
			ClothType: item.ClothType,
		})
	}
	return models.CollectionOut{
		ID:        collection.ID,
		Name:      collection.Name,
		UserID:    collection.OwnerID,
		Items:     items,
		CreatedAt: formatTime(collection.CreatedAt),
		UpdatedAt: formatTime(collection.UpdatedAt),
	}
}

func (controller *CollectionController) CreateCollection(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	in := new(models.CreateCollectionIn)
	if err := c.Bind(in); err != nil {
		return apperrors.Validation("Invalid request body")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := c.Validate(in); err != nil {
		return err
	}
	ctx := c.Request().Context()

	collection := &models.Collection{OwnerID: user.ID, Name: in.Name}
	for _, id := range in.Items {
		item, err := controller.Items.FindItem(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(fmt.Sprintf("Cloth item %s not found", id), err)
		}
		if err != nil {
			return apperrors.Internal("Failed to create collection", err)
		}
		if item.OwnerID != user.ID {
			return apperrors.Forbidden("Unauthorized access to wardrobe items", nil)
		}
		collection.Items = append(collection.Items, models.CollectionItem{
			ClothID:   item.ID,
			ImageKey:  item.ImageKey,
			ImageURL:  item.ImageURL,
			ClothName: item.Name,
			ClothType: item.ClothType,
		})
	}

	if err := controller.Collections.Create(ctx, collection); err != nil {
		return apperrors.Internal("Failed to create collection", err)
	}
	return c.JSON(http.StatusCreated, controller.collectionOut(ctx, *collection))
}

func (controller *CollectionController) ListCollections(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	collections, err := controller.Collections.ListByOwner(ctx, user.ID)
	if err != nil {
		return apperrors.Internal("Failed to fetch collections", err)
	}
	out := make([]models.CollectionOut, 0, len(collections))
	for _, collection := range collections {
		out = append(out, controller.collectionOut(ctx, collection))
	}
	return c.JSON(http.StatusOK, out)
}

func (controller *CollectionController) DeleteCollection(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	collection, err := controller.Collections.Find(ctx, c.Param("collectionId"))
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("Collection not found", err)
	}
	if err != nil {
		return apperrors.Internal("An error occurred while deleting collection", err)
	}
	if collection.OwnerID != user.ID {
		return apperrors.Forbidden("Unauthorized to delete this collection", nil)
	}
	if err := controller.Collections.Delete(ctx, collection.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperrors.Internal("An error occurred while deleting collection", err)
	}
	return c.JSON(http.StatusOK, models.SuccessOut{Success: true, Message: "Collection deleted successfully"})
}
