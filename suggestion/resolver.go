package suggestion

import (
	"context"
	"errors"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/models"
	"virtualwardrobe/repository"

	"golang.org/x/sync/errgroup"
)

const unauthorizedItemsMessage = "Unauthorized access to wardrobe items"

type ItemStore interface {
	FindItem(ctx context.Context, id string) (*models.WardrobeItem, error)
}

// StrictAuthorization loads every requested item and rejects the whole
// request if any one of them is missing or belongs to someone else.
type StrictAuthorization struct {
	Items ItemStore
}

// Resolve returns the items in the order of ids.
func (r StrictAuthorization) Resolve(ctx context.Context, userID string, ids []string) ([]models.WardrobeItem, error) {
	if len(ids) == 0 {
		return nil, apperrors.Validation("Validation error", apperrors.FieldError{
			Field:   "selectedItems",
			Message: "at least one item is required",
		})
	}

	resolved := make([]*models.WardrobeItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			item, err := r.Items.FindItem(gctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.Forbidden(unauthorizedItemsMessage, err)
			}
			if err != nil {
				return apperrors.Internal("failed to load wardrobe items", err)
			}
			if item == nil || item.OwnerID != userID {
				return apperrors.Forbidden(unauthorizedItemsMessage, nil)
			}
			resolved[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]models.WardrobeItem, len(resolved))
	for i, item := range resolved {
		items[i] = *item
	}
	return items, nil
}
