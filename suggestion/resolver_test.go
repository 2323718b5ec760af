package suggestion_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/models"
	"virtualwardrobe/suggestion"
	"virtualwardrobe/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wardrobeItem(id, owner, name, clothType string) models.WardrobeItem {
	return models.WardrobeItem{
		JsonModel:   models.JsonModel{ID: id},
		OwnerID:     owner,
		Name:        name,
		ClothType:   clothType,
		ImageKey:    "wardrobe/" + owner + "/" + id + ".jpg",
		ContentType: "image/jpeg",
	}
}

func TestResolveKeepsRequestOrder(t *testing.T) {
	store := test.NewFakeItemStore(
		wardrobeItem("it1", "u1", "Blue shirt", "shirt"),
		wardrobeItem("it2", "u1", "Jeans", "pants"),
		wardrobeItem("it3", "u1", "Sneakers", "shoes"),
	)
	resolver := suggestion.StrictAuthorization{Items: store}

	orders := [][]string{
		{"it1", "it2", "it3"},
		{"it3", "it1", "it2"},
		{"it2", "it3", "it1"},
	}
	for _, ids := range orders {
		items, err := resolver.Resolve(context.Background(), "u1", ids)
		require.NoError(t, err)
		require.Len(t, items, len(ids))
		for i, id := range ids {
			assert.Equal(t, id, items[i].ID)
		}
	}
}

func TestResolveRejectsForeignItem(t *testing.T) {
	store := test.NewFakeItemStore(
		wardrobeItem("it1", "u1", "Blue shirt", "shirt"),
		wardrobeItem("it2", "u2", "Someone else's jeans", "pants"),
	)
	resolver := suggestion.StrictAuthorization{Items: store}

	items, err := resolver.Resolve(context.Background(), "u1", []string{"it1", "it2"})
	assert.Nil(t, items)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindAuthorization, appErr.Kind)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestResolveRejectsMissingItem(t *testing.T) {
	store := test.NewFakeItemStore(wardrobeItem("it1", "u1", "Blue shirt", "shirt"))
	resolver := suggestion.StrictAuthorization{Items: store}

	_, err := resolver.Resolve(context.Background(), "u1", []string{"it1", "unknown-id"})
	assert.Equal(t, http.StatusForbidden, apperrors.StatusCode(err))
}

func TestResolveStoreFailureIsInternal(t *testing.T) {
	store := test.NewFakeItemStore()
	store.Err = errors.New("connection refused")
	resolver := suggestion.StrictAuthorization{Items: store}

	_, err := resolver.Resolve(context.Background(), "u1", []string{"it1"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusCode(err))
}

func TestResolveRequiresItems(t *testing.T) {
	resolver := suggestion.StrictAuthorization{Items: test.NewFakeItemStore()}

	_, err := resolver.Resolve(context.Background(), "u1", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
