package suggestion_test

import (
	"context"
	"encoding/base64"
	"testing"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/models"
	"virtualwardrobe/suggestion"
	"virtualwardrobe/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	withKey := wardrobeItem("it1", "u1", "Shirt", "shirt")
	key, err := suggestion.ObjectKey(withKey)
	require.NoError(t, err)
	assert.Equal(t, "wardrobe/u1/it1.jpg", key)

	legacy := models.WardrobeItem{
		ImageURL: test.NewRefString("https://firebasestorage.googleapis.com/v0/b/app.appspot.com/o/wardrobe%2Fu1%2F1700000000000_Blue_shirt.jpg?alt=media&token=abc"),
	}
	key, err = suggestion.ObjectKey(legacy)
	require.NoError(t, err)
	assert.Equal(t, "wardrobe/u1/1700000000000_Blue_shirt.jpg", key)

	_, err = suggestion.ObjectKey(models.WardrobeItem{ImageURL: test.NewRefString("https://cdn.example.com/shirt.jpg")})
	assert.ErrorIs(t, err, suggestion.ErrMalformedReference)

	// no query string after the key
	_, err = suggestion.ObjectKey(models.WardrobeItem{ImageURL: test.NewRefString("https://host/o/wardrobe%2Fu1%2Fa.jpg")})
	assert.ErrorIs(t, err, suggestion.ErrMalformedReference)

	_, err = suggestion.ObjectKey(models.WardrobeItem{})
	assert.ErrorIs(t, err, suggestion.ErrMalformedReference)
}

func storeWithImages(items ...models.WardrobeItem) *test.FakeObjectStore {
	blobs := test.NewFakeObjectStore()
	for _, item := range items {
		blobs.Put(item.ImageKey, []byte("image-bytes-of-"+item.ID), "image/png")
	}
	return blobs
}

func TestAssembleAlignsPartsWithItems(t *testing.T) {
	a := wardrobeItem("it1", "u1", "Shirt", "shirt")
	b := wardrobeItem("it2", "u1", "Jeans", "pants")
	c := wardrobeItem("it3", "u1", "Boots", "shoes")
	assembler := suggestion.PromptAssembler{Blobs: storeWithImages(a, b, c)}

	for _, items := range [][]models.WardrobeItem{{a, b, c}, {c, b, a}, {b, a, c}} {
		_, parts, err := assembler.Assemble(context.Background(), items, models.SuggestionPreferences{})
		require.NoError(t, err)
		require.Len(t, parts, len(items))
		for i, item := range items {
			decoded, err := base64.StdEncoding.DecodeString(parts[i].Data)
			require.NoError(t, err)
			assert.Equal(t, "image-bytes-of-"+item.ID, string(decoded))
			assert.Equal(t, "image/png", parts[i].MIMEType)
		}
	}
}

func TestAssembleDefaultsContentType(t *testing.T) {
	item := wardrobeItem("it1", "u1", "Shirt", "shirt")
	item.ContentType = ""
	blobs := test.NewFakeObjectStore()
	blobs.Put(item.ImageKey, []byte("raw"), "")

	_, parts, err := suggestion.PromptAssembler{Blobs: blobs}.Assemble(context.Background(), []models.WardrobeItem{item}, models.SuggestionPreferences{})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", parts[0].MIMEType)
}

func TestAssembleFailsOnMissingBlob(t *testing.T) {
	present := wardrobeItem("it1", "u1", "Shirt", "shirt")
	missing := wardrobeItem("it2", "u1", "Jeans", "pants")
	assembler := suggestion.PromptAssembler{Blobs: storeWithImages(present)}

	_, parts, err := assembler.Assemble(context.Background(), []models.WardrobeItem{present, missing}, models.SuggestionPreferences{})
	assert.Nil(t, parts)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindUpstream, appErr.Kind)
	assert.True(t, appErr.Retryable)
	assert.Equal(t, "image processing failed for item it2", appErr.Message)
}

func TestAssembleFailsOnMalformedLegacyURL(t *testing.T) {
	item := models.WardrobeItem{
		JsonModel: models.JsonModel{ID: "legacy"},
		OwnerID:   "u1",
		ImageURL:  test.NewRefString("not a storage url"),
	}
	_, _, err := suggestion.PromptAssembler{Blobs: test.NewFakeObjectStore()}.Assemble(context.Background(), []models.WardrobeItem{item}, models.SuggestionPreferences{})
	require.Error(t, err)
	assert.ErrorIs(t, err, suggestion.ErrMalformedReference)
}

func TestBuildPrompt(t *testing.T) {
	items := []models.WardrobeItem{
		wardrobeItem("it1", "u1", "Blue shirt", "shirt"),
		wardrobeItem("it2", "u1", "Jeans", "pants"),
	}
	prefs := models.SuggestionPreferences{
		Occasion:        []string{"Formal", "Party"},
		Style:           []string{"Classic"},
		Season:          []string{"Winter"},
		ColorPreference: []string{"Neutral"},
		DressCode:       []string{"Black Tie"},
	}

	prompt := suggestion.BuildPrompt(items, prefs)
	assert.Contains(t, prompt, "As a fashion expert")
	assert.Contains(t, prompt, "Occasions: Formal, Party\n")
	assert.Contains(t, prompt, "Styles: Classic\n")
	assert.Contains(t, prompt, "Seasons: Winter\n")
	assert.Contains(t, prompt, "Color Preferences: Neutral\n")
	assert.Contains(t, prompt, "Dress Codes: Black Tie\n")
	assert.Contains(t, prompt, "- [ID: it1] Blue shirt (Type: shirt)\n")
	assert.Contains(t, prompt, "- [ID: it2] Jeans (Type: pants)\n")
	assert.Contains(t, prompt, `"suggestedOutfits"`)
	assert.Contains(t, prompt, "provide 3 outfit suggestions")
}
