package suggestion

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/models"
	"virtualwardrobe/services"

	"golang.org/x/sync/errgroup"
)

const defaultImageContentType = "image/jpeg"

var (
	// first wardrobe%2F... segment of a download URL, up to the query string
	legacyKeyPattern = regexp.MustCompile(`(wardrobe%2F[^?]*)\?`)

	ErrMalformedReference = errors.New("malformed image reference")
)

type BlobStore interface {
	Stat(ctx context.Context, key string) (*services.ObjectInfo, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// ObjectKey returns the object-store key of the item image. Rows written
// before keys were recorded fall back to parsing the download URL.
func ObjectKey(item models.WardrobeItem) (string, error) {
	if item.ImageKey != "" {
		return item.ImageKey, nil
	}
	if item.ImageURL == nil {
		return "", ErrMalformedReference
	}
	match := legacyKeyPattern.FindStringSubmatch(*item.ImageURL)
	if match == nil {
		return "", ErrMalformedReference
	}
	key, err := url.PathUnescape(match[1])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedReference, err)
	}
	return key, nil
}

type PromptAssembler struct {
	Blobs BlobStore
}

// Assemble returns the instruction text and one image part per item, with
// part i belonging to items[i].
func (a PromptAssembler) Assemble(ctx context.Context, items []models.WardrobeItem, prefs models.SuggestionPreferences) (string, []models.ImagePart, error) {
	parts := make([]models.ImagePart, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			part, err := a.imagePart(gctx, item)
			if err != nil {
				return apperrors.Upstream(fmt.Sprintf("image processing failed for item %s", item.ID), true, err)
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}
	return BuildPrompt(items, prefs), parts, nil
}

func (a PromptAssembler) imagePart(ctx context.Context, item models.WardrobeItem) (models.ImagePart, error) {
	key, err := ObjectKey(item)
	if err != nil {
		return models.ImagePart{}, err
	}
	info, err := a.Blobs.Stat(ctx, key)
	if err != nil {
		return models.ImagePart{}, fmt.Errorf("stat %s: %w", key, err)
	}
	data, err := a.Blobs.Download(ctx, key)
	if err != nil {
		return models.ImagePart{}, fmt.Errorf("download %s: %w", key, err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = item.ContentType
	}
	if contentType == "" {
		contentType = defaultImageContentType
	}
	return models.ImagePart{
		MIMEType: contentType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// BuildPrompt renders the instruction text sent ahead of the item images.
func BuildPrompt(items []models.WardrobeItem, prefs models.SuggestionPreferences) string {
	var b strings.Builder
	b.WriteString("As a fashion expert, analyze these clothing items and create outfit suggestions based on the following preferences:\n\n")
	fmt.Fprintf(&b, "Occasions: %s\n", strings.Join(prefs.Occasion, ", "))
	fmt.Fprintf(&b, "Styles: %s\n", strings.Join(prefs.Style, ", "))
	fmt.Fprintf(&b, "Seasons: %s\n", strings.Join(prefs.Season, ", "))
	fmt.Fprintf(&b, "Color Preferences: %s\n", strings.Join(prefs.ColorPreference, ", "))
	fmt.Fprintf(&b, "Dress Codes: %s\n", strings.Join(prefs.DressCode, ", "))

	b.WriteString("\nSelected Items:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- [ID: %s] %s (Type: %s)\n", item.ID, item.Name, item.ClothType)
	}

	b.WriteString(`
I've provided images of each clothing item, in the same order as the list above. Please analyze their visual characteristics (colors, patterns, style) and create outfit combinations that match the given preferences.

IMPORTANT: Use the exact item IDs provided in square brackets [ID: xxx] when suggesting outfits.

Please provide 3 outfit suggestions in the following JSON format:
{
  "suggestedOutfits": [
    {
      "itemIds": ["exact-id-1", "exact-id-2"],
      "reasoning": "Detailed explanation of why these items work together, considering their visual appearance and the user's preferences",
      "styleAdvice": "Additional styling tips and accessories suggestions",
      "confidenceScore": 0.95,
      "matchingPreferences": ["preference1", "preference2"]
    }
  ]
}

Focus on creating cohesive outfits that match the specified preferences and style guidelines. Consider how the actual appearance of the items in the images work together.`)
	return b.String()
}
