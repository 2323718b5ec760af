package suggestion

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"virtualwardrobe/apperrors"
	"virtualwardrobe/models"

	"github.com/go-playground/validator"
)

// opening fences may carry any language tag, in any case
var fencePattern = regexp.MustCompile("(?i)```[a-z]*[ \\t]*\\n?|\\n?```")

// StripFences removes markdown code fences around a model reply.
func StripFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

// Outfit is a generated outfit whose ids have been resolved to items.
type Outfit struct {
	Items               []models.WardrobeItem
	Reasoning           string
	StyleAdvice         string
	Score               float64
	MatchingPreferences []string
}

// TolerantReferenceFiltering parses the model reply strictly but forgives
// item ids it does not recognise: they are dropped, and an outfit left with
// no items is dropped with them.
type TolerantReferenceFiltering struct {
	validate *validator.Validate
}

func NewTolerantReferenceFiltering() TolerantReferenceFiltering {
	return TolerantReferenceFiltering{validate: validator.New()}
}

func (f TolerantReferenceFiltering) Parse(text string) (*models.GeneratedOutfits, error) {
	var parsed models.GeneratedOutfits
	if err := json.Unmarshal([]byte(StripFences(text)), &parsed); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, apperrors.Upstream("model response failed validation", false, err)
		}
		return nil, apperrors.Upstream("failed to parse model response", false, err)
	}
	if err := f.validate.Struct(&parsed); err != nil {
		return nil, apperrors.Upstream("model response failed validation", false, err)
	}
	return &parsed, nil
}

// Interpret parses text and resolves every outfit against items, the
// already authorized selection.
func (f TolerantReferenceFiltering) Interpret(text string, items []models.WardrobeItem) ([]Outfit, error) {
	parsed, err := f.Parse(text)
	if err != nil {
		return nil, err
	}

	outfits := make([]Outfit, 0, len(parsed.SuggestedOutfits))
	for _, generated := range parsed.SuggestedOutfits {
		wanted := make(map[string]bool, len(*generated.ItemIDs))
		for _, id := range *generated.ItemIDs {
			wanted[id] = true
		}

		var matched []models.WardrobeItem
		seen := make(map[string]bool, len(wanted))
		for _, item := range items {
			if wanted[item.ID] && !seen[item.ID] {
				seen[item.ID] = true
				matched = append(matched, item)
			}
		}
		if len(matched) == 0 {
			continue
		}

		prefs := generated.MatchingPreferences
		if prefs == nil {
			prefs = []string{}
		}
		outfits = append(outfits, Outfit{
			Items:               matched,
			Reasoning:           *generated.Reasoning,
			StyleAdvice:         *generated.StyleAdvice,
			Score:               clamp(*generated.ConfidenceScore),
			MatchingPreferences: prefs,
		})
	}
	return outfits, nil
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
