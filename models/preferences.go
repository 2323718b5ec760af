package models

import (
	"strings"

	"github.com/go-playground/validator"
	"golang.org/x/text/cases"
)

type PreferenceCategory string

const (
	PreferenceOccasion        PreferenceCategory = "occasion"
	PreferenceStyle           PreferenceCategory = "style"
	PreferenceSeason          PreferenceCategory = "season"
	PreferenceColorPreference PreferenceCategory = "colorPreference"
	PreferenceDressCode       PreferenceCategory = "dresscode"
)

var PreferenceOptions = map[PreferenceCategory][]string{
	PreferenceOccasion:        {"Formal", "Casual", "Business", "Party", "Outdoor", "Sports", "Date"},
	PreferenceStyle:           {"Classic", "Modern", "Minimalist", "Vintage", "Streetwear", "Bohemian", "Preppy"},
	PreferenceSeason:          {"Spring", "Summer", "Fall", "Winter"},
	PreferenceColorPreference: {"Neutral", "Warm", "Cool", "Bright", "Pastel", "Monochrome"},
	PreferenceDressCode:       {"Business Formal", "Business Casual", "Smart Casual", "Casual", "Cocktail", "Black Tie"},
}

// PreferenceValidationTags maps the validator tag registered for each category.
var PreferenceValidationTags = map[string]PreferenceCategory{
	"occasion":         PreferenceOccasion,
	"style":            PreferenceStyle,
	"season":           PreferenceSeason,
	"color_preference": PreferenceColorPreference,
	"dress_code":       PreferenceDressCode,
}

type SuggestionPreferences struct {
	Occasion        []string `json:"occasion" validate:"dive,occasion"`
	Style           []string `json:"style" validate:"dive,style"`
	Season          []string `json:"season" validate:"dive,season"`
	ColorPreference []string `json:"colorPreference" validate:"dive,color_preference"`
	DressCode       []string `json:"dresscode" validate:"dive,dress_code"`
}

type GenerateSuggestionIn struct {
	SelectedItems []string              `json:"selectedItems" validate:"required,min=1,max=20,dive,required"`
	Preferences   SuggestionPreferences `json:"preferences"`
}

// CanonicalPreference returns the canonical spelling of value within the
// category, matching case-insensitively.
func CanonicalPreference(category PreferenceCategory, value string) (string, bool) {
	folder := cases.Fold()
	needle := folder.String(strings.Join(strings.Fields(value), " "))
	for _, option := range PreferenceOptions[category] {
		if folder.String(option) == needle {
			return option, true
		}
	}
	return "", false
}

func ValidatePreferenceOption(category PreferenceCategory) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, ok := CanonicalPreference(category, fl.Field().String())
		return ok
	}
}

// Normalize rewrites every option to its canonical spelling and drops
// duplicates. Unknown options are kept as sent; validation rejects them first.
func (p SuggestionPreferences) Normalize() SuggestionPreferences {
	return SuggestionPreferences{
		Occasion:        normalizeOptions(PreferenceOccasion, p.Occasion),
		Style:           normalizeOptions(PreferenceStyle, p.Style),
		Season:          normalizeOptions(PreferenceSeason, p.Season),
		ColorPreference: normalizeOptions(PreferenceColorPreference, p.ColorPreference),
		DressCode:       normalizeOptions(PreferenceDressCode, p.DressCode),
	}
}

func normalizeOptions(category PreferenceCategory, values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		canonical, ok := CanonicalPreference(category, v)
		if !ok {
			canonical = v
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	return out
}
