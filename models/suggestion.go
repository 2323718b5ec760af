package models

// ImagePart is one inline image handed to the generative model.
type ImagePart struct {
	MIMEType string
	// base64 encoded bytes
	Data string
}

// GeneratedOutfit is a single outfit as returned by the model, before any of
// its item ids are trusted.
type GeneratedOutfit struct {
	ItemIDs             *[]string `json:"itemIds" validate:"required"`
	Reasoning           *string   `json:"reasoning" validate:"required"`
	StyleAdvice         *string   `json:"styleAdvice" validate:"required"`
	ConfidenceScore     *float64  `json:"confidenceScore" validate:"required"`
	MatchingPreferences []string  `json:"matchingPreferences"`
}

type GeneratedOutfits struct {
	SuggestedOutfits []GeneratedOutfit `json:"suggestedOutfits" validate:"required,dive"`
}

type OutfitSuggestion struct {
	Items               []WardrobeItemOut `json:"items"`
	Reasoning           string            `json:"reasoning"`
	Score               float64           `json:"score"`
	MatchingPreferences []string          `json:"matchingPreferences"`
	StyleAdvice         string            `json:"styleAdvice"`
}

type GenerateSuggestionOut struct {
	Suggestions    []OutfitSuggestion `json:"suggestions"`
	ProcessingTime int64              `json:"processingTime"`
	TotalOptions   int                `json:"totalOptions"`
}
