package models

import "time"

const (
	AnalysisIdle      = "idle"
	AnalysisPending   = "pending"
	AnalysisCompleted = "completed"
	AnalysisFailed    = "failed"
)

type WardrobeItem struct {
	JsonModel
	OwnerID   string      `gorm:"index;not null" json:"userID"`
	Owner     UserAccount `json:"-"`
	Name      string      `json:"clothName"`
	ClothType string      `gorm:"index" json:"clothType"`
	// object key recorded at upload time
	ImageKey string `json:"-"`
	// download URL of rows created before ImageKey existed
	ImageURL    *string `json:"imageUrl,omitempty"`
	ContentType string  `json:"-"`

	Color    *string `json:"color,omitempty"`
	Pattern  *string `json:"pattern,omitempty"`
	Material *string `json:"material,omitempty"`
	Category *string `json:"category,omitempty"`

	AnalysisStatus       string  `gorm:"default:idle" json:"analysisStatus"`
	AnalysisRetryTimes   int     `json:"-"`
	AnalysisErrorMessage *string `json:"-"`
}

// AnalysisUpdate is the analysis state of an item. Attributes is nil unless
// the analysis completed.
type AnalysisUpdate struct {
	Status       string
	RetryTimes   int
	ErrorMessage *string
	Attributes   *ItemAttributes
}

// ItemAttributes are the visual attributes derived from an item image.
type ItemAttributes struct {
	Color    string `json:"color"`
	Pattern  string `json:"pattern"`
	Material string `json:"material"`
	Category string `json:"category"`
}

type UploadItemIn struct {
	ClothName string `form:"clothName" json:"clothName" validate:"required,min=1,max=100"`
	ClothType string `form:"clothType" json:"clothType" validate:"required,min=1,max=50"`
}

type UpdateItemIn struct {
	ClothName string `json:"clothName" validate:"required,min=1,max=100"`
}

type WardrobeItemOut struct {
	ID             string  `json:"id"`
	ClothName      string  `json:"clothName"`
	ClothType      string  `json:"clothType"`
	ImageURL       string  `json:"imageUrl"`
	UserID         string  `json:"userID"`
	Color          *string `json:"color,omitempty"`
	Pattern        *string `json:"pattern,omitempty"`
	Material       *string `json:"material,omitempty"`
	Category       *string `json:"category,omitempty"`
	AnalysisStatus string  `json:"analysisStatus"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// Out renders the item for clients. imageURL is the readable URL resolved by
// the caller, empty when none could be produced.
func (i WardrobeItem) Out(imageURL string) WardrobeItemOut {
	return WardrobeItemOut{
		ID:             i.ID,
		ClothName:      i.Name,
		ClothType:      i.ClothType,
		ImageURL:       imageURL,
		UserID:         i.OwnerID,
		Color:          i.Color,
		Pattern:        i.Pattern,
		Material:       i.Material,
		Category:       i.Category,
		AnalysisStatus: i.AnalysisStatus,
		CreatedAt:      i.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      i.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
