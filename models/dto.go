package models

type StatsTimeFrame string

const (
	TimeFrameWeek  StatsTimeFrame = "week"
	TimeFrameMonth StatsTimeFrame = "month"
	TimeFrameYear  StatsTimeFrame = "year"
)

type StatsOut struct {
	ClothingTypes map[string]int64 `json:"clothingTypes"`
	Collections   map[string]int64 `json:"collections"`
	MonthlyUsage  map[string]int64 `json:"monthlyUsage"`
}

type CollectionOut struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	UserID    string              `json:"userId"`
	Items     []CollectionItemOut `json:"items"`
	CreatedAt string              `json:"createdAt"`
	UpdatedAt string              `json:"updatedAt"`
}

type CollectionItemOut struct {
	ClothID   string `json:"clothId"`
	ImageURL  string `json:"imageUrl"`
	ClothName string `json:"clothName"`
	ClothType string `json:"clothType"`
}

type OutfitLogOut struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	CollectionID   string `json:"collectionId"`
	CollectionName string `json:"collectionName"`
	ThumbnailURL   string `json:"thumbnailUrl"`
	UserID         string `json:"userId"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}
