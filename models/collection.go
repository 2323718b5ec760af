package models

type Collection struct {
	JsonModel
	OwnerID string           `gorm:"index;not null" json:"userId"`
	Owner   UserAccount      `json:"-"`
	Name    string           `json:"name"`
	Items   []CollectionItem `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE" json:"items"`
}

// CollectionItem is a snapshot of a wardrobe item taken when the collection
// was created. It outlives the item itself.
type CollectionItem struct {
	ID           uint    `gorm:"primarykey" json:"-"`
	CollectionID string  `gorm:"index;not null" json:"-"`
	Position     int     `json:"-"`
	ClothID      string  `json:"clothId"`
	ImageKey     string  `json:"-"`
	ImageURL     *string `json:"imageUrl"`
	ClothName    string  `json:"clothName"`
	ClothType    string  `json:"clothType"`
}

type CreateCollectionIn struct {
	Name  string   `json:"name" validate:"required,min=1,max=100"`
	Items []string `json:"items" validate:"required,min=1,dive,required"`
}
