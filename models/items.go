package models

import "github.com/lib/pq"

// ClothingItem rows are created by the image-analysis service with the
// attributes already extracted; users may edit them afterwards. The
// recommendation engine only reads them.
type ClothingItem struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`

	Name            string         `json:"name"`
	Type            string         `json:"type"`  // free-text garment kind, e.g. "t-shirt"
	Color           string         `json:"color"`
	Category        string         `json:"category"` // TOP, BOTTOM, SHOES, or anything else
	Style           string         `json:"style"`
	Characteristics pq.StringArray `gorm:"type:text[]" json:"characteristics"`
	Season          pq.StringArray `gorm:"type:text[]" json:"season"`
	State           string         `json:"state"` // condition, e.g. "new"
	ImageURL        *string        `json:"image_url"`

	ForSale bool     `gorm:"default:false" json:"for_sale"`
	Price   *float64 `json:"price"`
}
