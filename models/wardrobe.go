package models

import "github.com/lib/pq"

type WardrobeItem struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"user_id"`

	Name        string  `json:"name"`
	Description *string `gorm:"type:text" json:"description"`
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category"`
	Color       string  `json:"color"`
	Style       string  `json:"style"`
	Pattern     string  `json:"pattern"`

	Tags pq.StringArray `gorm:"type:text[]" json:"tags"`

	// object key in R2, presigned on read
	ImageURL        *string `json:"image_url"`
	AutoCategorized bool    `gorm:"default:false" json:"auto_categorized"`

	// background cleanup pipeline: idle, pending, completed, failed
	ProcessingStatus    string  `json:"processing_status"`
	ProcessRetryTimes   int     `json:"-"`
	ProcessErrorMessage *string `json:"-"`
}
