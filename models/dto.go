package models

type ProfileUpdateIn struct {
	UserID    string `form:"user_id"`
	Name      string `form:"name"`
	Height    string `form:"height"`
	Country   string `form:"country"`
	BodyShape string `form:"body_shape"`
	SkinTone  string `form:"skin_tone"`
	Gender    string `form:"gender"`
}

type WardrobeUploadIn struct {
	UserID      string `form:"user_id" validate:"required"`
	Name        string `form:"name"`
	Description string `form:"description"`
	Category    string `form:"category"`
	SubCategory string `form:"sub_category"`
	Color       string `form:"color"`
	Style       string `form:"style"`
	Pattern     string `form:"pattern"`
	// comma separated
	Tags string `form:"tags"`
}

type WardrobeUpdateIn struct {
	UserID   string `form:"user_id" validate:"required"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Tags     string `form:"tags"`
}

type OutfitRequestIn struct {
	UserID     string `form:"user_id" validate:"required"`
	EventType  string `form:"event_type"`
	EventVenue string `form:"event_venue"`
	EventTime  string `form:"event_time"`
	Weather    string `form:"weather"`
	Theme      string `form:"theme"`
	NumLooks   int    `form:"num_looks"`
}
