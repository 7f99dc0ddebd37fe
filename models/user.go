package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserAccount struct {
	JsonModel
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique"`
	Password string `json:"-"`
	Banned   bool   `gorm:"default:false" json:"-"`
	LastIp   string `json:"-"`

	Gender    Gender  `sql:"type:ENUM('male', 'female', 'other')" json:"gender"`
	BodyShape *string `json:"body_shape"`
	SkinTone  *string `json:"skin_tone"`
	Height    *string `json:"height"`
	Country   *string `json:"country"`

	Platform Platform `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`

	// profile photo object key in R2, presigned on read
	ImageURL *string `json:"image_url"`

	// vision analysis of the profile photo
	VisionInsights datatypes.JSON `gorm:"type:jsonb" json:"clip_insights"`
	// last generated style insights, overwritten on each generation
	StyleInsights datatypes.JSON `gorm:"type:jsonb" json:"style_insights"`

	//"pending", "completed", "failed"
	AnalysisStatus       string  `json:"analysis_status"`
	AnalysisRetryTimes   int     `json:"-"`
	AnalysisErrorMessage *string `json:"-"`

	ConfirmedDeleteDate *time.Time `json:"-"`
}

type UserPushToken struct {
	JsonModel
	UserAccountID uint
	UserAccount   UserAccount `json:"user_account"`
	Platform      Platform    `sql:"type:ENUM('ios', 'android', 'web')" json:"platform"`
	Token         string      `json:"token"`
	Active        bool        `gorm:"default:false" json:"-"`
}
