package models

import "time"

type JsonModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SignUpIn struct {
	Name     string `form:"name" validate:"required,max=200"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Gender   string `form:"gender" validate:"required"`

	Height    string `form:"height"`
	Country   string `form:"country"`
	BodyShape string `form:"body_shape"`
	SkinTone  string `form:"skin_tone"`
}

type LoginIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleAuthSignIn struct {
	IdToken  string `json:"id_token" validate:"required"`
	Platform string `json:"platform" validate:"required"`
}

type RefreshTokenIn struct {
	RefreshToken string `json:"refresh_token"`
}

type UserPushIn struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required"`
}

type LoginOut struct {
	Message      string `json:"message"`
	UserID       uint   `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type UserMeOut struct {
	Id        uint    `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Gender    Gender  `json:"gender"`
	BodyShape *string `json:"body_shape"`
	SkinTone  *string `json:"skin_tone"`
	Height    *string `json:"height"`
	Country   *string `json:"country"`
	ImageURL  *string `json:"image_url"`

	AnalysisStatus       string  `json:"analysis_status"`
	AnalysisErrorMessage *string `json:"analysis_error_message"`
}
