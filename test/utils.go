package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/M2YTech/libaas-backend/models"
	"github.com/M2YTech/libaas-backend/services"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

// FakeUserPassword is the plaintext behind every FakeUser password hash.
const FakeUserPassword = "secret123"

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {

	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(userPk string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPk,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		log.Fatalf("Error when signing user token for %s. Error %s ", userPk, err)
	}
	return t
}

func NewJSONAuthRequest(method string, target string, userPk string, param interface{}) *http.Request {
	log.Println(JsonString(param))
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

func NewJSONAuthRequestCustomAuth(method string, target string, authorizationString string, param interface{}) *http.Request {
	log.Println(JsonString(param))
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", authorizationString)
	return req
}

func NewJSONAuthRequestRaw(method string, target string, userPk string, json string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(json))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

// NewFormRequest builds a multipart request with the given form fields and an
// optional file part. Pass nil fileContent to send fields only.
func NewFormRequest(method string, target string, fields map[string]string, fileField string, fileName string, fileContent []byte) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		writer.WriteField(key, value)
	}
	if fileContent != nil {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			log.Fatalf("Error creating file part for %s: %s", fileName, err)
		}
		part.Write(fileContent)
	}
	writer.Close()

	req := httptest.NewRequest(method, target, body)
	req.Header.Add("Content-Type", writer.FormDataContentType())
	req.Header.Add("Accept", "application/json")
	return req
}

func NewFormAuthRequest(method string, target string, userPk string, fields map[string]string, fileField string, fileName string, fileContent []byte) *http.Request {
	req := NewFormRequest(method, target, fields, fileField, fileName, fileContent)
	token := GenerateUserToken(userPk)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))
	return req
}

// TinyPNG is a valid 1x1 PNG, small enough to inline in upload tests.
var TinyPNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89, 0x00, 0x00, 0x00,
	0x0D, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9C, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
}

func NewRefString(data string) *string {
	return &data
}

func Contains(items []string, lookFor string) bool {

	for i := 0; i < len(items); i++ {

		if items[i] == lookFor {
			return true
		}
	}
	return false
}

func FakeUser(db *gorm.DB) *models.UserAccount {
	hash, _ := bcrypt.GenerateFromPassword([]byte(FakeUserPassword), bcrypt.DefaultCost)
	user := &models.UserAccount{
		Name:      "OurName",
		Email:     "email@example.com",
		Password:  string(hash),
		Gender:    models.GenderFemale,
		BodyShape: NewRefString("hourglass"),
		SkinTone:  NewRefString("wheat"),
		Height:    NewRefString("165"),
		Country:   NewRefString("Pakistan"),
		Platform:  models.PlatformIOS,
		LastIp:    "123.122.122.122",
	}
	db.Create(&user)

	tokenDb := models.UserPushToken{
		UserAccountID: user.ID,
		Platform:      "android",
		Token:         "cX-UZ3zwQEiPt-2GJkG2gA:APA91bGqRflaGrJrnynhRwZ442HdgUjVcO7mWMFnx6IwAdJ9RRKopvSP4QU7hbvTmk1XAp8XGvtHZLvo5JmOPTVKBbGqqvhfbZWKlXA9csEjx1hgpNvrWepU-rqG1sxS8_WCF5cGZchf",
		Active:        true,
	}
	db.Save(&tokenDb)
	db.First(&user, user.ID)

	return user
}

func FakeUserV2(db *gorm.DB, userName string, email string) *models.UserAccount {

	if email == "" {
		email = "email@example.com"
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(FakeUserPassword), bcrypt.DefaultCost)
	user := &models.UserAccount{
		Name:     userName,
		Email:    email,
		Password: string(hash),
		Gender:   models.GenderMale,
		Platform: models.PlatformAndroid,
		LastIp:   "123.122.122.122",
	}
	db.Create(&user)
	db.First(&user, user.ID)
	return user
}

func FakeWardrobeItem(db *gorm.DB, ownerID uint, name string, category string) *models.WardrobeItem {
	item := &models.WardrobeItem{
		OwnerID:          ownerID,
		Name:             name,
		Description:      NewRefString("Uploaded item"),
		Category:         category,
		SubCategory:      "item",
		Color:            "navy",
		Style:            "casual",
		Pattern:          "plain",
		Tags:             []string{"uploaded"},
		ImageURL:         NewRefString(fmt.Sprintf("%v/fakeobject.jpg", ownerID)),
		ProcessingStatus: "completed",
	}
	db.Create(&item)
	return item
}

type GoogleServiceMock struct{}

func (gsm GoogleServiceMock) ValidateIdToken(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error) {

	return &idtoken.Payload{Issuer: "Issue", Audience: "AAA", Expires: 119919191919, IssuedAt: 12312321321, Subject: "fake@example.com", Claims: map[string]interface{}{
		"email":   "fake@example.com",
		"picture": "pictureurl",
		"sub":     "123googleid",
	}}, nil

}

type AWSProviderMock struct {
	MockUrl string
}

func (awsService AWSProviderMock) InitPresignClient(ctx context.Context) error {
	return nil
}

func (awsService AWSProviderMock) PresignLink(ctx context.Context, bucketName string, fileName string) (string, error) {

	return fmt.Sprintf("https://fakebucketurl.com/%s", fileName), nil
}

func (awsService AWSProviderMock) GetPresignedR2FileReadURL(ctx context.Context, bucketName, fileKey string) (string, error) {
	return awsService.MockUrl, nil
}

func (awsService AWSProviderMock) UploadToPresignedURL(ctx context.Context, bucketName, url string, fileContent []byte) (string, int, error) {
	// Simulate a successful upload
	return url, 200, nil
}

func (awsService AWSProviderMock) DeleteObject(ctx context.Context, bucketName, fileKey string) error {
	return nil
}

// URLCacheMock resolves every object key to a fake read URL. Set Err to
// exercise the manual R2 fallback path in handlers.
type URLCacheMock struct {
	Err error
}

func (m URLCacheMock) GetReadURL(ctx context.Context, objectKey string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return fmt.Sprintf("https://fakecachedurl.com/%s", objectKey), nil
}

func (m URLCacheMock) Invalidate(ctx context.Context, objectKey string) error {
	return m.Err
}

// ChatLLMMock returns the configured response for every completion. Set Err
// to simulate a provider outage.
type ChatLLMMock struct {
	Response string
	Err      error
}

func (m ChatLLMMock) Complete(ctx context.Context, systemPrompt string, userPrompt string, maxTokens int64) (*services.LLMResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &services.LLMResponse{
		Response:         m.Response,
		Model:            "mock-chat",
		InputTokenCount:  10,
		OutputTokenCount: 13,
		TotalTokenCount:  23,
	}, nil
}

type VisionLLMMock struct {
	Response string
	Err      error
}

func (m VisionLLMMock) AnalyzeImage(ctx context.Context, systemPrompt string, userPrompt string, imageBytes []byte) (*services.LLMResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &services.LLMResponse{
		Response:         m.Response,
		Model:            "mock-vision",
		InputTokenCount:  10,
		OutputTokenCount: 13,
		TotalTokenCount:  23,
	}, nil
}

type TipGeneratorMock struct {
	Response string
	Err      error
}

func (m TipGeneratorMock) GenerateDailyTip(ctx context.Context, gender string, country string, modelName services.LLMModelName) (*services.LLMResponse, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &services.LLMResponse{
		Response:         m.Response,
		Model:            string(modelName),
		InputTokenCount:  10,
		OutputTokenCount: 13,
		TotalTokenCount:  23,
	}, nil
}

// MockInsightsResponse is a well-formed style insights payload for happy paths.
const MockInsightsResponse = `{
	"summary": "You lean towards relaxed silhouettes with warm colors.",
	"color_palette": ["navy", "rust", "cream"],
	"style_recommendations": ["Add one structured blazer", "Try darker denim"],
	"wardrobe_essentials": ["White shirt", "Dark jeans"],
	"fashion_dos": ["Layer with light jackets"],
	"fashion_donts": ["Avoid oversized everything"],
	"cultural_tips": "Lawn suits work well for summer events."
}`

// MockOutfitsResponse carries two complete looks in the provider wire shape.
const MockOutfitsResponse = `{
	"outfits": [
		{
			"title": "Smart Evening",
			"description": "A sharp look for a dinner out.",
			"top": {"item": "Navy blazer", "details": ["Slim cut", "Matte buttons"]},
			"bottom": {"item": "Charcoal trousers", "details": ["Tapered"]},
			"footwear": {"item": "Brown loafers", "details": []},
			"accessories": {"items": ["Leather watch", "Pocket square"]}
		},
		{
			"title": "Weekend Casual",
			"description": "Relaxed and put together.",
			"top": {"item": "White tee", "details": []},
			"layer": {"item": "Denim jacket", "details": ["Light wash"]},
			"bottom": {"item": "Olive chinos", "details": []},
			"footwear": {"item": "White sneakers", "details": []}
		}
	]
}`

// MockVisionResponse is a well-formed profile photo analysis payload.
const MockVisionResponse = `{
	"top_label": "oval face, warm undertone",
	"top_confidence": 0.92,
	"all_predictions": [{"label": "oval face, warm undertone", "confidence": 0.92}]
}`
