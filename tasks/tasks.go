package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/M2YTech/libaas-backend/models"
	"github.com/M2YTech/libaas-backend/services"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TypeAnalyzeProfilePhoto  = "analyze:profilephoto"
	TypeProcessWardrobeImage = "process:wardrobeimage"
	TypeNotifyStyleTip       = "notify:styletip"
)

type ProfileAnalysisPayload struct {
	UserID uint `json:"user_id"`
}

type WardrobeImagePayload struct {
	ItemID uint `json:"item_id"`
}

func NewProfileAnalysisTask(userID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(ProfileAnalysisPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAnalyzeProfilePhoto, payload), nil
}

func NewWardrobeImageTask(itemID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(WardrobeImagePayload{ItemID: itemID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeProcessWardrobeImage, payload), nil
}

// NewStyleTipFanoutTask carries no payload, the handler walks all users.
func NewStyleTipFanoutTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeNotifyStyleTip, nil), nil
}

func downloadObject(awsService services.AWSServiceProvider, objectKey string, tag string) ([]byte, error) {
	bucketName := os.Getenv("R2_BUCKET_NAME")
	fmt.Printf("[%s] Request presigned download url.. ", tag)
	fileUrl, err := awsService.GetPresignedR2FileReadURL(context.TODO(), bucketName, objectKey)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[%s] Error on getting presigned URL for file %s", tag, objectKey))
		return nil, err
	}
	fmt.Printf("Downloading... %s\n", fileUrl)
	fileBytes, err := services.ReadFileFromUrl(fileUrl)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[%s] Error on downloading file %s: %v", tag, objectKey, err))
		return nil, err
	}
	return fileBytes, nil
}

// HandleAnalyzeProfilePhotoTask runs the vision pipeline over the user's
// profile photo and persists the normalized result.
func HandleAnalyzeProfilePhotoTask(
	ctx context.Context, t *asynq.Task, db *gorm.DB, visionLLM services.VisionLLMProvider,
	awsService services.AWSServiceProvider, fbApp *firebase.App) error {
	var payload ProfileAnalysisPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	fmt.Printf("[User: %v] Start photo analysis\n", payload.UserID)
	var user models.UserAccount
	res := db.First(&user, payload.UserID)
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving user for photo analysis %v", payload.UserID))
		return res.Error
	}
	if user.ImageURL == nil {
		saveAnalysisFail(db, user, "No profile photo to analyze", false)
		return nil
	}

	tag := fmt.Sprintf("User: %v", payload.UserID)
	fileBytes, err := downloadObject(awsService, *user.ImageURL, tag)
	if err != nil {
		saveAnalysisFail(db, user, "Failed to read profile photo, please upload it again", true)
		return err
	}
	fmt.Printf("[User: %v] Downloaded photo size: %d bytes\n", payload.UserID, len(fileBytes))

	visionResponse, err := visionLLM.AnalyzeImage(ctx, services.VisionSystemPrompt, services.VisionUserPrompt, fileBytes)
	if err != nil {
		saveAnalysisFail(db, user, "Failed to analyze profile photo, please try again later", true)
		sentry.CaptureException(fmt.Errorf("[User: %v] Error on analyzing profile photo %s: %v", payload.UserID, *user.ImageURL, err))
		return err
	}
	fmt.Printf("[User: %v] LLM Processed: %q, IT: %d, OT: %d, TOT: %d\n", payload.UserID, visionResponse.Response, visionResponse.InputTokenCount, visionResponse.OutputTokenCount, visionResponse.TotalTokenCount)

	result, ok := services.NormalizeVisionResult(visionResponse.Response, visionResponse.Model)
	if !ok {
		saveAnalysisFail(db, user, "Failed to parse analysis result, please try again later", true)
		sentry.CaptureException(fmt.Errorf("[User: %v] Error on parsing vision %s reply %s", payload.UserID, visionResponse.Model, visionResponse.Response))
		return fmt.Errorf("[User: %v] unparseable vision reply", payload.UserID)
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[User: %v] Error on dumping vision result: %v", payload.UserID, err))
		return err
	}
	user.VisionInsights = datatypes.JSON(encoded)
	user.AnalysisStatus = "completed"
	user.AnalysisErrorMessage = nil
	tx := db.Save(&user)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on saving user after analysis %v", payload.UserID))
		return tx.Error
	}
	fmt.Printf("[User: %v] Photo analysis finished succesfully..\n", payload.UserID)
	services.SendNotification(fbApp, db, user.ID, "Style profile ready", "Your profile photo analysis is complete", map[string]string{"type": "profile_analyzed"})
	return nil
}

func saveAnalysisFail(db *gorm.DB, user models.UserAccount, msg string, shouldRetry bool) error {
	user.AnalysisRetryTimes = user.AnalysisRetryTimes + 1
	user.AnalysisErrorMessage = services.StrPointer(msg)
	if !shouldRetry || user.AnalysisRetryTimes >= 3 {
		user.AnalysisStatus = "failed"
		fallback := services.VisionResult{
			TopLabel:       "unknown",
			TopConfidence:  0.0,
			AllPredictions: []map[string]interface{}{},
			Error:          msg,
		}
		if encoded, err := json.Marshal(fallback); err == nil {
			user.VisionInsights = datatypes.JSON(encoded)
		}
	}
	tx := db.Save(&user)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Fail User %v] Error on saving user for failed analysis", user.ID))
		return tx.Error
	}
	return nil
}

// HandleProcessWardrobeImageTask cleans up an uploaded wardrobe photo and
// replaces the stored object in place. Formats the decoder cannot handle
// are kept as uploaded.
func HandleProcessWardrobeImageTask(ctx context.Context, t *asynq.Task, db *gorm.DB, awsService services.AWSServiceProvider) error {
	var payload WardrobeImagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	fmt.Printf("[Item: %v] Start image processing\n", payload.ItemID)
	var item models.WardrobeItem
	res := db.First(&item, payload.ItemID)
	if res.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on retrieving wardrobe item for processing %v", payload.ItemID))
		return res.Error
	}
	if item.ProcessingStatus == "completed" {
		fmt.Printf("[Item: %v] Image already processed\n", payload.ItemID)
		return nil
	}
	if item.ImageURL == nil {
		saveWardrobeProcessFail(db, item, "No image to process", false)
		return nil
	}

	tag := fmt.Sprintf("Item: %v", payload.ItemID)
	fileBytes, err := downloadObject(awsService, *item.ImageURL, tag)
	if err != nil {
		saveWardrobeProcessFail(db, item, "Failed to read item image, please upload it again", true)
		return err
	}

	processed, err := services.PrepareCatalogImage(fileBytes)
	if err != nil {
		fmt.Printf("[Item: %v] Cannot decode image, keeping original: %v\n", payload.ItemID, err)
		item.ProcessingStatus = "completed"
		item.ProcessErrorMessage = nil
		return db.Save(&item).Error
	}

	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	uploadUrl, presignErr := awsService.PresignLink(context.Background(), bucketName, *item.ImageURL)
	if presignErr != nil {
		fmt.Printf("[Item: %v] Unable to create presign link for %s: %v\n", payload.ItemID, *item.ImageURL, presignErr)
		sentry.CaptureException(presignErr)
		saveWardrobeProcessFail(db, item, "Failed to store processed image, please try again later", true)
		return presignErr
	}
	respBody, statusCode, err := awsService.UploadToPresignedURL(context.Background(), bucketName, uploadUrl, processed)
	fmt.Printf("[Item: %v] R2 Upload file size %v, response body: %s, status code: %d\n", payload.ItemID, len(processed), respBody, statusCode)
	if err != nil || statusCode != 200 {
		fmt.Printf("[Item: %v] Error on uploading processed image %s: %v\n", payload.ItemID, *item.ImageURL, err)
		sentry.CaptureException(err)
		saveWardrobeProcessFail(db, item, "Failed to store processed image, please try again later", true)
		return fmt.Errorf("[Item: %v] upload failed with status %d: %v", payload.ItemID, statusCode, err)
	}

	item.ProcessingStatus = "completed"
	item.ProcessErrorMessage = nil
	tx := db.Save(&item)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on saving wardrobe item %v", payload.ItemID))
		return tx.Error
	}
	fmt.Printf("[Item: %v] Image processing finished succesfully..\n", payload.ItemID)
	return nil
}

func saveWardrobeProcessFail(db *gorm.DB, item models.WardrobeItem, msg string, shouldRetry bool) error {
	item.ProcessRetryTimes = item.ProcessRetryTimes + 1
	item.ProcessErrorMessage = services.StrPointer(msg)
	if !shouldRetry || item.ProcessRetryTimes >= 3 {
		item.ProcessingStatus = "failed"
	}
	tx := db.Save(&item)
	if tx.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Fail Item %v] Error on saving wardrobe item for failed status", item.ID))
		return tx.Error
	}
	return nil
}

// HandleStyleTipFanoutTask sends the daily style tip to every eligible user.
func HandleStyleTipFanoutTask(ctx context.Context, t *asynq.Task, db *gorm.DB, tipService services.StyleTipGenerator, fbApp *firebase.App) error {
	fmt.Printf("[Style Tip] Processing for all users\n")

	var users []models.UserAccount
	result := db.Where("banned = ?", false).Find(&users)
	if result.Error != nil {
		sentry.CaptureException(fmt.Errorf("[Style Tip] Error fetching users: %v", result.Error))
		return result.Error
	}

	fmt.Printf("[Style Tip] Found %d users to send notifications\n", len(users))

	for _, user := range users {
		err := sendStyleTipToUser(ctx, db, tipService, fbApp, user)
		if err != nil {
			fmt.Printf("[Style Tip] Failed to send to user %d: %v\n", user.ID, err)
			sentry.CaptureException(fmt.Errorf("[Style Tip] Failed to send to user %d: %v", user.ID, err))
			continue
		}
		time.Sleep(1 * time.Second) // To avoid hitting rate limits
	}

	return nil
}

func sendStyleTipToUser(ctx context.Context, db *gorm.DB, tipService services.StyleTipGenerator, fbApp *firebase.App, user models.UserAccount) error {
	if len(user.StyleInsights) == 0 {
		fmt.Printf("[Style Tip] User %d has no insights yet, skipping\n", user.ID)
		return nil
	}
	var tokenCount int64
	countResult := db.Model(models.UserPushToken{}).Where(
		"user_account_id = ? and active = true", user.ID,
	).Count(&tokenCount)
	if countResult.Error != nil {
		return fmt.Errorf("error counting push tokens: %v", countResult.Error)
	}
	if tokenCount == 0 {
		return nil
	}

	gender := string(user.Gender)
	if gender == "" {
		gender = "anyone"
	}
	country := "Pakistan"
	if user.Country != nil && *user.Country != "" {
		country = *user.Country
	}

	tipResponse, err := tipService.GenerateDailyTip(ctx, gender, country, services.FlashLite25)
	if err != nil {
		return err
	}
	tip := tipResponse.Response
	if tip == "" {
		return fmt.Errorf("empty style tip for user %d", user.ID)
	}

	// Limit message length for notifications
	if len(tip) > 150 {
		tip = tip[:147] + "..."
	}

	fmt.Println("[Style Tip] Sending notification to user", user.ID)
	services.SendNotification(fbApp, db, user.ID, "Today's Style Tip", tip, map[string]string{"type": "style_tip"})
	return nil
}
