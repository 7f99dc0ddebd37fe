package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/M2YTech/libaas-backend/apperrors"
	"github.com/M2YTech/libaas-backend/models"
	"github.com/M2YTech/libaas-backend/services"
	"github.com/M2YTech/libaas-backend/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type WardrobeItemResponse struct {
	ID               uint     `json:"id"`
	UserID           uint     `json:"user_id"`
	Name             string   `json:"name"`
	Description      *string  `json:"description"`
	Category         string   `json:"category"`
	SubCategory      string   `json:"sub_category"`
	Color            string   `json:"color"`
	Style            string   `json:"style"`
	Pattern          string   `json:"pattern"`
	Tags             []string `json:"tags"`
	ImageURL         string   `json:"image_url"`
	AutoCategorized  bool     `json:"auto_categorized"`
	ProcessingStatus string   `json:"processing_status"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

type WardrobeController struct {
	AWSService services.AWSServiceProvider
	URLCache   services.URLCacheServiceProvider
	ChatLLM    services.ChatLLMProvider
}

func (controller *WardrobeController) WardrobeRoutes(g *echo.Group) {
	g.POST("/upload", controller.UploadItem)
	g.GET("/items/:userId", controller.ListItems)
	g.DELETE("/items/:itemId", controller.DeleteItem)
	g.PATCH("/items/:itemId", controller.UpdateItem)
	g.POST("/generate-outfit-recommendations", controller.GenerateOutfitRecommendations)
	g.POST("/generate-looks", controller.GenerateLooks)
	g.POST("/recategorize/:userId", controller.RecategorizeItems)
}

func (controller *WardrobeController) UploadItem(c echo.Context) error {
	in := new(models.WardrobeUploadIn)
	if err := c.Bind(in); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(in); err != nil {
		return err
	}

	db := c.Get("__db").(*gorm.DB)
	user, err := loadUserByParam(db, in.UserID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			sentry.CaptureException(err)
		}
		return c.JSON(apperrors.HTTPStatus(err), map[string]string{"error": apperrors.Message(err)})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Image file is required"})
	}
	src, err := fileHeader.Open()
	if err != nil {
		fmt.Println("Cannot open uploaded wardrobe image", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read uploaded image"})
	}
	imageBytes, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		fmt.Println("Cannot read uploaded wardrobe image", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read uploaded image"})
	}
	if !strings.HasPrefix(http.DetectContentType(imageBytes), "image/") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "File must be an image"})
	}

	ext := "jpg"
	if idx := strings.LastIndex(fileHeader.Filename, "."); idx >= 0 && idx < len(fileHeader.Filename)-1 {
		ext = strings.ToLower(fileHeader.Filename[idx+1:])
	}
	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	objectKey := fmt.Sprintf("%v/%s.%s", user.ID, uuid.New().String(), ext)

	uploadUrl, presignErr := controller.AWSService.PresignLink(context.Background(), bucketName, objectKey)
	if presignErr != nil {
		log.Printf("Unable to presign wardrobe upload for user %v, %s", user.ID, presignErr)
		sentry.CaptureException(presignErr)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error while uploading your item, please try again"})
	}
	_, status, uploadErr := controller.AWSService.UploadToPresignedURL(context.Background(), bucketName, uploadUrl, imageBytes)
	if uploadErr != nil || status != http.StatusOK {
		log.Printf("Wardrobe image upload failed for user %v, status %v, %v", user.ID, status, uploadErr)
		sentry.CaptureException(uploadErr)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error while uploading your item, please try again"})
	}

	tags := pq.StringArray{"uploaded"}
	if in.Tags != "" {
		tags = pq.StringArray{}
		for _, tag := range strings.Split(in.Tags, ",") {
			tags = append(tags, strings.TrimSpace(tag))
		}
	}
	item := models.WardrobeItem{
		OwnerID:          user.ID,
		Name:             defaultIfEmpty(in.Name, "New Item"),
		Description:      StrPointer(defaultIfEmpty(in.Description, "Uploaded item")),
		Category:         defaultIfEmpty(in.Category, "Uncategorized"),
		SubCategory:      defaultIfEmpty(in.SubCategory, "item"),
		Color:            defaultIfEmpty(in.Color, "unknown"),
		Style:            defaultIfEmpty(in.Style, "casual"),
		Pattern:          defaultIfEmpty(in.Pattern, "plain"),
		Tags:             tags,
		ImageURL:         &objectKey,
		ProcessingStatus: "pending",
	}
	if err := db.Create(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create wardrobe item"})
	}

	// The item is already saved, background processing is not worth failing
	// the upload over.
	asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
	if !ok || asynqClient == nil {
		fmt.Println("Service is not available, please try again a bit later")
		sentry.CaptureException(fmt.Errorf("[Wardrobe %v] Error on getting asynq client from context", item.ID))
	} else {
		task, err := tasks.NewWardrobeImageTask(item.ID)
		if err != nil {
			sentry.CaptureException(err)
		} else {
			info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("process"))
			if err != nil {
				fmt.Println(err)
				sentry.CaptureException(err)
			} else {
				fmt.Println("[Queue] Process wardrobe image task submitted, Item ID: ", item.ID, " Task ID: ", info.ID)
			}
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"item":    controller.itemResponse(item, resolveReadURL(c.Request().Context(), controller.URLCache, controller.AWSService, objectKey)),
		"message": "Item uploaded successfully!",
	})
}

func (controller *WardrobeController) ListItems(c echo.Context) error {
	db := c.Get("__db").(*gorm.DB)

	userId, err := strconv.Atoi(c.Param("userId"))
	if err != nil || userId < 1 {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "count": 0, "items": []WardrobeItemResponse{}})
	}

	var items []models.WardrobeItem
	if err := db.Where("owner_id = ?", userId).Order("created_at desc").Find(&items).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch wardrobe"})
	}

	responses := controller.populatePresignedItemImages(c.Request().Context(), items)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   len(responses),
		"items":   responses,
	})
}

func (controller *WardrobeController) DeleteItem(c echo.Context) error {
	db := c.Get("__db").(*gorm.DB)

	item, err := loadOwnedItem(db, c.Param("itemId"), c.QueryParam("user_id"))
	if err != nil {
		if !apperrors.IsNotFound(err) {
			sentry.CaptureException(err)
		}
		return c.JSON(apperrors.HTTPStatus(err), map[string]string{"error": apperrors.Message(err)})
	}

	if item.ImageURL != nil && *item.ImageURL != "" {
		bucketName := services.GetEnv("R2_BUCKET_NAME", "")
		if err := controller.AWSService.DeleteObject(context.Background(), bucketName, *item.ImageURL); err != nil {
			// Orphaned object, record is still removed.
			log.Printf("Could not delete R2 object '%s': %v", *item.ImageURL, err)
			sentry.CaptureException(err)
		}
		if err := controller.URLCache.Invalidate(c.Request().Context(), *item.ImageURL); err != nil {
			log.Printf("Could not invalidate cached URL for key '%s': %v", *item.ImageURL, err)
		}
	}
	if err := db.Delete(&item).Error; err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete item"})
	}
	fmt.Println("Wardrobe item deleted, ID: ", item.ID, " Owner: ", item.OwnerID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Item deleted successfully",
	})
}

func (controller *WardrobeController) UpdateItem(c echo.Context) error {
	in := new(models.WardrobeUpdateIn)
	if err := c.Bind(in); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(in); err != nil {
		return err
	}

	db := c.Get("__db").(*gorm.DB)
	item, err := loadOwnedItem(db, c.Param("itemId"), in.UserID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			sentry.CaptureException(err)
		}
		return c.JSON(apperrors.HTTPStatus(err), map[string]string{"error": apperrors.Message(err)})
	}

	updates := map[string]interface{}{}
	if in.Name != "" {
		updates["name"] = in.Name
	}
	if in.Category != "" {
		updates["category"] = in.Category
	}
	if in.Tags != "" {
		tags := pq.StringArray{}
		for _, tag := range strings.Split(in.Tags, ",") {
			tags = append(tags, strings.TrimSpace(tag))
		}
		updates["tags"] = tags
	}
	if len(updates) > 0 {
		if err := db.Model(&item).Updates(updates).Error; err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update item"})
		}
	}

	imageUrl := ""
	if item.ImageURL != nil && *item.ImageURL != "" {
		imageUrl = resolveReadURL(c.Request().Context(), controller.URLCache, controller.AWSService, *item.ImageURL)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"item":    controller.itemResponse(item, imageUrl),
		"message": "Item updated successfully",
	})
}

func (controller *WardrobeController) GenerateOutfitRecommendations(c echo.Context) error {
	in := new(models.OutfitRequestIn)
	if err := c.Bind(in); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(in); err != nil {
		return err
	}
	if in.NumLooks <= 0 {
		in.NumLooks = 3
	}

	db := c.Get("__db").(*gorm.DB)
	user, err := loadUserByParam(db, in.UserID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			sentry.CaptureException(err)
		}
		return c.JSON(apperrors.HTTPStatus(err), map[string]string{"error": apperrors.Message(err)})
	}
	fmt.Printf("[OutfitRec: %v] Generating %d looks, Event: %s at %s, %s, Weather: %s, Theme: %s\n",
		user.ID, in.NumLooks, in.EventType, in.EventVenue, in.EventTime, in.Weather, in.Theme)

	prompt := services.BuildOutfitPrompt(user, *in)
	response, err := controller.ChatLLM.Complete(c.Request().Context(), services.OutfitSystemPrompt, prompt, services.OutfitMaxTokens)
	if err != nil {
		fmt.Printf("[OutfitRec: %v] Provider error: %v\n", user.ID, err)
		sentry.CaptureException(err)
		return controller.fallbackRecommendations(c, db, user, in, fmt.Sprintf("Failed to generate outfit recommendations: %v", err))
	}
	fmt.Printf("[OutfitRec: %v] LLM IT: %v OT: %v TOT: %v\n", user.ID,
		response.InputTokenCount, response.OutputTokenCount, response.TotalTokenCount)

	looks, ok := services.NormalizeOutfits(response.Response, user)
	if !ok {
		fmt.Printf("[OutfitRec: %v] Unparseable reply: %q\n", user.ID, response.Response)
		return controller.fallbackRecommendations(c, db, user, in, "Failed to generate outfit recommendations: Failed to parse AI response")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"recommendations": looks,
		"event_details":   eventDetails(in),
	})
}

// fallbackRecommendations answers a failed generation with deterministic looks
// built from the user's own wardrobe, flagged success false.
func (controller *WardrobeController) fallbackRecommendations(c echo.Context, db *gorm.DB, user models.UserAccount, in *models.OutfitRequestIn, message string) error {
	var items []models.WardrobeItem
	if err := db.Where("owner_id = ?", user.ID).Find(&items).Error; err != nil {
		sentry.CaptureException(err)
		items = nil
	}
	looks := services.BuildFallbackLooks(user, items, in.EventType, in.NumLooks)
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success":         false,
		"message":         message,
		"recommendations": looks,
		"event_details":   eventDetails(in),
	})
}

func (controller *WardrobeController) GenerateLooks(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": false,
		"message": "AI Virtual Try-On is coming soon (Disabled for optimization).",
	})
}

func (controller *WardrobeController) RecategorizeItems(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": false,
		"message": "AI Auto-categorization is disabled in this deployment.",
	})
}

// populatePresignedItemImages enriches raw wardrobe records with presigned
// URLs concurrently, with a direct R2 failsafe when the cache system fails.
func (controller *WardrobeController) populatePresignedItemImages(ctx context.Context, items []models.WardrobeItem) []WardrobeItemResponse {
	if len(items) == 0 {
		return []WardrobeItemResponse{}
	}

	var wg sync.WaitGroup
	responses := make([]WardrobeItemResponse, len(items))

	for i, wardrobeItem := range items {
		wg.Add(1)
		go func(index int, item models.WardrobeItem) {
			defer wg.Done()

			var imageUrl string
			if item.ImageURL != nil && *item.ImageURL != "" {
				imageUrl = resolveReadURL(ctx, controller.URLCache, controller.AWSService, *item.ImageURL)
			}
			responses[index] = controller.itemResponse(item, imageUrl)
		}(i, wardrobeItem)
	}

	wg.Wait()
	return responses
}

func (controller *WardrobeController) itemResponse(item models.WardrobeItem, imageUrl string) WardrobeItemResponse {
	return WardrobeItemResponse{
		ID:               item.ID,
		UserID:           item.OwnerID,
		Name:             item.Name,
		Description:      item.Description,
		Category:         item.Category,
		SubCategory:      item.SubCategory,
		Color:            item.Color,
		Style:            item.Style,
		Pattern:          item.Pattern,
		Tags:             item.Tags,
		ImageURL:         imageUrl,
		AutoCategorized:  item.AutoCategorized,
		ProcessingStatus: item.ProcessingStatus,
		CreatedAt:        item.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:        item.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// resolveReadURL goes through the URL cache first and falls back to a direct
// presign when the cache system itself fails.
func resolveReadURL(ctx context.Context, urlCache services.URLCacheServiceProvider, awsService services.AWSServiceProvider, objectKey string) string {
	url, err := urlCache.GetReadURL(ctx, objectKey)
	if err == nil {
		return url
	}
	log.Printf("CACHE WARNING: Cache system failed for key '%s': %v. Triggering manual R2 fallback.", objectKey, err)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("failure_type", "cache_system")
		scope.SetExtra("objectKey", objectKey)
		sentry.CaptureException(err)
	})

	bucketName := services.GetEnv("R2_BUCKET_NAME", "")
	fallbackUrl, fallbackErr := awsService.GetPresignedR2FileReadURL(ctx, bucketName, objectKey)
	if fallbackErr != nil {
		log.Printf("CRITICAL: Manual R2 fallback also failed for key '%s': %v", objectKey, fallbackErr)
		sentry.CaptureException(fallbackErr)
		return ""
	}
	return fallbackUrl
}

func loadOwnedItem(db *gorm.DB, rawItemId string, rawUserId string) (models.WardrobeItem, error) {
	var item models.WardrobeItem
	itemId, err := strconv.Atoi(rawItemId)
	if err != nil || itemId < 1 {
		return item, apperrors.NotFound("Item not found")
	}
	userId, err := strconv.Atoi(rawUserId)
	if err != nil || userId < 1 {
		return item, apperrors.NotFound("Item not found")
	}
	if err := db.Where("id = ? and owner_id = ?", itemId, userId).Take(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return item, apperrors.NotFound("Item not found")
		}
		return item, apperrors.Storage("Failed to fetch item", err)
	}
	return item, nil
}

func defaultIfEmpty(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func eventDetails(in *models.OutfitRequestIn) echo.Map {
	return echo.Map{
		"type":    in.EventType,
		"venue":   in.EventVenue,
		"time":    in.EventTime,
		"weather": in.Weather,
		"theme":   in.Theme,
	}
}
