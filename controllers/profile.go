package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/M2YTech/libaas-backend/apperrors"
	"github.com/M2YTech/libaas-backend/models"
	"github.com/M2YTech/libaas-backend/services"
	"github.com/M2YTech/libaas-backend/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxProfilePhotoBytes = 5 * 1024 * 1024

type ProfileController struct {
	AWSService services.AWSServiceProvider
	URLCache   services.URLCacheServiceProvider
	ChatLLM    services.ChatLLMProvider
}

func (m *ProfileController) ProfileRoutes(g *echo.Group) {
	g.GET("/profile/:userId", func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		user, err := loadUserByParam(db, c.Param("userId"))
		if err != nil {
			if !apperrors.IsNotFound(err) {
				sentry.CaptureException(err)
			}
			return c.JSON(apperrors.HTTPStatus(err), map[string]string{"error": apperrors.Message(err)})
		}

		imageUrl := ""
		if user.ImageURL != nil && *user.ImageURL != "" {
			imageUrl = resolveReadURL(c.Request().Context(), m.URLCache, m.AWSService, *user.ImageURL)
		}

		return c.JSON(http.StatusOK, echo.Map{
			"id":              user.ID,
			"name":            user.Name,
			"email":           user.Email,
			"gender":          user.Gender,
			"body_shape":      user.BodyShape,
			"skin_tone":       user.SkinTone,
			"height":          user.Height,
			"country":         user.Country,
			"image_url":       imageUrl,
			"created_at":      user.CreatedAt.Format("2006-01-02T15:04:05Z"),
			"analysis_status": user.AnalysisStatus,
			"clip_insights":   user.VisionInsights,
			"style_insights":  user.StyleInsights,
			"recommendations": services.ProfileRecommendations(user),
		})
	})

	g.POST("/update-profile", func(c echo.Context) error {
		in := new(models.ProfileUpdateIn)
		if err := c.Bind(in); err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if in.UserID == "" || in.UserID == "null" || in.UserID == "undefined" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid user_id provided"})
		}

		db := c.Get("__db").(*gorm.DB)
		user, err := loadUserByParam(db, in.UserID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": fmt.Sprintf("User with ID %s not found", in.UserID)})
			}
			sentry.CaptureException(err)
			return c.JSON(apperrors.HTTPStatus(err), map[string]string{"error": apperrors.Message(err)})
		}

		if in.Gender != "" && !models.ValidateGenderRaw(in.Gender) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Gender must be 'male', 'female', or 'other'"})
		}

		updates := map[string]interface{}{}
		if in.Name != "" {
			updates["name"] = in.Name
		}
		if in.Gender != "" {
			updates["gender"] = in.Gender
		}
		if in.Country != "" {
			updates["country"] = in.Country
		}
		if in.Height != "" {
			updates["height"] = in.Height
		}
		if in.BodyShape != "" {
			updates["body_shape"] = in.BodyShape
		}
		if in.SkinTone != "" {
			updates["skin_tone"] = in.SkinTone
		}
		if len(updates) == 0 {
			return c.JSON(http.StatusOK, echo.Map{"message": "No changes to update"})
		}

		if err := db.Model(&user).Updates(updates).Error; err != nil {
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Database update failed - no record was modified"})
		}
		fmt.Printf("[Profile: %v] Updated fields: %v\n", user.ID, updates)

		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": "Profile updated successfully",
			"data":    user,
		})
	})

	g.POST("/update-profile-photo", func(c echo.Context) error {
		userId := c.FormValue("user_id")
		if userId == "" || userId == "null" || userId == "undefined" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid user_id provided"})
		}

		db := c.Get("__db").(*gorm.DB)
		user, err := loadUserByParam(db, userId)
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
			fmt.Println("Cannot open uploaded profile photo", err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read uploaded image"})
		}
		imageBytes, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			fmt.Println("Cannot read uploaded profile photo", err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read uploaded image"})
		}

		contentType := http.DetectContentType(imageBytes)
		if !services.AllowedImageType(contentType) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid image type. Allowed: JPEG, PNG, GIF, WebP"})
		}
		if len(imageBytes) > maxProfilePhotoBytes {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Image size must be less than 5MB"})
		}

		bucketName := services.GetEnv("R2_BUCKET_NAME", "")
		objectKey := fmt.Sprintf("profiles/%s.%s", uuid.New().String(), services.ImageExtension(contentType))
		uploadUrl, presignErr := m.AWSService.PresignLink(context.Background(), bucketName, objectKey)
		if presignErr != nil {
			log.Printf("Unable to presign profile photo upload for user %v, %s", user.ID, presignErr)
			sentry.CaptureException(presignErr)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error while uploading your photo, please try again"})
		}
		_, status, uploadErr := m.AWSService.UploadToPresignedURL(context.Background(), bucketName, uploadUrl, imageBytes)
		if uploadErr != nil || status != http.StatusOK {
			log.Printf("Profile photo upload failed for user %v, status %v, %v", user.ID, status, uploadErr)
			sentry.CaptureException(uploadErr)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error while uploading your photo, please try again"})
		}

		oldKey := user.ImageURL
		user.ImageURL = &objectKey
		user.AnalysisStatus = "pending"
		user.AnalysisRetryTimes = 0
		user.AnalysisErrorMessage = nil
		if err := db.Save(&user).Error; err != nil {
			sentry.CaptureException(err)
			return echo.ErrInternalServerError
		}
		if oldKey != nil && *oldKey != "" {
			if err := m.URLCache.Invalidate(c.Request().Context(), *oldKey); err != nil {
				log.Printf("Could not invalidate cached URL for key '%s': %v", *oldKey, err)
			}
		}

		// Analysis stays "pending" until the worker picks it up, the photo
		// itself is already saved.
		asynqClient, ok := c.Get("__asynqclient").(*asynq.Client)
		if !ok || asynqClient == nil {
			fmt.Println("Service is not available, please try again a bit later")
			sentry.CaptureException(fmt.Errorf("[User %v] Error on getting asynq client from context", user.ID))
		} else {
			task, err := tasks.NewProfileAnalysisTask(user.ID)
			if err != nil {
				sentry.CaptureException(err)
			} else {
				info, err := asynqClient.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("analyze"))
				if err != nil {
					fmt.Println(err)
					sentry.CaptureException(err)
				} else {
					fmt.Println("[Queue] Profile analysis task submitted, User ID: ", user.ID, " Task ID: ", info.ID)
				}
			}
		}

		return c.JSON(http.StatusOK, echo.Map{
			"success":   true,
			"message":   "Profile photo updated successfully",
			"image_url": resolveReadURL(c.Request().Context(), m.URLCache, m.AWSService, objectKey),
		})
	})

	g.GET("/style-insights/:userId", func(c echo.Context) error {
		db := c.Get("__db").(*gorm.DB)
		user, err := loadUserByParam(db, c.Param("userId"))
		if err != nil {
			if !apperrors.IsNotFound(err) {
				sentry.CaptureException(err)
			}
			return c.JSON(apperrors.HTTPStatus(err), map[string]string{"error": apperrors.Message(err)})
		}
		country := "Pakistan"
		if user.Country != nil && *user.Country != "" {
			country = *user.Country
		}
		fmt.Printf("[StyleInsights: %v] Generating insights, Country: %s\n", user.ID, country)

		prompt := services.BuildStyleInsightsPrompt(user)
		response, err := m.ChatLLM.Complete(c.Request().Context(), services.StyleInsightsSystemPrompt, prompt, services.InsightsMaxTokens)
		if err != nil {
			fmt.Printf("[StyleInsights: %v] Provider error: %v\n", user.ID, err)
			sentry.CaptureException(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"success":  false,
				"message":  fmt.Sprintf("Failed to generate style insights: %v", err),
				"insights": services.FallbackStyleInsights(services.InsightsProviderFallbackSummary),
			})
		}
		fmt.Printf("[StyleInsights: %v] LLM IT: %v OT: %v TOT: %v\n", user.ID,
			response.InputTokenCount, response.OutputTokenCount, response.TotalTokenCount)

		insights, malformed, ok := services.NormalizeStyleInsights(response.Response)
		if !ok {
			fmt.Printf("[StyleInsights: %v] Unparseable reply: %q\n", user.ID, response.Response)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"success":  false,
				"message":  "Failed to generate style insights: Failed to generate insights",
				"insights": services.FallbackStyleInsights(services.InsightsParseFallbackSummary),
			})
		}
		if len(malformed) > 0 {
			fmt.Printf("[StyleInsights: %v] Defaulted malformed keys: %v\n", user.ID, malformed)
		}

		encoded, err := json.Marshal(insights)
		if err != nil {
			sentry.CaptureException(err)
			return echo.ErrInternalServerError
		}
		user.StyleInsights = datatypes.JSON(encoded)
		if err := db.Save(&user).Error; err != nil {
			// Persisting is best effort, the generated insights still go back.
			fmt.Printf("[StyleInsights: %v] Failed to save insights: %v\n", user.ID, err)
			sentry.CaptureException(err)
		}

		return c.JSON(http.StatusOK, echo.Map{
			"success":  true,
			"insights": insights,
		})
	})
}

func loadUserByParam(db *gorm.DB, rawId string) (models.UserAccount, error) {
	var user models.UserAccount
	userId, err := strconv.Atoi(rawId)
	if err != nil || userId < 1 {
		return user, apperrors.NotFound("User not found")
	}
	if err := db.Where("ID = ?", userId).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, apperrors.NotFound("User not found")
		}
		return user, apperrors.Storage("Failed to fetch user", err)
	}
	return user, nil
}
