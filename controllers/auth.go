package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/M2YTech/libaas-backend/models"
	"github.com/M2YTech/libaas-backend/services"

	firebase "firebase.google.com/go/v4"
	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuthController struct {
	Google      services.GoogleServiceProvider
	AWSService  services.AWSServiceProvider
	VisionLLM   services.VisionLLMProvider
	FirebaseApp *firebase.App
}

func (m *AuthController) AuthRoutes(g *echo.Group) {
	g.POST("/signup", func(c echo.Context) error {
		signUp := new(models.SignUpIn)
		if err := c.Bind(signUp); err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if err := c.Validate(signUp); err != nil {
			return err
		}
		if len(signUp.Password) < 6 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Password must be at least 6 characters"})
		}
		if !models.ValidateGenderRaw(signUp.Gender) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Gender must be 'male', 'female', or 'other'"})
		}

		db := c.Get("__db").(*gorm.DB)
		var existing models.UserAccount
		r := db.Where("email = ?", signUp.Email).Limit(1).Find(&existing)
		if r.Error != nil {
			sentry.CaptureException(r.Error)
			return echo.ErrInternalServerError
		}
		if r.RowsAffected > 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "User with this email already exists"})
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(signUp.Password), bcrypt.DefaultCost)
		if err != nil {
			sentry.CaptureException(err)
			return echo.ErrInternalServerError
		}

		user := models.UserAccount{
			Name:      signUp.Name,
			Email:     signUp.Email,
			Password:  string(hashed),
			Gender:    models.ScanGender(signUp.Gender),
			Height:    NilString(signUp.Height),
			Country:   NilString(signUp.Country),
			BodyShape: NilString(signUp.BodyShape),
			SkinTone:  NilString(signUp.SkinTone),
			LastIp:    c.RealIP(),
		}

		// The analysis result goes back in the signup response, so the photo
		// pipeline runs inline here instead of through the worker queue.
		var vision *services.VisionResult
		fileHeader, fileErr := c.FormFile("image")
		if fileErr == nil && fileHeader != nil {
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

			bucketName := services.GetEnv("R2_BUCKET_NAME", "")
			objectKey := fmt.Sprintf("profiles/%s.%s", uuid.New().String(), services.ImageExtension(contentType))
			uploadUrl, presignErr := m.AWSService.PresignLink(context.Background(), bucketName, objectKey)
			if presignErr != nil {
				log.Printf("Unable to presign profile photo upload for %s, %s", signUp.Email, presignErr)
				sentry.CaptureException(presignErr)
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error while uploading your photo, please try again"})
			}
			_, status, uploadErr := m.AWSService.UploadToPresignedURL(context.Background(), bucketName, uploadUrl, imageBytes)
			if uploadErr != nil || status != http.StatusOK {
				log.Printf("Profile photo upload failed for %s, status %v, %v", signUp.Email, status, uploadErr)
				sentry.CaptureException(uploadErr)
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error while uploading your photo, please try again"})
			}
			user.ImageURL = &objectKey

			result := analyzeProfilePhoto(c.Request().Context(), m.VisionLLM, imageBytes)
			vision = &result
			encoded, err := json.Marshal(result)
			if err != nil {
				sentry.CaptureException(err)
				return echo.ErrInternalServerError
			}
			user.VisionInsights = datatypes.JSON(encoded)
			if result.Error == "" {
				user.AnalysisStatus = "completed"
			} else {
				user.AnalysisStatus = "failed"
			}
		}

		if err := db.Create(&user).Error; err != nil {
			sentry.CaptureException(err)
			return echo.ErrInternalServerError
		}
		fmt.Println("User signed up: ", user.Email, " ID: ", user.ID)

		return c.JSON(http.StatusCreated, echo.Map{
			"message":       "Signup successful",
			"user_id":       user.ID,
			"clip_insights": vision,
		})
	})

	g.POST("/login", func(c echo.Context) error {
		creds := new(models.LoginIn)
		if err := c.Bind(creds); err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		}
		if err := c.Validate(creds); err != nil {
			return err
		}

		db := c.Get("__db").(*gorm.DB)
		var user models.UserAccount
		r := db.Where("email = ?", creds.Email).Limit(1).Find(&user)
		if r.Error != nil {
			sentry.CaptureException(r.Error)
			return echo.ErrInternalServerError
		}
		if r.RowsAffected == 0 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		}
		if user.Banned {
			return echo.ErrForbidden
		}

		user.LastIp = c.RealIP()
		db.Save(&user)

		refreshToken, err := GenerateRefreshToken(fmt.Sprint(user.ID))
		if err != nil {
			fmt.Println(err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, models.LoginOut{
			Message:      "Login successful",
			UserID:       user.ID,
			Name:         user.Name,
			Email:        user.Email,
			AccessToken:  GenerateUserToken(fmt.Sprint(user.ID), c, 72),
			RefreshToken: refreshToken,
		})
	})

	g.POST("/google-login", func(c echo.Context) error {
		googleCreds := new(models.GoogleAuthSignIn)
		if err := c.Bind(googleCreds); err != nil {
			return err
		}
		if !models.ValidatePlatformRaw(googleCreds.Platform) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Please provide proper platform parameter"})
		}
		if err := c.Validate(googleCreds); err != nil {
			return err
		}

		payload, err := m.Google.ValidateIdToken(context.Background(), googleCreds.IdToken, os.Getenv("GOOGLE_CLIENT_ID"))
		if err != nil {
			fmt.Println(err)
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
		}
		googleEmail, ok := payload.Claims["email"].(string)
		if !ok || googleEmail == "" {
			sentry.CaptureMessage(fmt.Sprintf("Error when fetching user data email %s", payload.Claims))
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Couldn't verify credentials"})
		}
		googleName, _ := payload.Claims["name"].(string)

		db := c.Get("__db").(*gorm.DB)
		var user models.UserAccount
		r := db.Where("email = ?", googleEmail).Limit(1).Find(&user)
		if r.Error != nil {
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "Internal server error"})
		}
		if r.RowsAffected > 0 {
			if user.Banned {
				return echo.ErrForbidden
			}
			if user.Name == "" && googleName != "" {
				user.Name = googleName
			}
			user.LastIp = c.RealIP()
			user.Platform = models.ScanPlatform(googleCreds.Platform)
			db.Save(&user)
		} else {
			user = models.UserAccount{
				Name:     googleName,
				Email:    googleEmail,
				Platform: models.ScanPlatform(googleCreds.Platform),
				LastIp:   c.RealIP(),
			}
			if err := db.Create(&user).Error; err != nil {
				sentry.CaptureException(err)
				return echo.ErrInternalServerError
			}
			fmt.Println("User signed up through Google: ", googleEmail, " ID: ", user.ID)
		}

		refreshToken, err := GenerateRefreshToken(fmt.Sprint(user.ID))
		if err != nil {
			fmt.Println(err)
			return echo.ErrInternalServerError
		}
		return c.JSON(http.StatusOK, models.LoginOut{
			Message:      "Login successful",
			UserID:       user.ID,
			Name:         user.Name,
			Email:        user.Email,
			AccessToken:  GenerateUserToken(fmt.Sprint(user.ID), c, 72),
			RefreshToken: refreshToken,
		})
	})

	g.POST("/refresh-token", func(c echo.Context) error {
		tokenReq := new(models.RefreshTokenIn)
		if err := c.Bind(&tokenReq); err != nil {
			fmt.Println(err)
			return echo.ErrBadRequest
		}
		if tokenReq.RefreshToken == "" {
			fmt.Println("Refresh token is empty")
			return echo.ErrBadRequest
		}
		token, err := jwt.Parse(tokenReq.RefreshToken, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil {
			fmt.Println(err)
			return echo.ErrBadRequest
		}
		if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
			db := c.Get("__db").(*gorm.DB)
			data, converted := claims["sub"].(string)
			if !converted {
				fmt.Println("Cannot convert sub to string!")
				return echo.ErrInternalServerError
			}
			userId, err := strconv.Atoi(data)
			if err != nil {
				fmt.Println("Error parsing sub of the user!!", err)
				return echo.ErrInternalServerError
			}
			if userId < 1 {
				fmt.Println("Refresh: sub is:", userId)
				return echo.ErrBadRequest
			}
			var user *models.UserAccount
			result := db.First(&user, userId)
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				fmt.Println("Requested user not found!", userId)
				return echo.ErrForbidden
			}
			if result.Error != nil {
				fmt.Println("Error getting user while refreshing token", userId)
				return echo.ErrInternalServerError
			}
			if user.Banned {
				return echo.ErrUnauthorized
			}

			rt, err := GenerateRefreshToken(fmt.Sprint(userId))
			if err != nil {
				fmt.Println("Error refreshing token ", err)
				return echo.ErrInternalServerError
			}
			return c.JSON(http.StatusOK, echo.Map{
				"access_token":  GenerateUserToken(fmt.Sprint(userId), c, 72),
				"refresh_token": rt,
			})
		}
		return err
	})

	g.GET("/me", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)

		imageUrl := user.ImageURL
		if user.ImageURL != nil && *user.ImageURL != "" {
			bucketName := services.GetEnv("R2_BUCKET_NAME", "")
			photoR2URL, err := m.AWSService.GetPresignedR2FileReadURL(context.Background(), bucketName, *user.ImageURL)
			if err != nil {
				log.Printf("CRITICAL: R2 profile photo could not fetch for key '%s': %v", *user.ImageURL, err)
				sentry.CaptureException(err)
			}
			imageUrl = &photoR2URL
		}
		return c.JSON(http.StatusOK, models.UserMeOut{
			Id:                   user.ID,
			Name:                 user.Name,
			Email:                user.Email,
			Gender:               user.Gender,
			BodyShape:            user.BodyShape,
			SkinTone:             user.SkinTone,
			Height:               user.Height,
			Country:              user.Country,
			ImageURL:             imageUrl,
			AnalysisStatus:       user.AnalysisStatus,
			AnalysisErrorMessage: user.AnalysisErrorMessage,
		})
	}, echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))), UserMiddleware)

	g.POST("/register-push", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)
		var tokenRequest = new(models.UserPushIn)

		if err := c.Bind(tokenRequest); err != nil {
			return err
		}
		if !models.ValidatePlatformRaw(tokenRequest.Platform) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Please provide proper platform parameter"})
		}
		var pushData models.UserPushToken = models.UserPushToken{
			Platform:      models.ScanPlatform(tokenRequest.Platform),
			Token:         tokenRequest.Token,
			UserAccountID: user.ID,
			Active:        true,
		}

		// same token/device can sign in to diff accs and still receive pushes.
		result := db.Where("token = ? and user_account_id = ?", tokenRequest.Token, user.ID).FirstOrCreate(&pushData)
		if result.Error != nil {
			log.Println(result.Error)
			return echo.ErrInternalServerError
		}
		if result.RowsAffected >= 1 {
			fmt.Println("Token created for user ", user.ID, "Platform: ", tokenRequest.Platform)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message": "registered",
			"push_id": pushData.ID,
		})
	}, echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))), UserMiddleware)

	g.POST("/delete-push", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)
		var tokenRequest = new(models.UserPushIn)

		if err := c.Bind(tokenRequest); err != nil {
			return err
		}
		if !models.ValidatePlatformRaw(tokenRequest.Platform) {
			return c.JSON(http.StatusForbidden, map[string]interface{}{"message": "Please provide proper platform parameter"})
		}

		result := db.Where("token = ? and user_account_id = ? and platform = ?", tokenRequest.Token, user.ID, tokenRequest.Platform).Delete(&models.UserPushToken{})
		if result.Error != nil {
			log.Println(result.Error)
			return echo.ErrInternalServerError
		}
		if result.RowsAffected >= 1 {
			fmt.Println("Token deleted for user ", user.ID, "Platform: ", tokenRequest.Platform)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message": "deleted",
			"deleted": result.RowsAffected > 0,
		})
	}, echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))), UserMiddleware)

	g.POST("/delete-account", func(c echo.Context) error {
		user := c.Get("currentUser").(models.UserAccount)
		db := c.Get("__db").(*gorm.DB)
		now := time.Now()
		user.ConfirmedDeleteDate = &now
		db.Save(&user)
		return c.JSON(http.StatusOK, echo.Map{
			"message": "Account deletion confirmed",
		})
	}, echojwt.JWT([]byte(os.Getenv("JWT_SECRET"))), UserMiddleware)
}

// analyzeProfilePhoto runs the vision model over a profile photo and always
// hands back a usable result, recording the failure inside it instead of
// returning an error.
func analyzeProfilePhoto(ctx context.Context, visionLLM services.VisionLLMProvider, imageBytes []byte) services.VisionResult {
	response, err := visionLLM.AnalyzeImage(ctx, services.VisionSystemPrompt, services.VisionUserPrompt, imageBytes)
	if err != nil {
		fmt.Println("Profile photo analysis failed", err)
		sentry.CaptureException(err)
		return services.VisionResult{
			TopLabel:       "unknown",
			TopConfidence:  0.0,
			AllPredictions: []map[string]interface{}{},
			Source:         services.VisionModel,
			Error:          err.Error(),
		}
	}
	result, ok := services.NormalizeVisionResult(response.Response, response.Model)
	if !ok {
		fmt.Printf("Vision reply was not parseable: %q\n", response.Response)
	}
	return result
}
