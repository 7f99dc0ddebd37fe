package controllers

import (
	"context"
	"log"
	"net/http"

	"github.com/M2YTech/libaas-backend/models"
	"github.com/M2YTech/libaas-backend/services"

	firebase "firebase.google.com/go/v4"
	"github.com/go-playground/validator"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		// Optionally, you could return the error to give each route more control over the status code
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func SetupServer(
	db *gorm.DB,
	chatLLM services.ChatLLMProvider,
	visionLLM services.VisionLLMProvider,
	googleService services.GoogleServiceProvider,
	awsService services.AWSServiceProvider,
	firebaseApp *firebase.App,
	asynqClient *asynq.Client,
	urlCache services.URLCacheServiceProvider,
) *echo.Echo {

	err := awsService.InitPresignClient(context.Background())
	if err != nil {
		log.Fatal("Failed to initialize AWS provider: S3")
	}

	e := echo.New()
	v := validator.New()
	v.RegisterValidation("platform", models.ValidatePlatform)
	v.RegisterValidation("gender", models.ValidateGender)
	e.Validator = &CustomValidator{validator: v}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("__db", db)
			c.Set("__asynqclient", asynqClient)
			return next(c)
		}
	})

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"message": "Welcome to LibaasAI API",
			"docs":    "/docs",
			"health":  "ok",
		})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status":  "healthy",
			"service": "libaas-ai-backend",
		})
	})

	authGroup := e.Group("/auth")

	authController := AuthController{
		Google:      googleService,
		AWSService:  awsService,
		VisionLLM:   visionLLM,
		FirebaseApp: firebaseApp,
	}
	authController.AuthRoutes(authGroup)

	profileController := ProfileController{
		AWSService: awsService,
		URLCache:   urlCache,
		ChatLLM:    chatLLM,
	}
	profileController.ProfileRoutes(authGroup)

	wardrobeController := WardrobeController{
		AWSService: awsService,
		URLCache:   urlCache,
		ChatLLM:    chatLLM,
	}
	wardrobeGroup := e.Group("/wardrobe")
	wardrobeController.WardrobeRoutes(wardrobeGroup)

	return e
}
