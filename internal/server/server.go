package server

import (
	"context"
	"time"

	"github.com/parkinsight/parkinsight/internal/config"
	"github.com/parkinsight/parkinsight/internal/controllers"
	"github.com/parkinsight/parkinsight/internal/middlewares"
	"github.com/parkinsight/parkinsight/internal/version"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type HTTPServerDependencies struct {
	Config              *config.Config
	ScreeningController *controllers.ScreeningController
}

func NewHTTPServer(ctx context.Context, deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName:   "parkinsight",
		BodyLimit: deps.Config.MaxUploadMB * 1024 * 1024,
	})

	// Add basic middleware
	router.Use(cors.New())
	router.Use(logger.New())

	// Health check endpoint (no authentication required)
	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "parkinsight",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Debug route: which Gemini models can serve the video endpoint
	router.Get("/models", deps.ScreeningController.ListModels)

	if deps.Config.APIKey != "" {
		keyMiddleware := middlewares.APIKeyMiddleware(deps.Config.APIKey)
		router.Use("/predict-audio", keyMiddleware)
		router.Use("/predict-video", keyMiddleware)
	}

	router.Post("/predict-audio", deps.ScreeningController.PredictAudio)
	router.Post("/predict-video", deps.ScreeningController.PredictVideo)

	return router
}
