package controllers

import (
	"context"
	"errors"
	"io"

	"github.com/parkinsight/parkinsight/internal/gait"
	"github.com/parkinsight/parkinsight/internal/voice"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// VoiceClassifier screens a WAV stream for Parkinson's indicators
type VoiceClassifier interface {
	Classify(r io.ReadSeeker) (*voice.Result, error)
}

// GaitAnalyzer produces a structured assessment of a gait video
type GaitAnalyzer interface {
	Analyze(ctx context.Context, video []byte, mimeType string) (*gait.Analysis, error)
	ListModels(ctx context.Context) ([]string, error)
}

// ScreeningController handles the voice and gait screening endpoints
type ScreeningController struct {
	classifier VoiceClassifier
	analyzer   GaitAnalyzer
}

type ScreeningControllerDependencies struct {
	Classifier VoiceClassifier
	Analyzer   GaitAnalyzer
}

func NewScreeningController(deps ScreeningControllerDependencies) *ScreeningController {
	return &ScreeningController{
		classifier: deps.Classifier,
		analyzer:   deps.Analyzer,
	}
}

// PredictAudio classifies an uploaded WAV recording
func (c *ScreeningController) PredictAudio(ctx fiber.Ctx) error {
	requestID := uuid.New().String()

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "No file uploaded in form field 'file'")
	}
	if fileHeader.Size == 0 {
		return errorResponse(ctx, fiber.StatusBadRequest, "Uploaded file is empty")
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("Failed to open uploaded audio")
		return errorResponse(ctx, fiber.StatusBadRequest, "Failed to read uploaded file")
	}
	defer file.Close()

	result, err := c.classifier.Classify(file)
	if err != nil {
		if errors.Is(err, voice.ErrInvalidAudio) {
			return errorResponse(ctx, fiber.StatusBadRequest, "File is not a valid WAV recording")
		}
		if errors.Is(err, voice.ErrAudioTooShort) {
			return errorResponse(ctx, fiber.StatusBadRequest, "Recording is too short to analyze")
		}
		log.Error().Err(err).Str("request_id", requestID).Msg("Voice classification failed")
		return errorResponse(ctx, fiber.StatusInternalServerError, "Prediction failed")
	}

	log.Info().
		Str("request_id", requestID).
		Str("prediction", result.Prediction).
		Float64("confidence", result.Confidence).
		Msg("Voice screening complete")

	return ctx.JSON(fiber.Map{
		"status":     "ok",
		"prediction": result.Prediction,
		"confidence": result.Confidence,
	})
}

// PredictVideo forwards an uploaded gait video to Gemini for analysis
func (c *ScreeningController) PredictVideo(ctx fiber.Ctx) error {
	requestID := uuid.New().String()

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return errorResponse(ctx, fiber.StatusBadRequest, "No file uploaded in form field 'file'")
	}
	if fileHeader.Size == 0 {
		return errorResponse(ctx, fiber.StatusBadRequest, "Uploaded file is empty")
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("Failed to open uploaded video")
		return errorResponse(ctx, fiber.StatusBadRequest, "Failed to read uploaded file")
	}
	defer file.Close()

	video, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("Failed to read uploaded video")
		return errorResponse(ctx, fiber.StatusBadRequest, "Failed to read uploaded file")
	}

	mimeType := fileHeader.Header.Get("Content-Type")

	log.Info().
		Str("request_id", requestID).
		Str("filename", fileHeader.Filename).
		Int("size_bytes", len(video)).
		Msg("Starting gait video analysis")

	analysis, err := c.analyzer.Analyze(ctx.RequestCtx(), video, mimeType)
	if err != nil {
		if errors.Is(err, gait.ErrExhausted) {
			return errorResponse(ctx, fiber.StatusServiceUnavailable, "Server is busy. Please try again in 1 minute.")
		}
		log.Error().Err(err).Str("request_id", requestID).Msg("Gait analysis failed")
		return errorResponse(ctx, fiber.StatusBadGateway, "Video analysis failed")
	}

	return ctx.JSON(fiber.Map{
		"status":   "ok",
		"analysis": analysis,
	})
}

// ListModels reports which Gemini models can serve the video endpoint
func (c *ScreeningController) ListModels(ctx fiber.Ctx) error {
	models, err := c.analyzer.ListModels(ctx.RequestCtx())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list models")
		return errorResponse(ctx, fiber.StatusBadGateway, "Failed to list models")
	}

	return ctx.JSON(fiber.Map{
		"available_models": models,
	})
}

func errorResponse(ctx fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}
