package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/parkinsight/parkinsight/internal/config"
	"github.com/parkinsight/parkinsight/internal/controllers"
	"github.com/parkinsight/parkinsight/internal/gait"
	"github.com/parkinsight/parkinsight/internal/server"
	"github.com/parkinsight/parkinsight/internal/voice"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the screening API server",
		Long:  `Start the HTTP server exposing the voice and gait screening endpoints.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			return runStart(debug)
		},
	}

	return cmd
}

func runStart(debug bool) error {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Local .env is optional; real deployments set env vars directly.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("http_address", cfg.HTTPAddress).
		Str("model_path", cfg.ModelPath).
		Int("gemini_keys", len(cfg.GeminiAPIKeys)).
		Msg("Starting parkinsight service")

	classifier, err := voice.NewClassifier(cfg.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Str("model_path", cfg.ModelPath).Msg("Failed to load voice model")
	}

	analyzer, err := gait.NewAnalyzer(ctx, gait.AnalyzerDependencies{
		APIKeys: cfg.GeminiAPIKeys,
		Models:  cfg.GeminiModels,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gait analyzer")
	}

	screeningController := controllers.NewScreeningController(controllers.ScreeningControllerDependencies{
		Classifier: classifier,
		Analyzer:   analyzer,
	})

	app := server.NewHTTPServer(ctx, server.HTTPServerDependencies{
		Config:              cfg,
		ScreeningController: screeningController,
	})

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	log.Info().Msg("Parkinsight service stopped")
	return nil
}
