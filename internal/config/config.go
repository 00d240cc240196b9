package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all service configuration
type Config struct {
	// Server settings
	HTTPAddress string
	MaxUploadMB int

	// Optional static API key required on the predict routes when set
	APIKey string

	// Voice classifier artifact
	ModelPath string

	// Gemini settings for the gait endpoint
	GeminiAPIKeys []string
	GeminiModels  []string
}

// Load reads configuration from an optional yaml file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Configure environment variables - do this BEFORE reading config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit mappings between struct fields and environment variables
	envMappings := map[string]string{
		"HTTPAddress":   "HTTP_ADDRESS",
		"MaxUploadMB":   "MAX_UPLOAD_MB",
		"APIKey":        "API_KEY",
		"ModelPath":     "MODEL_PATH",
		"GeminiAPIKeys": "GEMINI_API_KEYS",
		"GeminiModels":  "GEMINI_MODELS",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("parkinsight")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	config := &Config{
		HTTPAddress:   v.GetString("HTTPAddress"),
		MaxUploadMB:   v.GetInt("MaxUploadMB"),
		APIKey:        v.GetString("APIKey"),
		ModelPath:     v.GetString("ModelPath"),
		GeminiAPIKeys: splitList(v.GetString("GeminiAPIKeys")),
		GeminiModels:  splitList(v.GetString("GeminiModels")),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8000")
	v.SetDefault("MaxUploadMB", 32)
	v.SetDefault("ModelPath", "model/parkinsons_mfcc_model.json")
	v.SetDefault("GeminiModels", "gemini-2.0-flash,gemini-1.5-pro")
}

// Validate checks the required configuration fields
func (c *Config) Validate() error {
	var missing []string

	if c.ModelPath == "" {
		missing = append(missing, "MODEL_PATH")
	}

	if len(c.GeminiAPIKeys) == 0 {
		missing = append(missing, "GEMINI_API_KEYS")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}

	if len(c.GeminiModels) == 0 {
		return fmt.Errorf("GEMINI_MODELS must name at least one model")
	}

	return nil
}

// splitList parses a comma separated value, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
