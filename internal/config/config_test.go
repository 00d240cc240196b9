package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				HTTPAddress:   ":8000",
				MaxUploadMB:   32,
				ModelPath:     "model/parkinsons_mfcc_model.json",
				GeminiAPIKeys: []string{"key-1"},
				GeminiModels:  []string{"gemini-2.0-flash"},
			},
			wantErr: false,
		},
		{
			name: "missing model path",
			config: Config{
				MaxUploadMB:   32,
				GeminiAPIKeys: []string{"key-1"},
				GeminiModels:  []string{"gemini-2.0-flash"},
			},
			wantErr: true,
		},
		{
			name: "missing gemini keys",
			config: Config{
				MaxUploadMB:  32,
				ModelPath:    "model/parkinsons_mfcc_model.json",
				GeminiModels: []string{"gemini-2.0-flash"},
			},
			wantErr: true,
		},
		{
			name: "non positive upload limit",
			config: Config{
				MaxUploadMB:   0,
				ModelPath:     "model/parkinsons_mfcc_model.json",
				GeminiAPIKeys: []string{"key-1"},
				GeminiModels:  []string{"gemini-2.0-flash"},
			},
			wantErr: true,
		},
		{
			name: "empty model fallback list",
			config: Config{
				MaxUploadMB:   32,
				ModelPath:     "model/parkinsons_mfcc_model.json",
				GeminiAPIKeys: []string{"key-1"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitList(" a , b , "))
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , ,"))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEYS", "test-key")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, ":8000", cfg.HTTPAddress)
	assert.Equal(t, 32, cfg.MaxUploadMB)
	assert.Equal(t, "model/parkinsons_mfcc_model.json", cfg.ModelPath)
	assert.Equal(t, []string{"test-key"}, cfg.GeminiAPIKeys)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-pro"}, cfg.GeminiModels)
}
