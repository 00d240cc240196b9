package gait

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	// maxAttempts bounds the key/model rotation loop (keys * models, capped)
	maxAttempts = 20

	// pollInterval is how often we check whether Gemini finished ingesting the video
	pollInterval = 2 * time.Second
)

var (
	// ErrUpstream indicates Gemini rejected or failed to process the video
	ErrUpstream = errors.New("upstream video analysis failed")

	// ErrExhausted indicates every API key and fallback model was rate limited
	ErrExhausted = errors.New("all API keys and models exhausted")
)

// Analyzer sends gait videos to Gemini and returns the structured assessment.
// It rotates across API keys on quota errors and falls back through the
// configured model list when a model is unavailable.
type Analyzer struct {
	clients []*genai.Client
	models  []string

	mu         sync.Mutex
	keyIndex   int
	modelIndex int
}

type AnalyzerDependencies struct {
	APIKeys []string
	Models  []string
}

// NewAnalyzer creates one Gemini client per API key
func NewAnalyzer(ctx context.Context, deps AnalyzerDependencies) (*Analyzer, error) {
	if len(deps.APIKeys) == 0 {
		return nil, errors.New("at least one Gemini API key is required")
	}
	if len(deps.Models) == 0 {
		return nil, errors.New("at least one Gemini model is required")
	}

	clients := make([]*genai.Client, 0, len(deps.APIKeys))
	for _, key := range deps.APIKeys {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		clients = append(clients, client)
	}

	return &Analyzer{
		clients: clients,
		models:  deps.Models,
	}, nil
}

// Analyze uploads the video, waits for ingestion and asks the model for a
// structured gait assessment. Quota errors rotate the API key; a full key
// cycle or a missing model advances to the next model in the fallback list.
func (a *Analyzer) Analyze(ctx context.Context, video []byte, mimeType string) (*Analysis, error) {
	if mimeType == "" {
		mimeType = "video/mp4"
	}

	// Uploaded files are scoped to the key that uploaded them, so a key
	// rotation forces a re-upload under the new key.
	uploadedKey := -1
	var file *genai.File

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		keyIndex, modelIndex := a.current()
		client := a.clients[keyIndex]
		model := a.models[modelIndex]

		if uploadedKey != keyIndex {
			if file != nil {
				if _, delErr := a.clients[uploadedKey].Files.Delete(ctx, file.Name, nil); delErr != nil {
					log.Warn().Err(delErr).Str("file", file.Name).Msg("Failed to delete uploaded video")
				}
			}
			uploaded, err := a.upload(ctx, client, video, mimeType)
			if err != nil {
				return nil, err
			}
			file = uploaded
			uploadedKey = keyIndex
		}

		log.Debug().
			Int("attempt", attempt+1).
			Str("model", model).
			Int("key_index", keyIndex).
			Msg("Requesting gait analysis")

		analysis, err := a.generate(ctx, client, model, file)
		if err == nil {
			if _, delErr := client.Files.Delete(ctx, file.Name, nil); delErr != nil {
				log.Warn().Err(delErr).Str("file", file.Name).Msg("Failed to delete uploaded video")
			}
			return analysis, nil
		}

		lastErr = err
		switch {
		case isQuotaError(err):
			log.Warn().Err(err).Int("key_index", keyIndex).Msg("Key rate limited, rotating")
			cycled := a.rotateKey()
			if cycled {
				a.advanceModel()
			}
			time.Sleep(time.Second)
		case isModelNotFound(err):
			log.Warn().Err(err).Str("model", model).Msg("Model unavailable, falling back")
			a.advanceModel()
		default:
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

// ListModels returns the Gemini models that support content generation
func (a *Analyzer) ListModels(ctx context.Context) ([]string, error) {
	keyIndex, _ := a.current()
	client := a.clients[keyIndex]

	var models []string
	for model, err := range client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		for _, action := range model.SupportedActions {
			if action == "generateContent" {
				models = append(models, model.Name)
				break
			}
		}
	}
	return models, nil
}

// upload sends the video to the Files API and waits until it is ingested
func (a *Analyzer) upload(ctx context.Context, client *genai.Client, video []byte, mimeType string) (*genai.File, error) {
	file, err := client.Files.Upload(ctx, bytes.NewReader(video), &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: "gait-" + xid.New().String(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: upload: %v", ErrUpstream, err)
	}

	for file.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}

		file, err = client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: poll file state: %v", ErrUpstream, err)
		}
	}

	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("%w: video processing failed", ErrUpstream)
	}

	return file, nil
}

func (a *Analyzer) generate(ctx context.Context, client *genai.Client, model string, file *genai.File) (*Analysis, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
		Temperature:      genai.Ptr(float32(0)),
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			genai.NewPartFromURI(file.URI, file.MIMEType),
			genai.NewPartFromText(gaitPrompt),
		},
	}}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("gemini returned no candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}

	return parseAnalysis(text)
}

// parseAnalysis decodes the model's JSON output
func parseAnalysis(text string) (*Analysis, error) {
	var analysis Analysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}
	return &analysis, nil
}

func (a *Analyzer) current() (keyIndex, modelIndex int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keyIndex, a.modelIndex
}

// rotateKey advances to the next API key, reporting whether the rotation
// wrapped around to the first key.
func (a *Analyzer) rotateKey() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keyIndex = (a.keyIndex + 1) % len(a.clients)
	return a.keyIndex == 0
}

func (a *Analyzer) advanceModel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modelIndex = (a.modelIndex + 1) % len(a.models)
}

// isQuotaError reports whether the error looks like a rate limit or
// temporary capacity problem worth retrying on another key.
func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "503") ||
		strings.Contains(strings.ToLower(msg), "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func isModelNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "404") || strings.Contains(msg, "not found")
}
