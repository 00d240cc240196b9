package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/parkinsight/parkinsight/internal/config"
	"github.com/parkinsight/parkinsight/internal/controllers"
	"github.com/parkinsight/parkinsight/internal/gait"
	"github.com/parkinsight/parkinsight/internal/server"
	"github.com/parkinsight/parkinsight/internal/voice"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockClassifier struct {
	result *voice.Result
	err    error
}

func (m *mockClassifier) Classify(r io.ReadSeeker) (*voice.Result, error) {
	return m.result, m.err
}

type mockAnalyzer struct {
	analysis *gait.Analysis
	models   []string
	err      error
}

func (m *mockAnalyzer) Analyze(ctx context.Context, video []byte, mimeType string) (*gait.Analysis, error) {
	return m.analysis, m.err
}

func (m *mockAnalyzer) ListModels(ctx context.Context) ([]string, error) {
	return m.models, m.err
}

func newTestApp(classifier controllers.VoiceClassifier, analyzer controllers.GaitAnalyzer, apiKey string) *fiber.App {
	controller := controllers.NewScreeningController(controllers.ScreeningControllerDependencies{
		Classifier: classifier,
		Analyzer:   analyzer,
	})

	return server.NewHTTPServer(context.Background(), server.HTTPServerDependencies{
		Config: &config.Config{
			HTTPAddress: ":8000",
			MaxUploadMB: 32,
			APIKey:      apiKey,
		},
		ScreeningController: controller,
	})
}

// multipartUpload builds a multipart body with a single file field
func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestPredictAudioSuccess(t *testing.T) {
	app := newTestApp(&mockClassifier{
		result: &voice.Result{Prediction: voice.LabelParkinsons, Confidence: 0.87, Probability: 0.87},
	}, &mockAnalyzer{}, "")

	body, contentType := multipartUpload(t, "file", "voice.wav", []byte("RIFFxxxxWAVE"))
	req := httptest.NewRequest(http.MethodPost, "/predict-audio", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, voice.LabelParkinsons, payload["prediction"])

	confidence, ok := payload["confidence"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)
}

func TestPredictAudioNoFile(t *testing.T) {
	app := newTestApp(&mockClassifier{}, &mockAnalyzer{}, "")

	req := httptest.NewRequest(http.MethodPost, "/predict-audio", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "error", payload["status"])
	assert.NotEmpty(t, payload["error"])
}

func TestPredictAudioInvalidFile(t *testing.T) {
	app := newTestApp(&mockClassifier{err: voice.ErrInvalidAudio}, &mockAnalyzer{}, "")

	body, contentType := multipartUpload(t, "file", "cat.jpg", []byte{0xff, 0xd8, 0xff})
	req := httptest.NewRequest(http.MethodPost, "/predict-audio", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "error", payload["status"])
}

func TestPredictAudioClassifierFailure(t *testing.T) {
	app := newTestApp(&mockClassifier{err: io.ErrUnexpectedEOF}, &mockAnalyzer{}, "")

	body, contentType := multipartUpload(t, "file", "voice.wav", []byte("RIFFxxxxWAVE"))
	req := httptest.NewRequest(http.MethodPost, "/predict-audio", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestPredictVideoSuccess(t *testing.T) {
	app := newTestApp(&mockClassifier{}, &mockAnalyzer{
		analysis: &gait.Analysis{
			ParkinsonProbability: 35,
			FreezingPercentage:   2.5,
			Reasoning:            "Normal arm swing and stride length.",
		},
	}, "")

	body, contentType := multipartUpload(t, "file", "walk.mp4", []byte("fake video bytes"))
	req := httptest.NewRequest(http.MethodPost, "/predict-video", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "ok", payload["status"])

	analysis, ok := payload["analysis"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 35, analysis["parkinson_probability"])
	assert.NotEmpty(t, analysis["reasoning"])
}

func TestPredictVideoNoFile(t *testing.T) {
	app := newTestApp(&mockClassifier{}, &mockAnalyzer{}, "")

	req := httptest.NewRequest(http.MethodPost, "/predict-video", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "error", payload["status"])
}

func TestPredictVideoExhausted(t *testing.T) {
	app := newTestApp(&mockClassifier{}, &mockAnalyzer{err: gait.ErrExhausted}, "")

	body, contentType := multipartUpload(t, "file", "walk.mp4", []byte("fake video bytes"))
	req := httptest.NewRequest(http.MethodPost, "/predict-video", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPredictVideoUpstreamFailure(t *testing.T) {
	app := newTestApp(&mockClassifier{}, &mockAnalyzer{err: gait.ErrUpstream}, "")

	body, contentType := multipartUpload(t, "file", "walk.mp4", []byte("fake video bytes"))
	req := httptest.NewRequest(http.MethodPost, "/predict-video", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestListModels(t *testing.T) {
	app := newTestApp(&mockClassifier{}, &mockAnalyzer{
		models: []string{"models/gemini-2.0-flash", "models/gemini-1.5-pro"},
	}, "")

	req := httptest.NewRequest(http.MethodGet, "/models", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	models, ok := payload["available_models"].([]any)
	require.True(t, ok)
	assert.Len(t, models, 2)
}

func TestHealth(t *testing.T) {
	app := newTestApp(&mockClassifier{}, &mockAnalyzer{}, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, "parkinsight", payload["service"])
	assert.NotEmpty(t, payload["timestamp"])
}

func TestAPIKeyProtectsPredictRoutes(t *testing.T) {
	app := newTestApp(&mockClassifier{
		result: &voice.Result{Prediction: voice.LabelHealthy, Confidence: 0.6},
	}, &mockAnalyzer{}, "secret-key")

	body, contentType := multipartUpload(t, "file", "voice.wav", []byte("RIFFxxxxWAVE"))
	req := httptest.NewRequest(http.MethodPost, "/predict-audio", body)
	req.Header.Set("Content-Type", contentType)

	// Missing key
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong key
	body, contentType = multipartUpload(t, "file", "voice.wav", []byte("RIFFxxxxWAVE"))
	req = httptest.NewRequest(http.MethodPost, "/predict-audio", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", "wrong")

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Correct key
	body, contentType = multipartUpload(t, "file", "voice.wav", []byte("RIFFxxxxWAVE"))
	req = httptest.NewRequest(http.MethodPost, "/predict-audio", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", "secret-key")

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIKeyDoesNotGateHealth(t *testing.T) {
	app := newTestApp(&mockClassifier{}, &mockAnalyzer{}, "secret-key")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
