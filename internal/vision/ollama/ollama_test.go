package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/calorigram/internal/vision"
)

const reply = "Название: Гречка\nВес: 200г\nКалорийность: 220 ккал"

func newOllamaServer(t *testing.T, got *generateRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		resp := map[string]interface{}{
			"model":    got.Model,
			"response": reply,
			"done":     true,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOllamaAnalyzeImage(t *testing.T) {
	var got generateRequest
	server := newOllamaServer(t, &got)

	analyzer := NewOllamaAnalyzer(server.URL, "llava")

	imageData := []byte{0xFF, 0xD8, 0xFF, 0xE0} // JPEG header
	result, err := analyzer.AnalyzeImage(context.Background(), bytes.NewReader(imageData), "image/jpeg", "200 г")
	require.NoError(t, err)
	assert.Equal(t, reply, result.RawResponse)
	assert.Equal(t, "llava", result.Model)

	assert.Equal(t, "llava", got.Model)
	assert.Equal(t, vision.SystemPrompt, got.System)
	assert.Equal(t, vision.ImagePrompt("200 г"), got.Prompt)
	assert.Equal(t, []string{"/9j/4A=="}, got.Images)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.3, got.Options.Temperature, 1e-9)
}

func TestOllamaAnalyzeText(t *testing.T) {
	var got generateRequest
	server := newOllamaServer(t, &got)

	analyzer := NewOllamaAnalyzer(server.URL, "llava")
	result, err := analyzer.AnalyzeText(context.Background(), "гречка 200 г")
	require.NoError(t, err)
	assert.Equal(t, reply, result.RawResponse)
	assert.Equal(t, vision.TextPrompt("гречка 200 г"), got.Prompt)
	assert.Empty(t, got.Images)
}

func TestOllamaAnalyzeNetworkError(t *testing.T) {
	analyzer := NewOllamaAnalyzer("http://localhost:99999", "llava")

	_, err := analyzer.AnalyzeText(context.Background(), "гречка 200 г")
	assert.Error(t, err)
}

func TestOllamaAnalyzeInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	analyzer := NewOllamaAnalyzer(server.URL, "llava")

	imageData := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	_, err := analyzer.AnalyzeImage(context.Background(), bytes.NewReader(imageData), "image/jpeg", "")
	assert.Error(t, err)
}

func TestOllamaAnalyzeEmptyImage(t *testing.T) {
	analyzer := NewOllamaAnalyzer("http://localhost:11434", "llava")

	emptyReader := &io.LimitedReader{R: bytes.NewReader([]byte{0xFF}), N: 0}
	_, err := analyzer.AnalyzeImage(context.Background(), emptyReader, "image/jpeg", "")
	assert.EqualError(t, err, "empty image")
}
