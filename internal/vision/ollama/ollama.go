package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/calorigram/internal/vision"
)

type generateRequest struct {
	Model   string   `json:"model"`
	System  string   `json:"system"`
	Prompt  string   `json:"prompt"`
	Images  []string `json:"images,omitempty"`
	Stream  bool     `json:"stream"`
	Options options  `json:"options"`
}

type options struct {
	Temperature float64 `json:"temperature"`
}

type OllamaAnalyzer struct {
	host   string
	model  string
	client *http.Client
}

func NewOllamaAnalyzer(host, model string) *OllamaAnalyzer {
	return &OllamaAnalyzer{
		host:   host,
		model:  model,
		client: &http.Client{},
	}
}

func (a *OllamaAnalyzer) AnalyzeImage(ctx context.Context, r io.Reader, _ string, note string) (*vision.AnalysisResult, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(imageData) == 0 {
		return nil, errors.New("empty image")
	}

	// Ollama sniffs the image format itself, so the MIME type is not sent.
	return a.generate(ctx, generateRequest{
		Prompt: vision.ImagePrompt(note),
		Images: []string{base64.StdEncoding.EncodeToString(imageData)},
	})
}

func (a *OllamaAnalyzer) AnalyzeText(ctx context.Context, description string) (*vision.AnalysisResult, error) {
	return a.generate(ctx, generateRequest{Prompt: vision.TextPrompt(description)})
}

func (a *OllamaAnalyzer) generate(ctx context.Context, body generateRequest) (*vision.AnalysisResult, error) {
	body.Model = a.model
	body.System = vision.SystemPrompt
	body.Options.Temperature = 0.3

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &vision.AnalysisResult{
		RawResponse: respBody.Response,
		Model:       a.model,
	}, nil
}
