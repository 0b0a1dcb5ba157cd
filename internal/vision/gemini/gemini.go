package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/vbonduro/calorigram/internal/vision"
)

const maxAttempts = 3

type GeminiAnalyzer struct {
	apiKey string
	model  string
	// retryDelay is multiplied by the attempt number between retries.
	retryDelay time.Duration
	opts       []option.ClientOption
}

func NewGeminiAnalyzer(apiKey, model string) *GeminiAnalyzer {
	return newGeminiAnalyzer(apiKey, model)
}

func newGeminiAnalyzer(apiKey, model string, opts ...option.ClientOption) *GeminiAnalyzer {
	return &GeminiAnalyzer{
		apiKey:     strings.TrimSpace(apiKey),
		model:      strings.TrimSpace(model),
		retryDelay: 300 * time.Millisecond,
		opts:       opts,
	}
}

func (a *GeminiAnalyzer) AnalyzeImage(ctx context.Context, r io.Reader, mimeType, note string) (*vision.AnalysisResult, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return a.generate(ctx,
		genai.Text(vision.ImagePrompt(note)),
		&genai.Blob{MIMEType: vision.NormaliseMIME(mimeType), Data: imageData},
	)
}

func (a *GeminiAnalyzer) AnalyzeText(ctx context.Context, description string) (*vision.AnalysisResult, error) {
	return a.generate(ctx, genai.Text(vision.TextPrompt(description)))
}

func (a *GeminiAnalyzer) generate(ctx context.Context, parts ...genai.Part) (*vision.AnalysisResult, error) {
	if a.apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(a.apiKey)}, a.opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer func() {
		if err := cl.Close(); err != nil {
			slog.Error("failed to close gemini client", "error", err)
		}
	}()

	m := cl.GenerativeModel(a.model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(vision.SystemPrompt)},
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0.3),
	}

	// Retry 5xx, 429 and network timeouts.
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			slog.Warn("gemini request failed", "attempt", attempt, "error", err)
			if !retryable(ctx, err) {
				break
			}
			if attempt < maxAttempts {
				if err := sleep(ctx, time.Duration(attempt)*a.retryDelay); err != nil {
					return nil, err
				}
			}
			continue
		}
		text := firstText(resp)
		if text == "" {
			return nil, errors.New("gemini returned an empty response")
		}
		return &vision.AnalysisResult{RawResponse: text, Model: a.model}, nil
	}
	return nil, fmt.Errorf("failed to call gemini: %w", lastErr)
}

// retryable reports whether a failed call may succeed if repeated.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// firstText returns the first text part of the first candidate that has one.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok && strings.TrimSpace(string(t)) != "" {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
