package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/calorigram/internal/vision"
)

// maxTokens leaves headroom over the fixed response layout, which is
// well under 300 tokens even for long dish names.
const maxTokens = 1024

type ClaudeAnalyzer struct {
	client      *anthropic.Client
	model       string
	temperature float32
}

func NewClaudeAnalyzer(apiKey, model string) *ClaudeAnalyzer {
	return newClaudeAnalyzer(apiKey, model, "")
}

// newClaudeAnalyzer lets tests point the client at an httptest server.
func newClaudeAnalyzer(apiKey, model, baseURL string) *ClaudeAnalyzer {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeAnalyzer{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       model,
		temperature: 0.3,
	}
}

func (a *ClaudeAnalyzer) AnalyzeImage(ctx context.Context, r io.Reader, mimeType, note string) (*vision.AnalysisResult, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	msg := anthropic.Message{
		Role: anthropic.RoleUser,
		Content: []anthropic.MessageContent{
			anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64,
				vision.NormaliseMIME(mimeType),
				base64.StdEncoding.EncodeToString(imageData),
			)),
			anthropic.NewTextMessageContent(vision.ImagePrompt(note)),
		},
	}
	return a.send(ctx, msg)
}

func (a *ClaudeAnalyzer) AnalyzeText(ctx context.Context, description string) (*vision.AnalysisResult, error) {
	return a.send(ctx, anthropic.NewUserTextMessage(vision.TextPrompt(description)))
}

func (a *ClaudeAnalyzer) send(ctx context.Context, msg anthropic.Message) (*vision.AnalysisResult, error) {
	temperature := a.temperature
	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(a.model),
		System:      vision.SystemPrompt,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
		Messages:    []anthropic.Message{msg},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == anthropic.MessagesContentTypeText {
			text.WriteString(c.GetText())
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("claude returned no text content")
	}

	return &vision.AnalysisResult{
		RawResponse: text.String(),
		Model:       a.model,
	}, nil
}
