package vision

import (
	"context"
	"io"
)

// Analyzer asks a model to describe a dish in the fixed Russian layout that
// nutrition.Analyze understands.
type Analyzer interface {
	// AnalyzeImage estimates the dish on a photo. note is the optional
	// caption the user sent with it.
	AnalyzeImage(ctx context.Context, r io.Reader, mimeType, note string) (*AnalysisResult, error)
	AnalyzeText(ctx context.Context, description string) (*AnalysisResult, error)
}

type AnalysisResult struct {
	RawResponse string
	Model       string
}

// NormaliseMIME maps upload MIME types to the set every backend accepts.
// Unknown types are sent as jpeg; callers validate before reaching this layer.
func NormaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
