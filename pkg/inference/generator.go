// ABOUTME: Generator interface and backend selection
// ABOUTME: Builds the Gemini or OpenAI client from options and environment
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Backend names
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
)

// ErrNoAPIKey is returned when a backend is built without credentials
var ErrNoAPIKey = errors.New("inference: api key is not configured")

// Part is one piece of a request. Exactly one of Data, FileURI or Text is set.
type Part struct {
	Data     []byte
	MIMEType string
	FileURI  string
	Text     string
}

// IsAudio reports whether the part carries audio rather than instruction text
func (p Part) IsAudio() bool {
	return len(p.Data) > 0 || p.FileURI != ""
}

// Generator turns ordered audio segments plus a text instruction into the
// model's raw response text
type Generator interface {
	Generate(ctx context.Context, parts []Part) (string, error)
	Name() string
}

// ModelLister is implemented by backends that can enumerate their models
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Request builds the part list sent for one analysis: every audio segment in
// order, then the analysis prompt.
func Request(segments ...Part) []Part {
	parts := make([]Part, 0, len(segments)+1)
	parts = append(parts, segments...)
	return append(parts, Part{Text: AnalysisPrompt})
}

// Options configures a backend
type Options struct {
	Backend     string
	APIKey      string
	Model       string
	BaseURL     string
	InlineLimit int64
	Logger      *slog.Logger
}

// New builds the Generator for opts.Backend
func New(ctx context.Context, opts Options) (Generator, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendGemini:
		return NewGemini(ctx, GeminiConfig{
			APIKey:      opts.APIKey,
			Model:       opts.Model,
			InlineLimit: opts.InlineLimit,
			Logger:      opts.Logger,
		})
	case BackendOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:  opts.APIKey,
			Model:   opts.Model,
			BaseURL: opts.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown inference backend: %s", opts.Backend)
	}
}

// APIKeyFromEnv returns the key for backend from the environment
func APIKeyFromEnv(backend string) string {
	if strings.EqualFold(backend, BackendOpenAI) {
		return os.Getenv("OPENAI_API_KEY")
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("NEXT_PUBLIC_GEMINI_API_KEY")
}
