// ABOUTME: Gemini generator using the genai SDK
// ABOUTME: Inlines small audio and uploads large files through the Files API
package inference

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the model the analysis runs against
const DefaultGeminiModel = "gemini-flash-latest"

// DefaultInlineLimit is the largest request sent as inline bytes. Larger
// payloads go through the Files API.
const DefaultInlineLimit = 20 * 1024 * 1024

const filePollInterval = 2 * time.Second

// GeminiConfig configures the Gemini backend
type GeminiConfig struct {
	APIKey      string
	Model       string
	InlineLimit int64
	Logger      *slog.Logger
}

// Gemini generates minutes through the Gemini API
type Gemini struct {
	client      *genai.Client
	model       string
	inlineLimit int64
	logger      *slog.Logger
}

// NewGemini creates a Gemini backend
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.InlineLimit <= 0 {
		cfg.InlineLimit = DefaultInlineLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       cfg.Model,
		inlineLimit: cfg.InlineLimit,
		logger:      cfg.Logger,
	}, nil
}

// Name returns the backend and model
func (g *Gemini) Name() string {
	return BackendGemini + "/" + g.model
}

// Generate sends the parts as a single user turn and returns the response text
func (g *Gemini) Generate(ctx context.Context, parts []Part) (string, error) {
	inline := inlineBytes(parts) <= g.inlineLimit

	gparts := make([]*genai.Part, 0, len(parts))
	for i, p := range parts {
		switch {
		case p.Text != "":
			gparts = append(gparts, genai.NewPartFromText(p.Text))
		case p.FileURI != "":
			gparts = append(gparts, genai.NewPartFromURI(p.FileURI, p.MIMEType))
		case len(p.Data) > 0 && inline:
			gparts = append(gparts, genai.NewPartFromBytes(p.Data, p.MIMEType))
		case len(p.Data) > 0:
			f, err := g.upload(ctx, p, fmt.Sprintf("segment-%d", i))
			if err != nil {
				return "", err
			}
			gparts = append(gparts, genai.NewPartFromURI(f.URI, f.MIMEType))
		}
	}
	if len(gparts) == 0 {
		return "", fmt.Errorf("no content to analyze")
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(gparts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
		})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	g.logger.Info("gemini response", "model", g.model, "parts", len(gparts), "elapsed", time.Since(start))

	return strings.TrimSpace(resp.Text()), nil
}

// upload pushes one segment through the Files API and waits until it is usable
func (g *Gemini) upload(ctx context.Context, p Part, name string) (*genai.File, error) {
	f, err := g.client.Files.Upload(ctx, bytes.NewReader(p.Data), &genai.UploadFileConfig{
		MIMEType:    p.MIMEType,
		DisplayName: name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", name, err)
	}
	g.logger.Debug("uploaded segment", "name", f.Name, "bytes", len(p.Data))

	ticker := time.NewTicker(filePollInterval)
	defer ticker.Stop()
	for f.State == genai.FileStateProcessing {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
		f, err = g.client.Files.Get(ctx, f.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to poll %s: %w", name, err)
		}
	}
	if f.State == genai.FileStateFailed {
		msg := "processing failed"
		if f.Error != nil && f.Error.Message != "" {
			msg = f.Error.Message
		}
		return nil, fmt.Errorf("upload %s: %s", name, msg)
	}
	return f, nil
}

// ListModels returns the models that support content generation
func (g *Gemini) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
		if !supportsGenerate(m.SupportedActions) {
			continue
		}
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}

func supportsGenerate(actions []string) bool {
	if len(actions) == 0 {
		return true
	}
	for _, a := range actions {
		if a == "generateContent" {
			return true
		}
	}
	return false
}

func inlineBytes(parts []Part) int64 {
	var n int64
	for _, p := range parts {
		n += int64(len(p.Data))
	}
	return n
}
