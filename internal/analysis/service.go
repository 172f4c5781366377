// ABOUTME: Analysis pipeline shared by the HTTP, websocket and local paths
// ABOUTME: Compresses uploads, calls the model and parses the bilingual report
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oli8788/stek-meeting-minutes/internal/metrics"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/oli8788/stek-meeting-minutes/pkg/compress"
	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
	"github.com/oli8788/stek-meeting-minutes/pkg/protocol"
)

// DefaultMIMEType is assumed for uploads that arrive without one
const DefaultMIMEType = "audio/mpeg"

// ErrNoInput is returned when a request carries neither a file nor segments
var ErrNoInput = errors.New("no file or URIs provided")

// InferenceError wraps a failure from the model backend
type InferenceError struct {
	Backend string
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Upload is an audio file sent inline
type Upload struct {
	FileName string
	MIMEType string
	Data     []byte

	// Compress runs the speech pipeline before inference
	Compress bool
}

// Request is one analysis. Segments are files already stored with the
// backend and take precedence over Upload.
type Request struct {
	ID       string
	Upload   *Upload
	Segments []inference.Part
}

// Result is a finished analysis
type Result struct {
	Report  *minutes.Report
	Raw     string
	Model   string
	Payload *compress.Payload
	Elapsed time.Duration
}

// Compressed reports whether the model received the compressed WAV
func (r *Result) Compressed() bool {
	return r.Payload != nil && r.Payload.Compressed
}

// ProgressFunc receives stage changes, see the protocol Stage constants
type ProgressFunc func(stage, detail string)

// Service runs analyses against one generator
type Service struct {
	gen    inference.Generator
	comp   *compress.Compressor
	logger *slog.Logger
}

// New creates a service. comp may be nil to disable compression.
func New(gen inference.Generator, comp *compress.Compressor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, comp: comp, logger: logger}
}

// Backend names the generator in use
func (s *Service) Backend() string {
	return s.gen.Name()
}

// Analyze runs one request to completion. Parse failures come back as
// *minutes.ParseError carrying the raw model text; backend failures as
// *InferenceError.
func (s *Service) Analyze(ctx context.Context, req Request, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(string, string) {}
	}
	start := time.Now()
	logger := s.logger.With("request_id", req.ID)

	metrics.AnalysesActive.Inc()
	defer metrics.AnalysesActive.Dec()

	res := &Result{Model: s.gen.Name()}

	var segments []inference.Part
	switch {
	case len(req.Segments) > 0:
		segments = req.Segments
		logger.Info("analyzing uploaded segments", "segments", len(segments))
	case req.Upload != nil && len(req.Upload.Data) > 0:
		payload := s.prepare(ctx, req.Upload, progress)
		res.Payload = &payload
		segments = []inference.Part{{Data: payload.Data, MIMEType: payload.MIMEType}}
		logger.Info("analyzing file",
			"file", req.Upload.FileName,
			"bytes", len(payload.Data),
			"compressed", payload.Compressed)
	default:
		return nil, ErrNoInput
	}

	progress(protocol.StageAnalyzing, s.gen.Name())
	genStart := time.Now()
	text, err := s.gen.Generate(ctx, inference.Request(segments...))
	metrics.StageDuration.WithLabelValues("inference").Observe(time.Since(genStart).Seconds())
	if err != nil {
		metrics.Errors.WithLabelValues("inference", ErrorKind(err)).Inc()
		logger.Error("inference failed", "error", err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &InferenceError{Backend: s.gen.Name(), Err: err}
	}
	res.Raw = text

	progress(protocol.StageRendering, "")
	report, err := minutes.Parse(text)
	if err != nil {
		metrics.Errors.WithLabelValues("parse", "ParseError").Inc()
		logger.Error("failed to parse model output", "error", err, "raw_bytes", len(text))
		return nil, err
	}
	res.Report = report
	res.Elapsed = time.Since(start)

	logger.Info("analysis complete", "title", report.EN.Title, "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

func (s *Service) prepare(ctx context.Context, up *Upload, progress ProgressFunc) compress.Payload {
	mimeType := up.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	metrics.UploadBytes.Observe(float64(len(up.Data)))

	if !up.Compress || s.comp == nil {
		metrics.CompressionFallbacks.WithLabelValues("disabled").Inc()
		return compress.Payload{Data: up.Data, MIMEType: mimeType, OriginalSize: len(up.Data)}
	}

	progress(protocol.StageCompressing, up.FileName)
	t := time.Now()
	payload := compress.Prepare(ctx, s.comp, up.Data, mimeType)
	metrics.StageDuration.WithLabelValues("compress").Observe(time.Since(t).Seconds())

	switch {
	case payload.Compressed:
		metrics.CompressionRatio.Observe(payload.Ratio())
	case payload.Err != nil:
		metrics.CompressionFallbacks.WithLabelValues(ErrorKind(payload.Err)).Inc()
	default:
		metrics.CompressionFallbacks.WithLabelValues("not_smaller").Inc()
	}
	return payload
}

// ErrorKind names an error for logs, metrics and the "details" field
// returned to clients
func ErrorKind(err error) string {
	var (
		parseErr  *minutes.ParseError
		inferErr  *InferenceError
		decodeErr *audio.DecodeError
		sizeErr   *audio.SizeExceededError
		encodeErr *audio.EncodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, ErrNoInput):
		return "NoInput"
	case errors.Is(err, inference.ErrNoAPIKey):
		return "ConfigError"
	case errors.As(err, &parseErr):
		return "ParseError"
	case errors.As(err, &sizeErr):
		return "SizeExceeded"
	case errors.As(err, &decodeErr):
		return "DecodeError"
	case errors.As(err, &encodeErr):
		return "EncodeError"
	case errors.As(err, &inferErr):
		return "InferenceError"
	default:
		return "UnknownError"
	}
}
