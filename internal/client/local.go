// ABOUTME: In-process analyzer backed by the analysis service
// ABOUTME: Converts service errors into protocol failures
package client

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/oli8788/stek-meeting-minutes/internal/analysis"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
	"github.com/oli8788/stek-meeting-minutes/pkg/protocol"
)

// Local runs analyses in-process against a model backend
type Local struct {
	svc *analysis.Service
}

// NewLocal wraps an analysis service
func NewLocal(svc *analysis.Service) *Local {
	return &Local{svc: svc}
}

// Name is the backend in use
func (l *Local) Name() string {
	return "local " + l.svc.Backend()
}

// Analyze runs the job. Errors are translated to *protocol.AnalyzeFailure
// so callers handle remote and local runs alike.
func (l *Local) Analyze(ctx context.Context, job Job, progress func(Event)) (*Outcome, error) {
	if progress == nil {
		progress = func(Event) {}
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	res, err := l.svc.Analyze(ctx, analysis.Request{
		ID: job.ID,
		Upload: &analysis.Upload{
			FileName: job.FileName,
			MIMEType: job.MIMEType,
			Data:     job.Data,
			Compress: job.Compress,
		},
	}, func(stage, detail string) {
		progress(Event{Stage: stage, Detail: detail})
	})
	if res != nil && res.Payload != nil && job.Compress {
		progress(Event{Compressed: &protocol.AnalyzeCompressed{
			OriginalBytes:   int64(res.Payload.OriginalSize),
			CompressedBytes: int64(len(res.Payload.Data)),
			Used:            res.Payload.Compressed,
		}})
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, toFailure(job.ID, err)
	}

	return &Outcome{Report: res.Report, Compressed: res.Compressed(), Model: res.Model}, nil
}

// Close is a no-op
func (l *Local) Close() error { return nil }

func toFailure(id string, err error) *protocol.AnalyzeFailure {
	f := &protocol.AnalyzeFailure{
		RequestID: id,
		Message:   err.Error(),
		Details:   analysis.ErrorKind(err),
	}
	var pe *minutes.ParseError
	if errors.As(err, &pe) {
		f.Message = "Failed to parse structured output"
		f.RawText = pe.Raw
	}
	return f
}
