// ABOUTME: Client-side analysis: upload preparation and the Analyzer interface
// ABOUTME: Remote (websocket) and Local (in-process) analyzers share these types
package client

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/decode"
	"github.com/oli8788/stek-meeting-minutes/pkg/compress"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
	"github.com/oli8788/stek-meeting-minutes/pkg/protocol"
)

// Event reports analysis progress. Stage uses the protocol Stage constants;
// Compressed is set once when the compression outcome is known.
type Event struct {
	Stage      string
	Detail     string
	Compressed *protocol.AnalyzeCompressed
}

// Job is one file to analyze
type Job struct {
	ID       string
	FileName string
	MIMEType string
	Data     []byte

	// Compress asks the analyzer to compress before inference
	Compress bool
}

// Outcome is a finished analysis
type Outcome struct {
	Report     *minutes.Report
	Compressed bool
	Model      string
}

// Analyzer runs jobs. Failures from the model come back as
// *protocol.AnalyzeFailure.
type Analyzer interface {
	Analyze(ctx context.Context, job Job, progress func(Event)) (*Outcome, error)
	Name() string
	Close() error
}

// FileTooLargeError is returned for files over the client limit. The
// message follows Lang.
type FileTooLargeError struct {
	Size  int64
	Limit int64
	Lang  string
}

func (e *FileTooLargeError) Error() string {
	mb := e.Limit / (1024 * 1024)
	if e.Lang == minutes.LangEN {
		return fmt.Sprintf("File exceeds %dMB. Please select a smaller or shorter recording.", mb)
	}
	return fmt.Sprintf("파일 크기가 %dMB를 초과합니다. 더 짧거나 작은 분량의 파일을 선택해 주세요.", mb)
}

// ReadJob loads path, refusing files over limit bytes
func ReadJob(path string, limit int64, lang string) (Job, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Job{}, err
	}
	if limit > 0 && info.Size() > limit {
		return Job{}, &FileTooLargeError{Size: info.Size(), Limit: limit, Lang: lang}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, err
	}
	name := filepath.Base(path)
	return Job{
		FileName: name,
		MIMEType: MIMEType(name, data),
		Data:     data,
	}, nil
}

var codecMIME = map[string]string{
	decode.CodecWAV:  "audio/wav",
	decode.CodecMP3:  "audio/mpeg",
	decode.CodecFLAC: "audio/flac",
	decode.CodecOpus: "audio/ogg",
}

// MIMEType guesses the upload type from content, then from the extension
func MIMEType(name string, data []byte) string {
	if t, ok := codecMIME[decode.Sniff(data)]; ok {
		return t
	}
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return ""
}

// CompressJob compresses the job locally, keeping the original when
// compression fails or does not shrink it. The returned job has Compress
// cleared.
func CompressJob(ctx context.Context, comp *compress.Compressor, job Job, progress func(Event)) Job {
	if progress == nil {
		progress = func(Event) {}
	}
	progress(Event{Stage: protocol.StageCompressing, Detail: job.FileName})

	payload := compress.Prepare(ctx, comp, job.Data, job.MIMEType)
	progress(Event{Compressed: &protocol.AnalyzeCompressed{
		OriginalBytes:   int64(payload.OriginalSize),
		CompressedBytes: int64(len(payload.Data)),
		Used:            payload.Compressed,
	}})

	job.Data = payload.Data
	job.MIMEType = payload.MIMEType
	job.Compress = false
	return job
}

// DefaultLimit is the client-side upload ceiling
const DefaultLimit = audio.DefaultMaxInputBytes
