// ABOUTME: Tests for the analysis pipeline
// ABOUTME: Checks compression fallbacks, segment handling and stage reporting
package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/encode"
	"github.com/oli8788/stek-meeting-minutes/pkg/compress"
	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
	"github.com/oli8788/stek-meeting-minutes/pkg/protocol"
)

const reportJSON = `{"ko":{"title":"주간 회의","participants":["김민수"]},"en":{"title":"Weekly Meeting","participants":["Minsu Kim"]}}`

type fakeGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	parts []inference.Part
}

func (f *fakeGenerator) Generate(ctx context.Context, parts []inference.Part) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parts = parts
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.text, f.err
}

func (f *fakeGenerator) Name() string { return "fake/test" }

func stereoWAV(t *testing.T, rate, frames int) []byte {
	t.Helper()
	buf := audio.NewBuffer(rate, 2, frames)
	data, err := encode.WAV(buf)
	require.NoError(t, err)
	return data
}

type stageRecorder struct {
	stages []string
}

func (r *stageRecorder) record(stage, _ string) { r.stages = append(r.stages, stage) }

func TestAnalyze_CompressesUpload(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n" + reportJSON + "\n```"}
	svc := New(gen, compress.New(), nil)
	rec := &stageRecorder{}

	upload := stereoWAV(t, 44100, 44100)
	res, err := svc.Analyze(context.Background(), Request{
		ID:     "r1",
		Upload: &Upload{FileName: "a.wav", MIMEType: "audio/wav", Data: upload, Compress: true},
	}, rec.record)
	require.NoError(t, err)

	assert.Equal(t, "Weekly Meeting", res.Report.EN.Title)
	assert.True(t, res.Compressed())
	assert.Equal(t, "fake/test", res.Model)
	assert.Equal(t, []string{protocol.StageCompressing, protocol.StageAnalyzing, protocol.StageRendering}, rec.stages)

	require.Len(t, gen.parts, 2)
	assert.Equal(t, compress.WAVMIMEType, gen.parts[0].MIMEType)
	assert.Len(t, gen.parts[0].Data, 32044)
	assert.Equal(t, inference.AnalysisPrompt, gen.parts[1].Text)
}

func TestAnalyze_FallsBackToOriginal(t *testing.T) {
	gen := &fakeGenerator{text: reportJSON}
	svc := New(gen, compress.New(), nil)

	garbage := []byte("definitely not audio, but the model might cope")
	res, err := svc.Analyze(context.Background(), Request{
		Upload: &Upload{Data: garbage, Compress: true},
	}, nil)
	require.NoError(t, err)

	assert.False(t, res.Compressed())
	require.NotNil(t, res.Payload)
	assert.Error(t, res.Payload.Err)
	assert.Equal(t, garbage, gen.parts[0].Data)
	assert.Equal(t, DefaultMIMEType, gen.parts[0].MIMEType)
}

func TestAnalyze_CompressionDisabled(t *testing.T) {
	gen := &fakeGenerator{text: reportJSON}
	svc := New(gen, nil, nil)
	rec := &stageRecorder{}

	upload := stereoWAV(t, 44100, 4410)
	res, err := svc.Analyze(context.Background(), Request{
		Upload: &Upload{MIMEType: "audio/wav", Data: upload, Compress: true},
	}, rec.record)
	require.NoError(t, err)

	assert.False(t, res.Compressed())
	assert.Equal(t, upload, gen.parts[0].Data)
	assert.NotContains(t, rec.stages, protocol.StageCompressing)
}

func TestAnalyze_Segments(t *testing.T) {
	gen := &fakeGenerator{text: reportJSON}
	svc := New(gen, compress.New(), nil)

	segments := []inference.Part{
		{FileURI: "https://files/1", MIMEType: "audio/wav"},
		{FileURI: "https://files/2", MIMEType: "audio/wav"},
	}
	res, err := svc.Analyze(context.Background(), Request{
		Segments: segments,
		Upload:   &Upload{Data: []byte{1}},
	}, nil)
	require.NoError(t, err)

	assert.Nil(t, res.Payload)
	require.Len(t, gen.parts, 3)
	assert.Equal(t, "https://files/1", gen.parts[0].FileURI)
	assert.Equal(t, "https://files/2", gen.parts[1].FileURI)
}

func TestAnalyze_NoInput(t *testing.T) {
	svc := New(&fakeGenerator{}, nil, nil)

	_, err := svc.Analyze(context.Background(), Request{}, nil)
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = svc.Analyze(context.Background(), Request{Upload: &Upload{}}, nil)
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestAnalyze_ParseFailure(t *testing.T) {
	gen := &fakeGenerator{text: "Sorry, the audio was silent."}
	svc := New(gen, nil, nil)

	_, err := svc.Analyze(context.Background(), Request{Upload: &Upload{Data: []byte{1}}}, nil)

	var pe *minutes.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Sorry, the audio was silent.", pe.Raw)
	assert.Equal(t, "ParseError", ErrorKind(err))
}

func TestAnalyze_InferenceFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := New(&fakeGenerator{err: boom}, nil, nil)

	_, err := svc.Analyze(context.Background(), Request{Upload: &Upload{Data: []byte{1}}}, nil)

	var ie *InferenceError
	require.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "fake/test", ie.Backend)
	assert.Equal(t, "InferenceError", ErrorKind(err))
}

func TestAnalyze_Cancelled(t *testing.T) {
	svc := New(&fakeGenerator{text: reportJSON}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, Request{Upload: &Upload{Data: []byte{1}}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Canceled", ErrorKind(err))
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrNoInput, "NoInput"},
		{inference.ErrNoAPIKey, "ConfigError"},
		{&audio.SizeExceededError{Size: 2, Limit: 1}, "SizeExceeded"},
		{&audio.DecodeError{Codec: "mp3", Err: errors.New("x")}, "DecodeError"},
		{&audio.EncodeError{Err: errors.New("x")}, "EncodeError"},
		{context.DeadlineExceeded, "Timeout"},
		{errors.New("other"), "UnknownError"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}
