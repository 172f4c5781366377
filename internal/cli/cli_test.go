// ABOUTME: Tests for the minutes CLI commands
// ABOUTME: Runs compress, export and analyze against temp files and a fake model
package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oli8788/stek-meeting-minutes/internal/analysis"
	"github.com/oli8788/stek-meeting-minutes/internal/server"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/encode"
	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
)

const reportJSON = `{"ko":{"title":"주간 회의","summary":"요약"},"en":{"title":"Weekly Meeting","summary":"Summary text"}}`

type fakeGenerator struct{ text string }

func (f *fakeGenerator) Generate(context.Context, []inference.Part) (string, error) {
	return f.text, nil
}

func (f *fakeGenerator) Name() string { return "fake/test" }

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeWAV(t *testing.T, dir string) string {
	t.Helper()
	data, err := encode.WAV(audio.NewBuffer(44100, 2, 44100))
	require.NoError(t, err)
	path := filepath.Join(dir, "meeting.wav")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCompressCmd(t *testing.T) {
	dir := t.TempDir()
	in := writeWAV(t, dir)
	out := filepath.Join(dir, "speech.wav")

	stdout, _, err := run(t, "compress", in, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "176444 bytes")
	assert.Contains(t, stdout, "32044 bytes")

	blob, err := os.ReadFile(out)
	require.NoError(t, err)
	hdr, err := encode.ReadWAVHeader(blob)
	require.NoError(t, err)
	assert.Equal(t, uint32(16000), hdr.SampleRate)
	assert.Equal(t, uint16(1), hdr.NumChannels)
}

func TestCompressCmd_Rate(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "speech.wav")

	_, _, err := run(t, "compress", writeWAV(t, dir), out, "--rate", "8000")
	require.NoError(t, err)

	blob, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, blob, 44+8000*2)
}

func TestCompressCmd_RawInOut(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "capture.pcm")
	require.NoError(t, os.WriteFile(in, make([]byte, 48000*2*2), 0o644))
	out := filepath.Join(dir, "speech.pcm")

	_, _, err := run(t, "compress", in, out, "--mime", "audio/L16; rate=48000; channels=2", "--raw")
	require.NoError(t, err)

	blob, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, blob, 16000*2)

	_, _, err = run(t, "compress", in, out)
	assert.Error(t, err, "headerless input without --mime cannot be sniffed")
}

func TestCompressCmd_RawMatchesWAVData(t *testing.T) {
	dir := t.TempDir()
	src := audio.NewBuffer(16000, 1, 4)
	copy(src.Channels[0], []float64{0.5, 0.25, -0.5, 0.003})
	data, err := encode.WAV(src)
	require.NoError(t, err)
	in := filepath.Join(dir, "tones.wav")
	require.NoError(t, os.WriteFile(in, data, 0o644))

	wavOut := filepath.Join(dir, "speech.wav")
	rawOut := filepath.Join(dir, "speech.pcm")
	_, _, err = run(t, "compress", in, wavOut)
	require.NoError(t, err)
	_, _, err = run(t, "compress", in, rawOut, "--raw")
	require.NoError(t, err)

	wav, err := os.ReadFile(wavOut)
	require.NoError(t, err)
	raw, err := os.ReadFile(rawOut)
	require.NoError(t, err)
	assert.Equal(t, wav[encode.WAVHeaderSize:], raw)
}

func TestCompressCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(garbage, []byte("hello"), 0o644))

	_, _, err := run(t, "compress", garbage, filepath.Join(dir, "out.wav"))
	assert.ErrorContains(t, err, "unsupported")

	_, _, err = run(t, "compress", writeWAV(t, dir), filepath.Join(dir, "out.wav"), "--channels", "0")
	assert.ErrorContains(t, err, "invalid target channel count")

	_, _, err = run(t, "compress", "only-one-arg")
	assert.Error(t, err)
}

func TestExportCmd(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(report, []byte("```json\n"+reportJSON+"\n```"), 0o644))

	stdout, _, err := run(t, "export", report, "--format", "md", "--lang", "en", "--out", dir)
	require.NoError(t, err)

	path := strings.TrimSpace(stdout)
	assert.Equal(t, filepath.Join(dir, "STEK_Minutes_Weekly_Meeting.md"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Weekly Meeting"))
}

func TestExportCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(report, []byte(reportJSON), 0o644))

	_, _, err := run(t, "export", report, "--format", "rtf")
	assert.ErrorContains(t, err, "unsupported export format")

	_, _, err = run(t, "export", report, "--lang", "jp")
	assert.ErrorContains(t, err, "unsupported language")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("no report here"), 0o644))
	_, _, err = run(t, "export", bad, "--out", dir)
	assert.ErrorContains(t, err, "failed to parse structured output")
}

func TestAnalyzeCmd_Validation(t *testing.T) {
	_, _, err := run(t, "analyze", "x.mp3", "--lang", "fr", "--no-tui")
	assert.ErrorContains(t, err, "unsupported language")

	_, _, err = run(t, "analyze", "x.mp3", "--export", "rtf", "--no-tui")
	assert.ErrorContains(t, err, "unsupported export format")

	_, _, err = run(t, "analyze", filepath.Join(t.TempDir(), "missing.mp3"), "--no-tui")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyzeCmd_LocalWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("NEXT_PUBLIC_GEMINI_API_KEY", "")

	_, _, err := run(t, "analyze", writeWAV(t, t.TempDir()), "--local", "--no-tui")
	assert.ErrorIs(t, err, inference.ErrNoAPIKey)
}

func TestModelsCmd_WithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("NEXT_PUBLIC_GEMINI_API_KEY", "")

	_, _, err := run(t, "models")
	assert.ErrorIs(t, err, inference.ErrNoAPIKey)
}

func testServer(t *testing.T, text string) string {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(server.Config{Name: "office", Backend: inference.BackendGemini}, server.Options{
		Service: analysis.New(&fakeGenerator{text: text}, nil, quiet),
		Logger:  quiet,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestAnalyzeCmd_Remote(t *testing.T) {
	dir := t.TempDir()
	addr := testServer(t, reportJSON)

	stdout, stderr, err := run(t, "analyze", writeWAV(t, dir),
		"--server", addr, "--no-tui", "--lang", "en", "--export", "txt", "--out", dir)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "[Weekly Meeting]"))
	assert.Contains(t, stdout, "Summary text")
	assert.Contains(t, stderr, "Optimizing Audio...")
	assert.Contains(t, stderr, "Compressed 176444 → 32044 bytes")
	assert.Contains(t, stderr, "Analysing Engine...")

	exported := filepath.Join(dir, "STEK_Minutes_Weekly_Meeting.txt")
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Equal(t, stdout, string(data))
}

func TestAnalyzeCmd_RemoteParseFailure(t *testing.T) {
	addr := testServer(t, "the model rambled")

	_, stderr, err := run(t, "analyze", writeWAV(t, t.TempDir()), "--server", addr, "--no-tui", "--no-compress")
	assert.ErrorContains(t, err, "Failed to parse structured output")
	assert.Contains(t, stderr, "the model rambled")
	assert.NotContains(t, stderr, "Optimizing Audio...")
}
