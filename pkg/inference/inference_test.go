// ABOUTME: Tests for inference request building
// ABOUTME: Covers part ordering, API key lookup and OpenAI content mapping
package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest(t *testing.T) {
	parts := Request(
		Part{Data: []byte{1, 2}, MIMEType: "audio/wav"},
		Part{FileURI: "https://example.com/files/abc", MIMEType: "audio/wav"},
	)

	require.Len(t, parts, 3)
	assert.True(t, parts[0].IsAudio())
	assert.True(t, parts[1].IsAudio())
	assert.False(t, parts[2].IsAudio())
	assert.Equal(t, AnalysisPrompt, parts[2].Text)
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), Options{Backend: BackendGemini})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New(context.Background(), Options{Backend: BackendOpenAI})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = New(context.Background(), Options{Backend: "claude", APIKey: "k"})
	assert.Error(t, err)
}

func TestNewOpenAI_Name(t *testing.T) {
	g, err := NewOpenAI(OpenAIConfig{APIKey: "test"})
	require.NoError(t, err)
	assert.Equal(t, "openai/"+DefaultOpenAIModel, g.Name())
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("NEXT_PUBLIC_GEMINI_API_KEY", "public")
	t.Setenv("OPENAI_API_KEY", "oai")

	assert.Equal(t, "public", APIKeyFromEnv(BackendGemini))
	assert.Equal(t, "oai", APIKeyFromEnv(BackendOpenAI))

	t.Setenv("GEMINI_API_KEY", "server")
	assert.Equal(t, "server", APIKeyFromEnv(""))
}

func TestOpenAIAudioFormat(t *testing.T) {
	tests := []struct {
		mime    string
		want    string
		wantErr bool
	}{
		{"audio/wav", "wav", false},
		{"audio/x-wav", "wav", false},
		{"audio/mpeg", "mp3", false},
		{"AUDIO/MP3; codecs=mp3", "mp3", false},
		{"audio/ogg", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := openAIAudioFormat(tt.mime)
		if tt.wantErr {
			assert.Error(t, err, tt.mime)
			continue
		}
		require.NoError(t, err, tt.mime)
		assert.Equal(t, tt.want, got)
	}
}

func TestOpenAIContent(t *testing.T) {
	contents, err := openAIContent(Request(Part{Data: []byte{0, 1}, MIMEType: "audio/wav"}))
	require.NoError(t, err)
	assert.Len(t, contents, 2)

	_, err = openAIContent([]Part{{FileURI: "x", MIMEType: "audio/wav"}})
	assert.Error(t, err)

	_, err = openAIContent(nil)
	assert.Error(t, err)
}

func TestInlineBytes(t *testing.T) {
	parts := []Part{
		{Data: make([]byte, 10)},
		{FileURI: "x"},
		{Text: "prompt"},
		{Data: make([]byte, 5)},
	}
	assert.Equal(t, int64(15), inlineBytes(parts))
}

func TestSupportsGenerate(t *testing.T) {
	assert.True(t, supportsGenerate(nil))
	assert.True(t, supportsGenerate([]string{"countTokens", "generateContent"}))
	assert.False(t, supportsGenerate([]string{"embedContent"}))
}
