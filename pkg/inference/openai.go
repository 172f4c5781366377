// ABOUTME: OpenAI generator using chat completions with audio input
// ABOUTME: Maps parts to text and input_audio content
package inference

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel accepts input_audio content parts
const DefaultOpenAIModel = "gpt-4o-audio-preview"

// OpenAIConfig configures the OpenAI backend
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAI generates minutes through chat completions with audio input
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI backend
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAI{client: &client, model: cfg.Model}, nil
}

// Name returns the backend and model
func (o *OpenAI) Name() string {
	return BackendOpenAI + "/" + o.model
}

// Generate sends the parts as one user message with a JSON object response
func (o *OpenAI) Generate(ctx context.Context, parts []Part) (string, error) {
	contents, err := openAIContent(parts)
	if err != nil {
		return "", err
	}

	user := openai.ChatCompletionUserMessageParam{
		Content: openai.ChatCompletionUserMessageParamContentUnion{
			OfArrayOfContentParts: contents,
		},
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemInstruction),
			{OfUser: &user},
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("openai refused: %s", msg.Refusal)
	}
	return strings.TrimSpace(msg.Content), nil
}

func openAIContent(parts []Part) ([]openai.ChatCompletionContentPartUnionParam, error) {
	contents := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.Text != "":
			contents = append(contents, openai.TextContentPart(p.Text))
		case p.FileURI != "":
			return nil, fmt.Errorf("openai backend does not accept file uris")
		case len(p.Data) > 0:
			format, err := openAIAudioFormat(p.MIMEType)
			if err != nil {
				return nil, err
			}
			contents = append(contents, openai.InputAudioContentPart(openai.ChatCompletionContentPartInputAudioInputAudioParam{
				Data:   base64.StdEncoding.EncodeToString(p.Data),
				Format: format,
			}))
		}
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("no content to analyze")
	}
	return contents, nil
}

// openAIAudioFormat maps a MIME type to the two formats input_audio accepts
func openAIAudioFormat(mimeType string) (string, error) {
	mt, _, _ := strings.Cut(strings.ToLower(mimeType), ";")
	switch strings.TrimSpace(mt) {
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return "wav", nil
	case "audio/mpeg", "audio/mp3", "audio/mpeg3":
		return "mp3", nil
	default:
		return "", fmt.Errorf("openai backend cannot send %q audio (wav or mp3 only)", mimeType)
	}
}
