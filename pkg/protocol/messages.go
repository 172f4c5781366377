// ABOUTME: Analyze protocol message type definitions
// ABOUTME: Defines structs for every JSON message exchanged on /ws/analyze
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
)

// Message types
const (
	TypeClientHello       = "client/hello"
	TypeServerHello       = "server/hello"
	TypeClientGoodbye     = "client/goodbye"
	TypeAnalyzeStart      = "analyze/start"
	TypeAnalyzeEnd        = "analyze/end"
	TypeAnalyzeStatus     = "analyze/status"
	TypeAnalyzeCompressed = "analyze/compressed"
	TypeAnalyzeResult     = "analyze/result"
	TypeAnalyzeError      = "analyze/error"
)

// Analysis stages reported in analyze/status
const (
	StageReceiving   = "receiving"
	StageCompressing = "compressing"
	StageAnalyzing   = "analyzing"
	StageRendering   = "rendering"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Envelope is a received message whose payload has not been decoded yet
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v
func (e Envelope) Decode(v interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", e.Type, err)
	}
	return nil
}

// ParseEnvelope reads the type and raw payload of a text frame
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid message: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("message has no type")
	}
	return env, nil
}

// ClientHello is sent by clients to open a session
type ClientHello struct {
	ClientID   string      `json:"client_id"`
	Name       string      `json:"name"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains client identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
	Backend  string `json:"backend"`

	// MaxUploadBytes is the largest upload the server accepts
	MaxUploadBytes int64 `json:"max_upload_bytes"`
}

// ClientGoodbye is sent before graceful disconnect
type ClientGoodbye struct {
	Reason string `json:"reason"` // "done", "user_request", "shutdown"
}

// AnalyzeStart announces an upload. Binary frames follow.
type AnalyzeStart struct {
	RequestID string `json:"request_id"`
	FileName  string `json:"file_name"`
	MIMEType  string `json:"mime_type"`
	Size      int64  `json:"size"`

	// Compress asks the server to run the speech pipeline before inference
	Compress bool `json:"compress"`
}

// AnalyzeEnd marks the end of the binary frames
type AnalyzeEnd struct{}

// AnalyzeStatus reports progress
type AnalyzeStatus struct {
	Stage  string `json:"stage"`
	Detail string `json:"detail,omitempty"`
}

// AnalyzeCompressed reports the outcome of server-side compression
type AnalyzeCompressed struct {
	OriginalBytes   int64 `json:"original_bytes"`
	CompressedBytes int64 `json:"compressed_bytes"`
	Used            bool  `json:"used"`
}

// AnalyzeResult carries the finished report
type AnalyzeResult struct {
	RequestID  string          `json:"request_id"`
	Report     *minutes.Report `json:"report"`
	Compressed bool            `json:"compressed"`
	Model      string          `json:"model,omitempty"`
}

// AnalyzeFailure is sent as analyze/error. It doubles as the error the
// client returns.
type AnalyzeFailure struct {
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"error"`
	Details   string `json:"details,omitempty"`
	RawText   string `json:"raw_text,omitempty"`
}

func (f *AnalyzeFailure) Error() string {
	if f.Details != "" {
		return fmt.Sprintf("analysis failed: %s (%s)", f.Message, f.Details)
	}
	return "analysis failed: " + f.Message
}
