// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

import "github.com/oli8788/stek-meeting-minutes/pkg/audio"

// Encoder encodes float buffers to various formats
type Encoder interface {
	// Encode converts a float buffer to encoded audio data
	Encode(buf *audio.Buffer) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
