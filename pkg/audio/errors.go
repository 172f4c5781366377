// ABOUTME: Error taxonomy for the audio compression pipeline
// ABOUTME: Decode, size-ceiling and encode failures, matched with errors.As
package audio

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is wrapped by DecodeError when no decoder recognises the input
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DecodeError reports a corrupted or unrecognised audio container.
// Callers show it to the user and do not retry.
type DecodeError struct {
	Codec string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Codec == "" {
		return fmt.Sprintf("failed to decode audio: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode %s audio: %v", e.Codec, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SizeExceededError reports an input larger than the configured ceiling
type SizeExceededError struct {
	Size  int64
	Limit int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("audio input is %d bytes, exceeds limit of %d bytes", e.Size, e.Limit)
}

// EncodeError reports an invariant violation while serialising a buffer
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode wav: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
