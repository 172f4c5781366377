// ABOUTME: Audio decoder package for multiple container support
// ABOUTME: Provides Decoder interface and implementations for WAV, MP3, FLAC, Ogg Opus, PCM
// Package decode turns encoded audio payloads into float buffers.
//
// Supports: WAV (integer PCM), MP3, FLAC, Ogg Opus, raw PCM (16-bit and 24-bit)
//
// Decode sniffs the container from its magic bytes. Every decoder yields an
// audio.Buffer holding one float64 slice per channel at the source's native
// rate. Failures come back as *audio.DecodeError.
//
// Example:
//
//	buf, err := decode.Decode(fileBytes)
//	var de *audio.DecodeError
//	if errors.As(err, &de) {
//		// corrupt or unsupported input
//	}
package decode
