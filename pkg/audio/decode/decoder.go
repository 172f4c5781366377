// ABOUTME: Decoder interface definition and container sniffing
// ABOUTME: Detects the codec from magic bytes and dispatches to a decoder
package decode

import (
	"bytes"
	"fmt"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
)

// Codec names returned by Sniff
const (
	CodecWAV  = "wav"
	CodecMP3  = "mp3"
	CodecFLAC = "flac"
	CodecOpus = "opus"
	CodecPCM  = "pcm"
)

// Decoder decodes a complete encoded audio payload into a float buffer
type Decoder interface {
	// Decode converts encoded audio data to a per-channel float buffer
	Decode(data []byte) (*audio.Buffer, error)

	// Close releases decoder resources
	Close() error
}

// New creates a decoder for a container codec.
// Raw PCM carries no header, use NewPCM for it.
func New(codec string) (Decoder, error) {
	switch codec {
	case CodecWAV:
		return NewWAV(), nil
	case CodecMP3:
		return NewMP3(), nil
	case CodecFLAC:
		return NewFLAC(), nil
	case CodecOpus:
		return NewOpus(), nil
	default:
		return nil, fmt.Errorf("unsupported codec: %s", codec)
	}
}

// Decode sniffs the container and decodes the payload.
// Every failure is returned as *audio.DecodeError.
func Decode(data []byte) (*audio.Buffer, error) {
	codec := Sniff(data)
	if codec == "" {
		return nil, &audio.DecodeError{Err: audio.ErrUnsupportedFormat}
	}

	dec, err := New(codec)
	if err != nil {
		return nil, &audio.DecodeError{Codec: codec, Err: err}
	}
	defer dec.Close()

	buf, err := dec.Decode(data)
	if err != nil {
		return nil, asDecodeError(codec, err)
	}
	return buf, nil
}

// Sniff identifies the container from its magic bytes.
// Returns "" when nothing matches.
func Sniff(data []byte) string {
	switch {
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return CodecWAV
	case bytes.HasPrefix(data, []byte("fLaC")):
		return CodecFLAC
	case bytes.HasPrefix(data, []byte("OggS")):
		// The first page of an Ogg Opus stream holds the OpusHead packet
		head := data
		if len(head) > 512 {
			head = head[:512]
		}
		if bytes.Contains(head, []byte("OpusHead")) {
			return CodecOpus
		}
		return ""
	case bytes.HasPrefix(data, []byte("ID3")):
		return CodecMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return CodecMP3
	}
	return ""
}

// asDecodeError wraps err unless it already is a DecodeError
func asDecodeError(codec string, err error) error {
	if de, ok := err.(*audio.DecodeError); ok {
		return de
	}
	return &audio.DecodeError{Codec: codec, Err: err}
}

// deinterleave splits interleaved float samples into per-channel slices.
// A trailing partial frame is dropped.
func deinterleave(samples []float64, channels, sampleRate int) *audio.Buffer {
	frames := len(samples) / channels
	buf := audio.NewBuffer(sampleRate, channels, frames)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			buf.Channels[ch][i] = samples[i*channels+ch]
		}
	}
	return buf
}

// checkShape rejects headers that describe no audio
func checkShape(sampleRate, channels int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", channels)
	}
	return nil
}
