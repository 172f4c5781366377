// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Reads the OpusHead for the channel count and decodes the stream at 48kHz
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/pion/webrtc/v3/pkg/media/oggreader"
	"gopkg.in/hraban/opus.v2"
)

// Opus always decodes at 48kHz regardless of the input rate in the header
const opusSampleRate = 48000

// Max frame size: 120ms at 48kHz
const opusMaxFrame = 5760

// OpusDecoder decodes Ogg-encapsulated Opus audio
type OpusDecoder struct{}

// NewOpus creates a new Opus decoder
func NewOpus() Decoder {
	return &OpusDecoder{}
}

// Decode converts Ogg Opus bytes to a float buffer
func (d *OpusDecoder) Decode(data []byte) (*audio.Buffer, error) {
	_, header, err := oggreader.NewWith(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read OpusHead: %w", err)
	}

	channels := int(header.Channels)
	if err := checkShape(opusSampleRate, channels); err != nil {
		return nil, err
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	pcm16 := make([]int16, opusMaxFrame*channels)
	var samples []float64
	for {
		n, err := stream.Read(pcm16)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("opus decode failed: %w", err)
		}

		// n is samples per channel
		for i := 0; i < n*channels; i++ {
			samples = append(samples, audio.Int16ToFloat(pcm16[i]))
		}
	}

	return deinterleave(samples, channels, opusSampleRate), nil
}

// Close releases decoder resources
func (d *OpusDecoder) Close() error {
	return nil
}
