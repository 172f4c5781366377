// ABOUTME: PCM audio encoder
// ABOUTME: Packs float buffers as interleaved 16-bit or 24-bit PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
)

// PCMEncoder encodes headerless PCM audio
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts the buffer to interleaved little-endian PCM bytes
func (e *PCMEncoder) Encode(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, &audio.EncodeError{Err: err}
	}

	channels := buf.NumChannels()
	frames := buf.Len()
	bytesPerSample := e.bitDepth / 8
	output := make([]byte, frames*channels*bytesPerSample)

	off := 0
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			sample := buf.Channels[ch][i]
			if e.bitDepth == 24 {
				// 24-bit PCM: 3 bytes per sample
				b := audio.SampleTo24Bit(audio.FloatTo24Bit(sample))
				copy(output[off:], b[:])
			} else {
				binary.LittleEndian.PutUint16(output[off:], uint16(audio.FloatToInt16(sample)))
			}
			off += bytesPerSample
		}
	}
	return output, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
