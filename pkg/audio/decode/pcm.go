// ABOUTME: PCM audio decoder
// ABOUTME: Decodes headerless 16-bit and 24-bit PCM to float buffers
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
)

// PCMDecoder decodes raw interleaved PCM
type PCMDecoder struct {
	sampleRate int
	channels   int
	bitDepth   int
	bigEndian  bool
}

// NewPCM creates a little-endian PCM decoder. The stream has no header, so
// the rate and channel count come from the caller.
func NewPCM(format audio.Format) (Decoder, error) {
	return NewPCMOrder(format, binary.LittleEndian)
}

// NewPCMOrder is NewPCM with an explicit byte order. RTP-style audio/L16
// and audio/L24 are big-endian.
func NewPCMOrder(format audio.Format, order binary.ByteOrder) (Decoder, error) {
	if format.Codec != CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	if err := checkShape(format.SampleRate, format.Channels); err != nil {
		return nil, err
	}

	return &PCMDecoder{
		sampleRate: format.SampleRate,
		channels:   format.Channels,
		bitDepth:   format.BitDepth,
		bigEndian:  order == binary.BigEndian,
	}, nil
}

// Decode converts PCM bytes to a float buffer
func (d *PCMDecoder) Decode(data []byte) (*audio.Buffer, error) {
	var samples []float64
	if d.bitDepth == 24 {
		// 24-bit PCM: 3 bytes per sample
		numSamples := len(data) / 3
		samples = make([]float64, numSamples)
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			if d.bigEndian {
				b[0], b[2] = b[2], b[0]
			}
			samples[i] = audio.IntToFloat(int(audio.SampleFrom24Bit(b)), 24)
		}
	} else {
		// 16-bit PCM: 2 bytes per sample
		numSamples := len(data) / 2
		samples = make([]float64, numSamples)
		for i := 0; i < numSamples; i++ {
			var sample16 int16
			if d.bigEndian {
				sample16 = int16(binary.BigEndian.Uint16(data[i*2:]))
			} else {
				sample16 = int16(binary.LittleEndian.Uint16(data[i*2:]))
			}
			samples[i] = audio.Int16ToFloat(sample16)
		}
	}

	return deinterleave(samples, d.channels, d.sampleRate), nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
