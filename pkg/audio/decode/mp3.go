// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MPEG audio to float buffers
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
)

// MP3 decoder outputs stereo
const mp3Channels = 2

// MP3Decoder decodes MP3 audio
type MP3Decoder struct{}

// NewMP3 creates a new MP3 decoder
func NewMP3() Decoder {
	return &MP3Decoder{}
}

// Decode converts MP3 bytes to a float buffer
func (d *MP3Decoder) Decode(data []byte) (*audio.Buffer, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	sampleRate := decoder.SampleRate()
	if err := checkShape(sampleRate, mp3Channels); err != nil {
		return nil, err
	}

	// Read decoded PCM data (int16 as bytes)
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := len(pcm) / 2
	samples := make([]float64, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = audio.Int16ToFloat(sample16)
	}

	return deinterleave(samples, mp3Channels, sampleRate), nil
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return nil
}
