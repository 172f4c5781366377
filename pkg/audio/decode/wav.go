// ABOUTME: WAV audio decoder
// ABOUTME: Decodes integer PCM RIFF/WAVE containers to float buffers
package decode

import (
	"bytes"
	"fmt"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVDecoder decodes RIFF/WAVE audio
type WAVDecoder struct{}

// NewWAV creates a new WAV decoder
func NewWAV() Decoder {
	return &WAVDecoder{}
}

// Decode converts WAV bytes to a float buffer
func (d *WAVDecoder) Decode(data []byte) (*audio.Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("invalid wav container: %w", err)
		}
		return nil, fmt.Errorf("invalid wav container")
	}

	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("unsupported wav format tag: %d", dec.WavAudioFormat)
	}

	sampleRate := int(dec.SampleRate)
	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if err := checkShape(sampleRate, channels); err != nil {
		return nil, err
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read wav samples: %w", err)
	}
	if pcm == nil {
		return nil, fmt.Errorf("wav has no data chunk")
	}

	return deinterleave(intSamples(pcm, bitDepth), channels, sampleRate), nil
}

// intSamples scales interleaved integer samples to [-1, 1]
func intSamples(pcm *goaudio.IntBuffer, bitDepth int) []float64 {
	samples := make([]float64, len(pcm.Data))
	for i, v := range pcm.Data {
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			samples[i] = float64(v-128) / 128
			continue
		}
		samples[i] = audio.IntToFloat(v, bitDepth)
	}
	return samples
}

// Close releases resources
func (d *WAVDecoder) Close() error {
	return nil
}
