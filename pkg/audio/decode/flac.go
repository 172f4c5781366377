// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC streams frame by frame to float buffers
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// NewFLAC creates a new FLAC decoder
func NewFLAC() Decoder {
	return &FLACDecoder{}
}

// Decode converts FLAC bytes to a float buffer
func (d *FLACDecoder) Decode(data []byte) (*audio.Buffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	sampleRate := int(info.SampleRate)
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if err := checkShape(sampleRate, channels); err != nil {
		return nil, err
	}

	buf := audio.NewBuffer(sampleRate, channels, 0)
	if info.NSamples > 0 {
		for ch := range buf.Channels {
			buf.Channels[ch] = make([]float64, 0, int(info.NSamples))
		}
	}

	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		if len(frame.Subframes) < channels {
			return nil, fmt.Errorf("FLAC frame has %d subframes, expected %d", len(frame.Subframes), channels)
		}

		// FLAC stores samples as signed integers with the stream's bit depth
		for ch := 0; ch < channels; ch++ {
			sub := frame.Subframes[ch].Samples
			for i := 0; i < int(frame.BlockSize) && i < len(sub); i++ {
				buf.Channels[ch] = append(buf.Channels[ch], audio.IntToFloat(int(sub[i]), bitDepth))
			}
		}
	}

	return buf, nil
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	return nil
}
