// ABOUTME: Audio type definitions
// ABOUTME: Defines decoded float buffers, resample targets and sample conversions
package audio

import (
	"fmt"
	"math"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// SpeechSampleRate is the rate uploads are reduced to before transcription
	SpeechSampleRate = 16000

	// SpeechChannels is the channel count uploads are reduced to (mono)
	SpeechChannels = 1

	// DefaultMaxInputBytes is the encoded-size ceiling checked before decoding (100 MiB)
	DefaultMaxInputBytes = 100 * 1024 * 1024
)

// Format describes an audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Buffer holds decoded audio as one float64 slice per channel.
// Samples are nominally in [-1.0, 1.0]; every channel has the same length.
type Buffer struct {
	SampleRate int
	Channels   [][]float64
}

// NewBuffer allocates a silent buffer with the given shape
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	b := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float64, channels),
	}
	for ch := range b.Channels {
		b.Channels[ch] = make([]float64, frames)
	}
	return b
}

// NumChannels returns the channel count
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Len returns the number of frames (samples per channel)
func (b *Buffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Len()) / float64(b.SampleRate) * float64(time.Second))
}

// Validate checks the buffer invariants: positive rate, at least one channel,
// equal channel lengths
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("nil buffer")
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("buffer has no channels")
	}
	n := len(b.Channels[0])
	for ch, data := range b.Channels[1:] {
		if len(data) != n {
			return fmt.Errorf("channel %d has %d samples, channel 0 has %d", ch+1, len(data), n)
		}
	}
	return nil
}

// Format returns the buffer's format as 16-bit PCM
func (b *Buffer) Format() Format {
	return Format{
		Codec:      "pcm",
		SampleRate: b.SampleRate,
		Channels:   b.NumChannels(),
		BitDepth:   16,
	}
}

// ResampleSpec is the target rate and channel count of a resample pass
type ResampleSpec struct {
	SampleRate int
	Channels   int
}

// SpeechSpec is the fixed 16 kHz mono target used for uploads
var SpeechSpec = ResampleSpec{
	SampleRate: SpeechSampleRate,
	Channels:   SpeechChannels,
}

// Validate checks that the target rate and channel count are usable
func (s ResampleSpec) Validate() error {
	if s.SampleRate <= 0 {
		return fmt.Errorf("invalid target sample rate: %d", s.SampleRate)
	}
	if s.Channels <= 0 {
		return fmt.Errorf("invalid target channel count: %d", s.Channels)
	}
	return nil
}

// OutputLength returns ceil(inputLength * SampleRate / inputRate) using
// integer arithmetic so the result does not depend on float rounding
func (s ResampleSpec) OutputLength(inputLength, inputRate int) int {
	if inputLength <= 0 || inputRate <= 0 {
		return 0
	}
	num := int64(inputLength) * int64(s.SampleRate)
	den := int64(inputRate)
	return int((num + den - 1) / den)
}

// FloatToInt16 clamps a float sample to [-1, 1] and scales it to int16.
// Non-negative values scale by 32767, negative values by 32768; the product
// is truncated toward zero.
func FloatToInt16(sample float64) int16 {
	if math.IsNaN(sample) {
		return 0
	}
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}
	if sample < 0 {
		return int16(sample * 0x8000)
	}
	return int16(sample * 0x7FFF)
}

// Int16ToFloat converts an int16 sample to a float in [-1, 1)
func Int16ToFloat(sample int16) float64 {
	return float64(sample) / 0x8000
}

// IntToFloat converts a signed integer sample of the given bit depth to a float
func IntToFloat(sample int, bitDepth int) float64 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	return float64(sample) / float64(int64(1)<<(bitDepth-1))
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// FloatTo24Bit clamps and scales a float sample into the 24-bit range
func FloatTo24Bit(sample float64) int32 {
	if math.IsNaN(sample) {
		return 0
	}
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}
	if sample < 0 {
		return int32(sample * -Min24Bit)
	}
	return int32(sample * Max24Bit)
}
