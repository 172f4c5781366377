// ABOUTME: Tests for audio types
// ABOUTME: Tests buffer invariants, the output length law and sample conversions
package audio

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestFloatToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"zero", 0, 0},
		{"max", 1.0, 32767},
		{"min", -1.0, -32768},
		{"half positive", 0.5, 16383},
		{"half negative", -0.5, -16384},
		{"clamp high", 2.0, 32767},
		{"clamp low", -2.0, -32768},
		{"tiny positive truncates", 0.00001, 0},
		{"tiny negative truncates", -0.00001, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FloatToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestIntToFloat(t *testing.T) {
	tests := []struct {
		name     string
		sample   int
		bitDepth int
		expected float64
	}{
		{"16-bit half", 16384, 16, 0.5},
		{"16-bit min", -32768, 16, -1.0},
		{"24-bit half", 1 << 22, 24, 0.5},
		{"32-bit quarter", 1 << 29, 32, 0.25},
		{"invalid depth", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IntToFloat(tt.sample, tt.bitDepth)
			if result != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestSampleTo24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleTo24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"positive", [3]byte{0x56, 0x34, 0x12}, 0x123456},
		{"negative", [3]byte{0x00, 0xFF, 0xFF}, -256},
		{"max positive", [3]byte{0xFF, 0xFF, 0x7F}, Max24Bit},
		{"max negative", [3]byte{0x00, 0x00, 0x80}, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestRoundTrip24Bit(t *testing.T) {
	samples := []int32{0, 100000, -100000, Max24Bit, Min24Bit}

	for _, original := range samples {
		bytes := SampleTo24Bit(original)
		result := SampleFrom24Bit(bytes)
		if result != original {
			t.Errorf("round-trip failed: %d -> %v -> %d", original, bytes, result)
		}
	}
}

func TestOutputLength(t *testing.T) {
	tests := []struct {
		inLen, inRate, want int
	}{
		{44100, 44100, 16000},
		{44101, 44100, 16001},
		{48000, 48000, 16000},
		{1, 48000, 1},
		{0, 48000, 0},
		{100, 0, 0},
		{16000, 16000, 16000},
		{8000, 8000, 16000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d@%d", tt.inLen, tt.inRate), func(t *testing.T) {
			got := SpeechSpec.OutputLength(tt.inLen, tt.inRate)
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestBufferValidate(t *testing.T) {
	tests := []struct {
		name    string
		buf     *Buffer
		wantErr bool
	}{
		{"valid", NewBuffer(16000, 2, 10), false},
		{"empty frames", NewBuffer(16000, 1, 0), false},
		{"nil", nil, true},
		{"zero rate", NewBuffer(0, 1, 10), true},
		{"no channels", NewBuffer(16000, 0, 10), true},
		{"ragged", &Buffer{SampleRate: 16000, Channels: [][]float64{{0, 0}, {0}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buf.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBufferShape(t *testing.T) {
	buf := NewBuffer(16000, 2, 8000)

	if buf.NumChannels() != 2 {
		t.Errorf("expected 2 channels, got %d", buf.NumChannels())
	}
	if buf.Len() != 8000 {
		t.Errorf("expected 8000 frames, got %d", buf.Len())
	}
	if buf.Duration() != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", buf.Duration())
	}

	var empty Buffer
	if empty.Len() != 0 || empty.Duration() != 0 {
		t.Error("expected zero length and duration for empty buffer")
	}

	want := Format{Codec: "pcm", SampleRate: 16000, Channels: 2, BitDepth: 16}
	if got := buf.Format(); got != want {
		t.Errorf("expected format %+v, got %+v", want, got)
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("bad frame")

	var err error = &DecodeError{Codec: "flac", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("DecodeError should unwrap to its cause")
	}
	var de *DecodeError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &de) || de.Codec != "flac" {
		t.Error("DecodeError should match through wrapping")
	}

	err = &EncodeError{Err: cause}
	if !errors.Is(err, cause) {
		t.Error("EncodeError should unwrap to its cause")
	}

	err = &SizeExceededError{Size: 200, Limit: 100}
	expected := "audio input is 200 bytes, exceeds limit of 100 bytes"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}
