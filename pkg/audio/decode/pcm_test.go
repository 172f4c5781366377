// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests 16-bit and 24-bit PCM decoding to float buffers
package decode

import (
	"encoding/binary"
	"testing"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	if decoder == nil {
		t.Fatal("expected decoder to be created")
	}
}

func TestPCMDecode16Bit(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// One stereo frame: L = 0x4000 (16384), R = 0xC000 (-16384)
	input := []byte{0x00, 0x40, 0x00, 0xC0}
	buf, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if buf.NumChannels() != 2 || buf.Len() != 1 {
		t.Fatalf("expected 2 channels x 1 frame, got %d x %d", buf.NumChannels(), buf.Len())
	}
	if buf.SampleRate != 48000 {
		t.Errorf("expected sample rate 48000, got %d", buf.SampleRate)
	}
	if buf.Channels[0][0] != 0.5 {
		t.Errorf("expected left sample 0.5, got %f", buf.Channels[0][0])
	}
	if buf.Channels[1][0] != -0.5 {
		t.Errorf("expected right sample -0.5, got %f", buf.Channels[1][0])
	}
}

func TestPCMDecode24Bit(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 96000,
		Channels:   1,
		BitDepth:   24,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0x400000 = 2^22 -> 0.5, 0xC00000 = -2^22 -> -0.5
	input := []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xC0}
	buf, err := decoder.Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if buf.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", buf.Len())
	}
	if buf.Channels[0][0] != 0.5 {
		t.Errorf("expected first sample 0.5, got %f", buf.Channels[0][0])
	}
	if buf.Channels[0][1] != -0.5 {
		t.Errorf("expected second sample -0.5, got %f", buf.Channels[0][1])
	}
}

func TestPCMDecode_PartialFrame(t *testing.T) {
	decoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 3 samples = 1 full stereo frame + 1 dangling sample
	buf, err := decoder.Decode([]byte{0, 0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if buf.Len() != 1 {
		t.Errorf("expected trailing partial frame to be dropped, got %d frames", buf.Len())
	}
}

func TestNewPCM_InvalidCodec(t *testing.T) {
	format := audio.Format{
		Codec:      "opus",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err == nil {
		t.Fatal("expected error for invalid codec, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for invalid codec")
	}

	expectedError := "invalid codec for PCM decoder: opus"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestNewPCM_UnsupportedBitDepth(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   32,
	}

	decoder, err := NewPCM(format)
	if err == nil {
		t.Fatal("expected error for unsupported bit depth, got nil")
	}

	if decoder != nil {
		t.Fatal("expected decoder to be nil for unsupported bit depth")
	}

	expectedError := "unsupported bit depth: 32 (supported: 16, 24)"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestNewPCM_InvalidShape(t *testing.T) {
	_, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 0, Channels: 1, BitDepth: 16})
	if err == nil {
		t.Error("expected error for zero sample rate")
	}

	_, err = NewPCM(audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 0, BitDepth: 16})
	if err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestPCMDecode_EmptyInput(t *testing.T) {
	format := audio.Format{
		Codec:      "pcm",
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewPCM(format)
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	buf, err := decoder.Decode([]byte{})
	if err != nil {
		t.Fatalf("decode failed with empty input: %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("expected 0 frames from empty input, got %d", buf.Len())
	}
}

func TestPCMDecodeByteOrder(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		order binary.ByteOrder
		input []byte
		want  []float64
	}{
		{"16-bit little-endian", 16, binary.LittleEndian, []byte{0x00, 0x40, 0x00, 0xC0}, []float64{0.5, -0.5}},
		{"16-bit big-endian", 16, binary.BigEndian, []byte{0x40, 0x00, 0xC0, 0x00}, []float64{0.5, -0.5}},
		{"24-bit big-endian", 24, binary.BigEndian, []byte{0x40, 0x00, 0x00, 0xC0, 0x00, 0x00}, []float64{0.5, -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder, err := NewPCMOrder(audio.Format{Codec: CodecPCM, SampleRate: 16000, Channels: 1, BitDepth: tt.depth}, tt.order)
			if err != nil {
				t.Fatalf("failed to create decoder: %v", err)
			}
			buf, err := decoder.Decode(tt.input)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if buf.Len() != len(tt.want) {
				t.Fatalf("expected %d frames, got %d", len(tt.want), buf.Len())
			}
			for i, want := range tt.want {
				if buf.Channels[0][i] != want {
					t.Errorf("sample %d: expected %f, got %f", i, want, buf.Channels[0][i])
				}
			}
		})
	}
}
