// ABOUTME: Tests for the MP3 decoder
// ABOUTME: Decodes silent MPEG-1 Layer III frames and checks rate and forced stereo
package decode

import (
	"testing"
)

// MPEG-1 Layer III, no CRC, 128kbps, 44.1kHz, no padding
const mp3FrameSize = 144 * 128000 / 44100

// silentMP3 builds frames whose side info is all zero, which decode to silence
func silentMP3(frames int, mono bool) []byte {
	mode := byte(0x00)
	if mono {
		mode = 0xC0
	}
	out := make([]byte, 0, frames*mp3FrameSize)
	for i := 0; i < frames; i++ {
		frame := make([]byte, mp3FrameSize)
		copy(frame, []byte{0xFF, 0xFB, 0x90, mode})
		out = append(out, frame...)
	}
	return out
}

func TestMP3Decode(t *testing.T) {
	tests := []struct {
		name string
		mono bool
	}{
		{"stereo", false},
		{"mono upmixed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := silentMP3(8, tt.mono)
			if got := Sniff(blob); got != CodecMP3 {
				t.Fatalf("Sniff() = %q, want %q", got, CodecMP3)
			}

			buf, err := Decode(blob)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if buf.SampleRate != 44100 {
				t.Errorf("SampleRate = %d, want 44100", buf.SampleRate)
			}
			if buf.NumChannels() != 2 {
				t.Errorf("channels = %d, want 2", buf.NumChannels())
			}
			// 1152 samples per Layer III frame
			if n := buf.NumFrames(); n == 0 || n%1152 != 0 {
				t.Errorf("frames = %d, want a non-zero multiple of 1152", n)
			}
			for ch := range buf.Channels {
				for i, s := range buf.Channels[ch] {
					if s != 0 {
						t.Fatalf("channel %d sample %d = %v, want silence", ch, i, s)
					}
				}
			}
		})
	}
}

func TestMP3Decode_Garbage(t *testing.T) {
	if _, err := NewMP3().Decode([]byte{0xFF, 0xFB, 0x00}); err == nil {
		t.Error("expected error for truncated mp3")
	}
}
