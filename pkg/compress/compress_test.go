// ABOUTME: Tests for recording compression
// ABOUTME: Checks output shape, size ceilings, raw PCM input and fallback
package compress

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/encode"
)

func wavBlob(t *testing.T, rate, channels, frames int) []byte {
	t.Helper()
	blob, err := encode.WAV(audio.NewBuffer(rate, channels, frames))
	require.NoError(t, err)
	return blob
}

func TestCompress_StereoSilence(t *testing.T) {
	input := wavBlob(t, 44100, 2, 44100)

	blob, err := New().Compress(context.Background(), input)
	require.NoError(t, err)

	assert.Len(t, blob, 32044)

	h, err := encode.ReadWAVHeader(blob)
	require.NoError(t, err)
	assert.Equal(t, uint32(32036), h.ChunkSize)
	assert.Equal(t, uint32(32000), h.Subchunk2Size)
	assert.Equal(t, uint16(1), h.NumChannels)
	assert.Equal(t, uint32(16000), h.SampleRate)

	for i := 44; i < len(blob); i += 2 {
		if binary.LittleEndian.Uint16(blob[i:]) != 0 {
			t.Fatalf("expected silence, found non-zero sample at byte %d", i)
		}
	}
}

func TestCompress_Deterministic(t *testing.T) {
	src := audio.NewBuffer(48000, 2, 4800)
	for i := range src.Channels[0] {
		src.Channels[0][i] = float64(i%100) / 100
		src.Channels[1][i] = -float64(i%50) / 50
	}
	input, err := encode.WAV(src)
	require.NoError(t, err)

	c := New()
	a, err := c.Compress(context.Background(), input)
	require.NoError(t, err)
	b, err := c.Compress(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCompress_SizeCeiling(t *testing.T) {
	c := New()
	c.MaxInputBytes = 100

	_, err := c.Compress(context.Background(), make([]byte, 101))

	var sizeErr *audio.SizeExceededError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, int64(101), sizeErr.Size)
	assert.Equal(t, int64(100), sizeErr.Limit)
}

func TestCompress_SizeCeilingDisabled(t *testing.T) {
	c := New()
	c.MaxInputBytes = 0

	_, err := c.Compress(context.Background(), make([]byte, 101))

	var sizeErr *audio.SizeExceededError
	assert.NotErrorAs(t, err, &sizeErr, "ceiling should be disabled")

	var decErr *audio.DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestCompress_DecodeError(t *testing.T) {
	_, err := New().Compress(context.Background(), []byte("definitely not audio"))

	var decErr *audio.DecodeError
	assert.ErrorAs(t, err, &decErr)
}

func TestPrepare_FallbackOnError(t *testing.T) {
	input := []byte("corrupt upload bytes")

	p := Prepare(context.Background(), New(), input, "audio/webm")

	assert.Equal(t, input, p.Data)
	assert.Equal(t, "audio/webm", p.MIMEType)
	assert.False(t, p.Compressed)
	assert.Error(t, p.Err)
	assert.Equal(t, len(input), p.OriginalSize)
}

func TestPrepare_KeepsOriginalWhenNotSmaller(t *testing.T) {
	// Already 16 kHz mono: compression yields the same size
	input := wavBlob(t, 16000, 1, 1600)

	p := Prepare(context.Background(), New(), input, "audio/wav")

	assert.Equal(t, input, p.Data)
	assert.False(t, p.Compressed)
	assert.NoError(t, p.Err)
	assert.Equal(t, 1.0, p.Ratio())
}

func TestPrepare_UsesCompressedWhenSmaller(t *testing.T) {
	input := wavBlob(t, 48000, 2, 48000)

	p := Prepare(context.Background(), New(), input, "audio/x-wav")

	require.True(t, p.Compressed)
	assert.Equal(t, WAVMIMEType, p.MIMEType)
	assert.Less(t, len(p.Data), len(input))
	assert.Len(t, p.Data, 32044)
	assert.NoError(t, p.Err)
	assert.Less(t, p.Ratio(), 1.0)
}

func TestPrepare_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := wavBlob(t, 44100, 1, 44100)
	p := Prepare(ctx, New(), input, "audio/wav")

	assert.Equal(t, input, p.Data)
	assert.ErrorIs(t, p.Err, context.Canceled)
}

func TestRawFormat(t *testing.T) {
	tests := []struct {
		mime    string
		ok      bool
		wantErr bool
		want    RawPCM
	}{
		{mime: "", ok: false},
		{mime: "audio/wav", ok: false},
		{mime: "not a mime;;", ok: false},
		{mime: "audio/L16; rate=16000", ok: true, want: RawPCM{
			Format: audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 16},
			Order:  binary.BigEndian,
		}},
		{mime: "audio/l24;rate=48000;channels=2", ok: true, want: RawPCM{
			Format: audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24},
			Order:  binary.BigEndian,
		}},
		{mime: "audio/pcm; rate=16000", ok: true, want: RawPCM{
			Format: audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 16},
			Order:  binary.LittleEndian,
		}},
		{mime: "audio/L16", ok: true, wantErr: true},
		{mime: "audio/L16; rate=fast", ok: true, wantErr: true},
		{mime: "audio/L16; rate=8000; channels=two", ok: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			got, ok, err := RawFormat(tt.mime)
			assert.Equal(t, tt.ok, ok)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompressAs_RawL16(t *testing.T) {
	// one second of 48 kHz stereo silence
	input := make([]byte, 48000*2*2)

	blob, err := New().CompressAs(context.Background(), input, "audio/L16; rate=48000; channels=2")
	require.NoError(t, err)
	assert.Len(t, blob, 32044)

	h, err := encode.ReadWAVHeader(blob)
	require.NoError(t, err)
	assert.Equal(t, uint32(16000), h.SampleRate)
	assert.Equal(t, uint16(1), h.NumChannels)
}

func TestResampled_RawByteOrder(t *testing.T) {
	c := &Compressor{Spec: audio.ResampleSpec{SampleRate: 16000, Channels: 1}}

	tests := []struct {
		mime  string
		frame []byte
	}{
		{"audio/L16; rate=16000", []byte{0x40, 0x00}},
		{"audio/pcm; rate=16000", []byte{0x00, 0x40}},
		{"audio/L24; rate=16000", []byte{0x40, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			input := bytes.Repeat(tt.frame, 4)
			buf, err := c.Resampled(context.Background(), input, tt.mime)
			require.NoError(t, err)
			assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, buf.Channels[0])
		})
	}
}

func TestCompressAs_RawMissingRate(t *testing.T) {
	_, err := New().CompressAs(context.Background(), make([]byte, 64), "audio/L16")

	var decErr *audio.DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, "pcm", decErr.Codec)
}

func TestPrepare_RawPCM(t *testing.T) {
	input := make([]byte, 44100*2*2)

	p := Prepare(context.Background(), New(), input, "audio/L16; rate=44100; channels=2")
	assert.True(t, p.Compressed)
	assert.Equal(t, WAVMIMEType, p.MIMEType)
	assert.Len(t, p.Data, 32044)
	assert.NoError(t, p.Err)
}

func TestResampled(t *testing.T) {
	input := wavBlob(t, 22050, 2, 22050)

	c := &Compressor{Spec: audio.ResampleSpec{SampleRate: 8000, Channels: 2}}
	buf, err := c.Resampled(context.Background(), input, "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, 8000, buf.SampleRate)
	assert.Equal(t, 2, buf.NumChannels())
	assert.Equal(t, 8000, buf.Len())
}
