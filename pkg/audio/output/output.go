// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for playback backends plus a context-aware Play helper
package output

import (
	"context"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/resample"
)

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs interleaved 16-bit samples (blocks until written)
	Write(samples []int16) error

	// Close releases output resources
	Close() error
}

// playChunk is how many frames Play hands the device per write
const playChunk = 4096

// Play opens out for buf's format and writes it in chunks, stopping early
// when ctx is cancelled
func Play(ctx context.Context, out Output, buf *audio.Buffer) error {
	return PlayAt(ctx, out, buf, 0)
}

// PlayAt is Play with the device opened at deviceRate. Chunks are streamed
// through a linear resampler when deviceRate differs from buf's rate; 0 keeps
// buf's rate.
func PlayAt(ctx context.Context, out Output, buf *audio.Buffer, deviceRate int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	if deviceRate <= 0 {
		deviceRate = buf.SampleRate
	}
	channels := buf.NumChannels()
	if err := out.Open(deviceRate, channels); err != nil {
		return err
	}
	defer out.Close()

	var rs *resample.Resampler
	if deviceRate != buf.SampleRate {
		rs = resample.New(buf.SampleRate, deviceRate, channels)
	}

	n := buf.Len()
	for off := 0; off < n; off += playChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(off+playChunk, n)
		if rs == nil {
			if err := out.Write(Interleave(buf, off, end)); err != nil {
				return err
			}
			continue
		}

		in := interleaveFloat(buf, off, end)
		converted := make([]float64, rs.OutputSamplesNeeded(len(in)))
		written := rs.Resample(in, converted)
		if err := out.Write(toInt16(converted[:written])); err != nil {
			return err
		}
	}

	if rs != nil {
		tail := make([]float64, rs.OutputSamplesNeeded(channels))
		if written := rs.Flush(tail); written > 0 {
			return out.Write(toInt16(tail[:written]))
		}
	}
	return nil
}

// Interleave converts frames [from, to) of buf to interleaved int16 samples
func Interleave(buf *audio.Buffer, from, to int) []int16 {
	return toInt16(interleaveFloat(buf, from, to))
}

func interleaveFloat(buf *audio.Buffer, from, to int) []float64 {
	channels := buf.NumChannels()
	samples := make([]float64, 0, (to-from)*channels)
	for i := from; i < to; i++ {
		for ch := 0; ch < channels; ch++ {
			samples = append(samples, buf.Channels[ch][i])
		}
	}
	return samples
}

func toInt16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = audio.FloatToInt16(s)
	}
	return out
}
