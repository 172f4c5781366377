// ABOUTME: One-shot buffer resampling to a target rate and channel count
// ABOUTME: Downmixes by channel average, then linearly interpolates with a hold-last tail
package resample

import (
	"context"
	"fmt"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
)

// cancelCheckInterval is how many output frames pass between context checks
const cancelCheckInterval = 4096

// Resample converts buf to spec's sample rate and channel count.
//
// Output length is spec.OutputLength(buf.Len(), buf.SampleRate). When the
// rates match the samples are copied unchanged. Otherwise output frame i reads
// source position p = i*inRate/outRate and interpolates between floor(p) and
// floor(p)+1, holding the last input sample past the end.
//
// The input buffer is not modified.
func Resample(ctx context.Context, buf *audio.Buffer, spec audio.ResampleSpec) (*audio.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input buffer: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	mixed := Remix(buf.Channels, spec.Channels)
	inLen := buf.Len()
	outLen := spec.OutputLength(inLen, buf.SampleRate)

	out := &audio.Buffer{
		SampleRate: spec.SampleRate,
		Channels:   make([][]float64, len(mixed)),
	}

	if buf.SampleRate == spec.SampleRate {
		for ch, data := range mixed {
			out.Channels[ch] = append([]float64(nil), data...)
		}
		return out, nil
	}

	for ch := range out.Channels {
		out.Channels[ch] = make([]float64, outLen)
	}

	inRate := float64(buf.SampleRate)
	outRate := float64(spec.SampleRate)
	for i := 0; i < outLen; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		p := float64(i) * inRate / outRate
		j := int(p)
		f := p - float64(j)
		for ch, x := range mixed {
			out.Channels[ch][i] = interpolate(x, j, f)
		}
	}

	return out, nil
}

// interpolate reads x at fractional index j+f, holding the last sample
// once j+1 runs off the end
func interpolate(x []float64, j int, f float64) float64 {
	n := len(x)
	if j+1 >= n {
		return x[n-1]
	}
	return x[j]*(1-f) + x[j+1]*f
}

// Remix maps channels to the requested count. Reducing to mono averages every
// channel per frame; other reductions keep the leading channels; widening
// repeats channel 0. Matching counts return the input slices unchanged.
func Remix(channels [][]float64, target int) [][]float64 {
	switch {
	case len(channels) == target:
		return channels
	case target == 1:
		return [][]float64{Downmix(channels)}
	case target < len(channels):
		return channels[:target]
	default:
		out := make([][]float64, target)
		copy(out, channels)
		for ch := len(channels); ch < target; ch++ {
			out[ch] = channels[0]
		}
		return out
	}
}

// Downmix averages all channels into one
func Downmix(channels [][]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	if len(channels) == 1 {
		return channels[0]
	}

	n := len(channels[0])
	mono := make([]float64, n)
	scale := float64(len(channels))
	for i := 0; i < n; i++ {
		var sum float64
		for _, data := range channels {
			sum += data[i]
		}
		mono[i] = sum / scale
	}
	return mono
}
