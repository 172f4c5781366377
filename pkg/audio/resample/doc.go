// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between sample rates and channel layouts
// Package resample provides audio sample rate conversion.
//
// Resample converts a whole buffer: channels are remixed first (mono is the
// average of all inputs), then each channel is linearly interpolated. The
// output length is ceil(len*outRate/inRate) and equal rates copy the input.
//
// Resampler is the streaming form for interleaved chunks and uses the same
// interpolation rule.
//
// Example:
//
//	mono, err := resample.Resample(ctx, buf, audio.SpeechSpec)
//
//	r := resample.New(44100, 16000, 1)
//	n := r.Resample(inputSamples, outputSamples)
//	n += r.Flush(outputSamples[n:])
package resample
