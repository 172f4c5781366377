// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Buffer, ResampleSpec, the error taxonomy and sample conversions
// Package audio provides the fundamental types shared by the compression pipeline.
//
// This package defines:
//   - Buffer: decoded audio, one float64 slice per channel at a known sample rate
//   - ResampleSpec: target sample rate and channel count (SpeechSpec is 16 kHz mono)
//   - DecodeError, SizeExceededError, EncodeError: the pipeline's failure kinds
//
// It also provides sample conversions:
//   - float ↔ int16 with the clamp/scale rule used for WAV output
//   - arbitrary bit depth integers → float
//   - int32 ↔ packed 24-bit bytes
//
// Example:
//
//	buf := audio.NewBuffer(44100, 2, 44100)
//	n := audio.SpeechSpec.OutputLength(buf.Len(), buf.SampleRate) // 16000
//	s := audio.FloatToInt16(1.5) // 32767
package audio
