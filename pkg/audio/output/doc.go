// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface and the oto implementation
// Package output plays decoded audio, used to preview compressed uploads.
//
// Example:
//
//	out := output.NewOto(logger)
//	err := output.Play(ctx, out, buf)
//
// PlayAt opens the device at another rate and resamples while streaming:
//
//	err := output.PlayAt(ctx, out, buf, 48000)
package output
