// ABOUTME: compress and preview commands
// ABOUTME: Re-encode recordings to the upload format or raw PCM and report savings
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/encode"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/output"
	"github.com/oli8788/stek-meeting-minutes/pkg/compress"
)

type compressFlags struct {
	rate     int
	channels int
	mimeType string
}

func (f *compressFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.rate, "rate", audio.SpeechSampleRate, "Output sample rate")
	cmd.Flags().IntVar(&f.channels, "channels", audio.SpeechChannels, "Output channel count")
	cmd.Flags().StringVar(&f.mimeType, "mime", "", `Input type for headerless PCM, e.g. "audio/L16; rate=48000; channels=2"`)
}

func (f *compressFlags) compressor(g *globalFlags, cmd *cobra.Command) (*compress.Compressor, func(), error) {
	spec := audio.ResampleSpec{SampleRate: f.rate, Channels: f.channels}
	if err := spec.Validate(); err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := g.logger(cmd, false)
	if err != nil {
		return nil, nil, err
	}
	comp := compress.New()
	comp.Spec = spec
	comp.Logger = logger
	return comp, closeLog, nil
}

// rawPCM decodes and resamples data, then packs it as headerless 16-bit
// little-endian PCM: the data chunk the WAV output would carry
func rawPCM(ctx context.Context, comp *compress.Compressor, data []byte, mimeType string) ([]byte, error) {
	buf, err := comp.Resampled(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}
	enc, err := encode.NewPCM(buf.Format())
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.Encode(buf)
}

func newCompressCmd(g *globalFlags) *cobra.Command {
	f := &compressFlags{}
	var raw bool

	cmd := &cobra.Command{
		Use:   "compress <in> <out.wav>",
		Short: "Reduce a recording to a speech WAV",
		Long: `Decode a WAV, MP3, FLAC or Ogg Opus file, resample it and write a 16-bit WAV.

Unlike analyze, a decode failure is an error here rather than a fallback.
Headerless PCM input needs --mime: audio/L16 and audio/L24 are big-endian
(RFC 3551), audio/pcm is 16-bit little-endian. --raw writes the samples
without the WAV header as 16-bit little-endian, which reads back with
--mime "audio/pcm; rate=<rate>; channels=<channels>".

Examples:
  minutes compress weekly.mp3 weekly.wav
  minutes compress weekly.flac weekly-8k.wav --rate 8000
  minutes compress capture.pcm weekly.wav --mime "audio/pcm; rate=48000; channels=2"
  minutes compress weekly.mp3 weekly.pcm --raw`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, closeLog, err := f.compressor(g, cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var blob []byte
			if raw {
				blob, err = rawPCM(cmd.Context(), comp, data, f.mimeType)
			} else {
				blob, err = comp.CompressAs(cmd.Context(), data, f.mimeType)
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], blob, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[1], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes → %s: %d bytes (%.1f%%)\n",
				args[0], len(data), args[1], len(blob), 100*float64(len(blob))/float64(len(data)))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "Write headerless 16-bit little-endian PCM")
	return cmd
}

func newPreviewCmd(g *globalFlags) *cobra.Command {
	f := &compressFlags{}
	var deviceRate int

	cmd := &cobra.Command{
		Use:   "preview <audio-file>",
		Short: "Play a recording as the model will hear it",
		Long: `Compress a recording and play the result through the default output device.

The device runs at --device-rate; the speech-rate stream is upsampled while
it plays. Pass 0 to open the device at the compressed rate.

Examples:
  minutes preview weekly.mp3
  minutes preview weekly.mp3 --device-rate 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, closeLog, err := f.compressor(g, cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			buf, err := comp.Resampled(cmd.Context(), data, f.mimeType)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (%s, %d Hz, %d ch). Ctrl+C to stop.\n",
				args[0], buf.Duration().Round(time.Millisecond), buf.SampleRate, buf.NumChannels())
			err = output.PlayAt(cmd.Context(), output.NewOto(comp.Logger), buf, deviceRate)
			if cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&deviceRate, "device-rate", 48000, "Playback device sample rate")
	return cmd
}
