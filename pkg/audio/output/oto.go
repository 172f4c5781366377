// ABOUTME: Oto-based audio output implementation
// ABOUTME: Handles PCM playback with software volume control using oto library
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	volume     int
	muted      bool
	ready      bool
	logger     *slog.Logger
}

// NewOto creates a new Oto output
func NewOto(logger *slog.Logger) *Oto {
	if logger == nil {
		logger = slog.Default()
	}
	return &Oto{
		volume: 100,
		logger: logger,
	}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	if o.otoCtx != nil && o.sampleRate == sampleRate && o.channels == channels {
		return o.startPlayer()
	}

	// oto allows one context per process
	if o.otoCtx != nil {
		return fmt.Errorf("audio output already opened at %dHz %dch", o.sampleRate, o.channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	o.logger.Debug("audio output initialized", "sample_rate", sampleRate, "channels", channels)
	return o.startPlayer()
}

func (o *Oto) startPlayer() error {
	if o.ready {
		return nil
	}
	if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	// Persistent player fed through a pipe
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true
	return nil
}

// Write outputs audio samples (blocks until written)
func (o *Oto) Write(samples []int16) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	samples = applyVolume(samples, o.volume, o.muted)

	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}

	if _, err := o.pipeWriter.Write(out); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close releases output resources. The oto context is suspended, not
// destroyed, so Open may be called again with the same format.
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	o.ready = false
	if o.otoCtx != nil {
		return o.otoCtx.Suspend()
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	o.volume = max(0, min(100, volume))
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.muted = muted
}

// Volume returns current volume
func (o *Oto) Volume() int {
	return o.volume
}

// applyVolume scales samples by volume with clipping protection
func applyVolume(samples []int16, volume int, muted bool) []int16 {
	if volume == 100 && !muted {
		return samples
	}
	multiplier := getVolumeMultiplier(volume, muted)

	result := make([]int16, len(samples))
	for i, sample := range samples {
		scaled := int32(float64(sample) * multiplier)
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		result[i] = int16(scaled)
	}
	return result
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
