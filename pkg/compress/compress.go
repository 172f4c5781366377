// ABOUTME: Upload compression pipeline: size guard, decode, resample, encode
// ABOUTME: Prepare applies the fallback policy so callers always get sendable bytes
package compress

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/decode"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/encode"
	"github.com/oli8788/stek-meeting-minutes/pkg/audio/resample"
)

// WAVMIMEType is the MIME type of compressed output
const WAVMIMEType = "audio/wav"

// Compressor reduces uploads to a speech-friendly WAV
type Compressor struct {
	// Spec is the output rate and channel count
	Spec audio.ResampleSpec

	// MaxInputBytes rejects larger inputs before decoding. 0 disables the check.
	MaxInputBytes int64

	Logger *slog.Logger
}

// New creates a compressor targeting 16 kHz mono with the default size ceiling
func New() *Compressor {
	return &Compressor{
		Spec:          audio.SpeechSpec,
		MaxInputBytes: audio.DefaultMaxInputBytes,
		Logger:        slog.Default(),
	}
}

// Compress decodes data, resamples it to c.Spec and encodes a 16-bit WAV.
// Errors are *audio.SizeExceededError, *audio.DecodeError, *audio.EncodeError
// or the context's error.
func (c *Compressor) Compress(ctx context.Context, data []byte) ([]byte, error) {
	return c.CompressAs(ctx, data, "")
}

// CompressAs is Compress for data of a known MIME type. Headerless
// audio/L16, audio/L24 (big-endian) and audio/pcm (16-bit little-endian)
// need a rate parameter; any other type is sniffed from the bytes.
func (c *Compressor) CompressAs(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	out, err := c.Resampled(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	enc := encode.NewWAV()
	defer enc.Close()
	blob, err := enc.Encode(out)
	if err != nil {
		return nil, err
	}

	c.logger().Debug("audio compressed",
		"input_bytes", len(data),
		"output_bytes", len(blob),
		"duration", out.Duration().Round(time.Millisecond))

	return blob, nil
}

// Resampled decodes data and converts it to c.Spec without encoding
func (c *Compressor) Resampled(ctx context.Context, data []byte, mimeType string) (*audio.Buffer, error) {
	if c.MaxInputBytes > 0 && int64(len(data)) > c.MaxInputBytes {
		return nil, &audio.SizeExceededError{Size: int64(len(data)), Limit: c.MaxInputBytes}
	}

	buf, err := decodeAs(data, mimeType)
	if err != nil {
		return nil, err
	}
	c.logger().Debug("audio decoded",
		"input_rate", buf.SampleRate,
		"input_channels", buf.NumChannels(),
		"duration", buf.Duration().Round(time.Millisecond))

	out, err := resample.Resample(ctx, buf, c.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to resample: %w", err)
	}
	return out, nil
}

// decodeAs routes raw PCM MIME types to the PCM decoder and sniffs the rest
func decodeAs(data []byte, mimeType string) (*audio.Buffer, error) {
	raw, ok, err := RawFormat(mimeType)
	if err != nil {
		return nil, &audio.DecodeError{Codec: decode.CodecPCM, Err: err}
	}
	if !ok {
		return decode.Decode(data)
	}

	dec, err := decode.NewPCMOrder(raw.Format, raw.Order)
	if err != nil {
		return nil, &audio.DecodeError{Codec: decode.CodecPCM, Err: err}
	}
	defer dec.Close()

	buf, err := dec.Decode(data)
	if err != nil {
		return nil, &audio.DecodeError{Codec: decode.CodecPCM, Err: err}
	}
	return buf, nil
}

// RawPCM is the shape of a headerless upload
type RawPCM struct {
	Format audio.Format
	Order  binary.ByteOrder
}

// RawFormat parses raw PCM media types:
//
//	audio/L16; rate=16000; channels=2   16-bit big-endian (RFC 3551)
//	audio/L24; rate=48000               24-bit big-endian
//	audio/pcm; rate=16000               16-bit little-endian
//
// ok is false for anything else. channels defaults to 1.
func RawFormat(mimeType string) (RawPCM, bool, error) {
	if mimeType == "" {
		return RawPCM{}, false, nil
	}
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return RawPCM{}, false, nil
	}

	raw := RawPCM{
		Format: audio.Format{Codec: decode.CodecPCM, Channels: 1},
		Order:  binary.BigEndian,
	}
	switch strings.ToLower(mediaType) {
	case "audio/l16":
		raw.Format.BitDepth = 16
	case "audio/l24":
		raw.Format.BitDepth = 24
	case "audio/pcm":
		raw.Format.BitDepth = 16
		raw.Order = binary.LittleEndian
	default:
		return RawPCM{}, false, nil
	}

	rate, ok := params["rate"]
	if !ok {
		return RawPCM{}, true, fmt.Errorf("%s needs a rate parameter", mediaType)
	}
	if raw.Format.SampleRate, err = strconv.Atoi(rate); err != nil {
		return RawPCM{}, true, fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	if ch, ok := params["channels"]; ok {
		if raw.Format.Channels, err = strconv.Atoi(ch); err != nil {
			return RawPCM{}, true, fmt.Errorf("invalid channels %q: %w", ch, err)
		}
	}
	return raw, true, nil
}

func (c *Compressor) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Payload is what gets sent to the model: either the compressed WAV or the
// original upload
type Payload struct {
	Data     []byte
	MIMEType string

	// Compressed is true when Data is the compressed WAV
	Compressed bool

	OriginalSize int

	// Err records why compression was skipped, nil when it succeeded or
	// when the result was discarded for not being smaller
	Err error
}

// Prepare compresses data and falls back to the original bytes on any error
// or when the compressed blob is not smaller. It never fails.
func Prepare(ctx context.Context, c *Compressor, data []byte, mimeType string) Payload {
	original := Payload{
		Data:         data,
		MIMEType:     mimeType,
		OriginalSize: len(data),
	}

	blob, err := c.CompressAs(ctx, data, mimeType)
	if err != nil {
		c.logger().Warn("audio compression failed, using original", "error", err, "bytes", len(data))
		original.Err = err
		return original
	}

	if len(blob) >= len(data) {
		c.logger().Info("compressed audio not smaller, using original",
			"original_bytes", len(data), "compressed_bytes", len(blob))
		return original
	}

	return Payload{
		Data:         blob,
		MIMEType:     WAVMIMEType,
		Compressed:   true,
		OriginalSize: len(data),
	}
}

// Ratio returns compressed size over original size
func (p Payload) Ratio() float64 {
	if p.OriginalSize == 0 {
		return 1
	}
	return float64(len(p.Data)) / float64(p.OriginalSize)
}
