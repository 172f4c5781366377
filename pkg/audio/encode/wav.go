// ABOUTME: WAV audio encoder
// ABOUTME: Serialises float buffers as 16-bit PCM RIFF/WAVE blobs
package encode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
)

const (
	// WAVHeaderSize is the size of the canonical PCM header
	WAVHeaderSize = 44

	wavBitsPerSample = 16
	wavFormatPCM     = 1
)

// WAVHeader is the canonical 44-byte PCM header, little-endian, no padding
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // total length - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * 2
	BlockAlign    uint16 // NumChannels * 2
	BitsPerSample uint16 // 16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // total length - 44
}

// NewWAVHeader builds the header for dataSize bytes of 16-bit PCM
func NewWAVHeader(sampleRate, channels int, dataSize uint32) WAVHeader {
	blockAlign := uint16(channels * wavBitsPerSample / 8)
	return WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   wavFormatPCM,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: wavBitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// WAVEncoder encodes float buffers as WAV
type WAVEncoder struct{}

// NewWAV creates a new WAV encoder
func NewWAV() Encoder {
	return &WAVEncoder{}
}

// Encode converts the buffer to a WAV blob
func (e *WAVEncoder) Encode(buf *audio.Buffer) ([]byte, error) {
	return WAV(buf)
}

// Close releases resources
func (e *WAVEncoder) Close() error {
	return nil
}

// WAV serialises buf as a 16-bit PCM WAV blob with channels interleaved
// frame by frame. Invalid buffers return *audio.EncodeError.
func WAV(buf *audio.Buffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, &audio.EncodeError{Err: err}
	}
	// BlockAlign is channels*2 in a uint16
	if buf.NumChannels() > math.MaxUint16/2 {
		return nil, &audio.EncodeError{Err: fmt.Errorf("too many channels: %d", buf.NumChannels())}
	}

	channels := buf.NumChannels()
	frames := buf.Len()
	dataSize := uint64(frames) * uint64(channels) * 2
	if dataSize > math.MaxUint32-36 {
		return nil, &audio.EncodeError{Err: fmt.Errorf("data size %d exceeds wav limit", dataSize)}
	}

	header := NewWAVHeader(buf.SampleRate, channels, uint32(dataSize))

	out := bytes.NewBuffer(make([]byte, 0, WAVHeaderSize+int(dataSize)))
	if err := binary.Write(out, binary.LittleEndian, header); err != nil {
		return nil, &audio.EncodeError{Err: fmt.Errorf("failed to write WAV header: %w", err)}
	}

	data := make([]byte, dataSize)
	off := 0
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(data[off:], uint16(audio.FloatToInt16(buf.Channels[ch][i])))
			off += 2
		}
	}
	out.Write(data)

	return out.Bytes(), nil
}

// ReadWAVHeader parses the canonical header from the front of a blob
func ReadWAVHeader(data []byte) (WAVHeader, error) {
	var h WAVHeader
	if len(data) < WAVHeaderSize {
		return h, fmt.Errorf("WAV data too short: need at least %d bytes, got %d", WAVHeaderSize, len(data))
	}
	if err := binary.Read(bytes.NewReader(data[:WAVHeaderSize]), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("failed to read WAV header: %w", err)
	}
	return h, nil
}
