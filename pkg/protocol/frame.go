// ABOUTME: Binary audio frame encoding for uploads
// ABOUTME: Prefixes each chunk with its byte offset in the recording
package protocol

import (
	"encoding/binary"
	"fmt"
)

const (
	// BinaryMessageHeaderSize is the size of binary message header (type byte + offset)
	BinaryMessageHeaderSize = 1 + 8

	// AudioDataMessageType is the binary message type ID for upload chunks
	AudioDataMessageType = 4

	// DefaultChunkSize is how much audio one binary frame carries
	DefaultChunkSize = 256 * 1024
)

// EncodeAudioFrame prefixes data with the frame type and its byte offset in
// the upload
func EncodeAudioFrame(offset int64, data []byte) []byte {
	frame := make([]byte, BinaryMessageHeaderSize+len(data))
	frame[0] = AudioDataMessageType
	binary.BigEndian.PutUint64(frame[1:BinaryMessageHeaderSize], uint64(offset))
	copy(frame[BinaryMessageHeaderSize:], data)
	return frame
}

// DecodeAudioFrame splits a binary frame into its offset and payload. The
// payload aliases frame.
func DecodeAudioFrame(frame []byte) (int64, []byte, error) {
	if len(frame) < BinaryMessageHeaderSize {
		return 0, nil, fmt.Errorf("invalid binary message: too short")
	}
	if frame[0] != AudioDataMessageType {
		return 0, nil, fmt.Errorf("unknown binary message type: %d", frame[0])
	}
	offset := int64(binary.BigEndian.Uint64(frame[1:BinaryMessageHeaderSize]))
	return offset, frame[BinaryMessageHeaderSize:], nil
}
