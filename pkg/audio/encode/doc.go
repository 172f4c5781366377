// ABOUTME: Audio encoder package for serialising float buffers
// ABOUTME: Provides Encoder interface and implementations for WAV and raw PCM
// Package encode provides audio encoders for float buffers.
//
// Supports: WAV (16-bit PCM, canonical 44-byte header), raw PCM (16-bit and 24-bit)
//
// Samples are clamped to [-1, 1]. Non-negative values scale by 32767 and
// negative values by 32768, truncated toward zero.
//
// Example:
//
//	blob, err := encode.WAV(buf)
//	h, err := encode.ReadWAVHeader(blob) // h.ChunkSize == len(blob)-8
package encode
