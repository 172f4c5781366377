// ABOUTME: Upload compression for meeting recordings
// ABOUTME: Decode, resample to 16kHz mono and re-encode as WAV
// Package compress shrinks uploaded recordings before they are sent for
// analysis: decode, resample to 16 kHz mono, encode as 16-bit WAV.
//
// Compression is advisory. Prepare always returns bytes that can be sent,
// falling back to the original upload when compression fails or does not
// reduce the size.
package compress
