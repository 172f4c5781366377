// ABOUTME: Tests for analyze protocol message types
// ABOUTME: Verifies envelopes, payload decoding and binary framing
package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestAnalyzeStartMarshaling(t *testing.T) {
	start := AnalyzeStart{
		RequestID: "req-1",
		FileName:  "meeting.mp3",
		MIMEType:  "audio/mpeg",
		Size:      1234,
		Compress:  true,
	}

	data, err := MarshalMessage(TypeAnalyzeStart, start)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	if !strings.Contains(string(data), `"mime_type":"audio/mpeg"`) {
		t.Errorf("expected snake_case keys, got %s", data)
	}

	env, err := ParseEnvelope(data)
	if err != nil {
		t.Fatalf("failed to parse envelope: %v", err)
	}
	if env.Type != TypeAnalyzeStart {
		t.Errorf("expected type %s, got %s", TypeAnalyzeStart, env.Type)
	}

	var decoded AnalyzeStart
	if err := env.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded != start {
		t.Errorf("expected %+v, got %+v", start, decoded)
	}
}

func TestAnalyzeResultCarriesReport(t *testing.T) {
	raw := `{"type":"analyze/result","payload":{"request_id":"r","compressed":true,
		"report":{"ko":{"title":"회의"},"en":{"title":"Meeting","participants":["A"]}}}}`

	env, err := ParseEnvelope([]byte(raw))
	if err != nil {
		t.Fatalf("failed to parse envelope: %v", err)
	}

	var res AnalyzeResult
	if err := env.Decode(&res); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if res.Report == nil || res.Report.EN.Title != "Meeting" || res.Report.KO.Title != "회의" {
		t.Errorf("unexpected report: %+v", res.Report)
	}
	if !res.Compressed {
		t.Error("expected compressed flag")
	}
}

func TestAnalyzeFailureError(t *testing.T) {
	f := &AnalyzeFailure{Message: "Failed to parse structured output", RawText: "oops"}
	if got := f.Error(); got != "analysis failed: Failed to parse structured output" {
		t.Errorf("unexpected error string: %s", got)
	}

	f.Details = "ParseError"
	if !strings.Contains(f.Error(), "(ParseError)") {
		t.Errorf("expected details in error: %s", f.Error())
	}

	data, _ := json.Marshal(f)
	if !strings.Contains(string(data), `"error":"Failed to parse structured output"`) {
		t.Errorf("expected error key, got %s", data)
	}
}

func TestParseEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "hello"},
		{"missing type", `{"payload":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEnvelope([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEnvelopeDecodeEmptyPayload(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"analyze/end"}`))
	if err != nil {
		t.Fatalf("failed to parse envelope: %v", err)
	}
	var end AnalyzeEnd
	if err := env.Decode(&end); err != nil {
		t.Errorf("expected empty payload to decode, got %v", err)
	}
}

func TestAudioFrame(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	frame := EncodeAudioFrame(1<<33, payload)

	if len(frame) != BinaryMessageHeaderSize+len(payload) {
		t.Fatalf("expected frame length %d, got %d", BinaryMessageHeaderSize+len(payload), len(frame))
	}

	offset, data, err := DecodeAudioFrame(frame)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if offset != 1<<33 {
		t.Errorf("expected offset %d, got %d", int64(1<<33), offset)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("expected %v, got %v", payload, data)
	}
}

func TestAudioFrameErrors(t *testing.T) {
	if _, _, err := DecodeAudioFrame([]byte{AudioDataMessageType, 0}); err == nil {
		t.Error("expected error for short frame")
	}

	frame := EncodeAudioFrame(0, []byte{1})
	frame[0] = 9
	if _, _, err := DecodeAudioFrame(frame); err == nil {
		t.Error("expected error for unknown frame type")
	}
}
