// ABOUTME: Multimodal model clients for meeting analysis
// ABOUTME: Gemini and OpenAI backends behind one Generator interface
// Package inference sends audio segments to a multimodal model and returns
// its raw text. It knows nothing about the report format; pkg/minutes parses
// what comes back.
//
// Two backends implement Generator: Gemini (the default, with Files API
// uploads for large payloads) and OpenAI chat completions with input_audio
// parts.
package inference
