// ABOUTME: Analyze wire protocol package
// ABOUTME: Defines protocol messages and WebSocket client
// Package protocol implements the websocket protocol spoken on /ws/analyze.
//
// A session opens with client/hello and server/hello. The client then sends
// analyze/start, the audio as binary frames (type byte plus big-endian byte
// offset) and analyze/end. The server answers with analyze/status and
// analyze/compressed updates followed by analyze/result or analyze/error.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8927"})
//	err := client.Connect(ctx)
//	res, err := client.Analyze(ctx, protocol.AnalyzeStart{FileName: "a.mp3"}, data)
package protocol
