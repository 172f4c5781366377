// ABOUTME: Websocket analysis sessions on /ws/analyze
// ABOUTME: Handshake, chunked upload, progress updates and the final report
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oli8788/stek-meeting-minutes/internal/analysis"
	"github.com/oli8788/stek-meeting-minutes/internal/metrics"
	"github.com/oli8788/stek-meeting-minutes/internal/version"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
	"github.com/oli8788/stek-meeting-minutes/pkg/protocol"
)

const (
	writeDeadline = 10 * time.Second
	helloTimeout  = 10 * time.Second
	pingInterval  = 30 * time.Second

	// maxFrameBytes bounds a single websocket message
	maxFrameBytes = 16 << 20
)

// Session is one websocket connection
type Session struct {
	ID       string
	ClientID string
	Name     string
	Conn     *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc

	// Output channel for messages
	sendChan chan interface{}

	// Upload in progress
	upload *protocol.AnalyzeStart
	buf    bytes.Buffer

	// discard swallows the frames and end of an upload already answered
	// with an error
	discard bool

	// analysis running in the background
	running sync.WaitGroup
	busy    bool

	stage   string
	started time.Time
	mu      sync.RWMutex
}

func (sess *Session) setStage(stage string) {
	sess.mu.Lock()
	sess.stage = stage
	sess.mu.Unlock()
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade error", "error", err)
		return
	}

	s.logger.Debug("new websocket connection", "remote", r.RemoteAddr)
	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	if s.shuttingDown() {
		s.logger.Info("rejecting connection during shutdown")
		return
	}

	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		s.logger.Debug("error reading hello", "error", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		s.logger.Warn("bad hello", "error", err)
		return
	}
	if env.Type != protocol.TypeClientHello {
		s.logger.Warn("expected client/hello", "got", env.Type)
		return
	}

	var hello protocol.ClientHello
	if err := env.Decode(&hello); err != nil {
		s.logger.Warn("bad hello", "error", err)
		return
	}
	if hello.ClientID == "" {
		hello.ClientID = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:       uuid.New().String(),
		ClientID: hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		ctx:      ctx,
		cancel:   cancel,
		sendChan: make(chan interface{}, 32),
		stage:    "connected",
		started:  time.Now(),
	}

	s.sessionsMu.Lock()
	s.sessions[sess.ID] = sess
	s.sessionsMu.Unlock()
	s.updateTUI()

	s.logger.Info("client hello", "name", hello.Name, "client_id", hello.ClientID, "session", sess.ID)

	var writerDone sync.WaitGroup
	writerDone.Add(1)
	go func() {
		defer writerDone.Done()
		s.clientWriter(sess)
	}()

	defer func() {
		sess.cancel()
		sess.running.Wait()
		close(sess.sendChan)
		writerDone.Wait()

		s.sessionsMu.Lock()
		delete(s.sessions, sess.ID)
		s.sessionsMu.Unlock()
		s.logger.Info("client disconnected", "name", sess.Name, "session", sess.ID)
		s.updateTUI()
	}()

	serverHello := protocol.ServerHello{
		ServerID:       s.serverID,
		Name:           s.config.Name,
		Version:        version.ProtocolVersion,
		Backend:        s.backendName(),
		MaxUploadBytes: s.config.MaxUploadBytes,
	}
	if err := s.sendMessage(sess, protocol.TypeServerHello, serverHello); err != nil {
		s.logger.Warn("error sending server hello", "error", err)
		return
	}

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket error", "error", err)
			}
			return
		}

		var done bool
		switch messageType {
		case websocket.BinaryMessage:
			s.handleAudioFrame(sess, data)
		case websocket.TextMessage:
			done = s.handleClientMessage(sess, data)
		}
		if done {
			return
		}
	}
}

// clientWriter sends queued messages and keeps the connection alive
func (s *Server) clientWriter(sess *Session) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sess.sendChan:
			if !ok {
				return
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("error marshaling message", "error", err)
				continue
			}
			sess.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := sess.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug("error writing message", "error", err)
				sess.cancel()
				sess.Conn.Close()
				// drain so senders never block
				for range sess.sendChan {
				}
				return
			}

		case <-ticker.C:
			if err := sess.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				sess.cancel()
				sess.Conn.Close()
				for range sess.sendChan {
				}
				return
			}
		}
	}
}

// handleClientMessage processes text messages. It returns true when the
// client said goodbye.
func (s *Server) handleClientMessage(sess *Session, data []byte) bool {
	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		s.logger.Warn("error parsing message", "error", err)
		return false
	}

	switch env.Type {
	case protocol.TypeAnalyzeStart:
		var start protocol.AnalyzeStart
		if err := env.Decode(&start); err != nil {
			s.sendFailure(sess, start.RequestID, err)
			return false
		}
		s.handleAnalyzeStart(sess, start)

	case protocol.TypeAnalyzeEnd:
		s.handleAnalyzeEnd(sess)

	case protocol.TypeClientGoodbye:
		var bye protocol.ClientGoodbye
		env.Decode(&bye)
		s.logger.Debug("client goodbye", "session", sess.ID, "reason", bye.Reason)
		return true

	default:
		s.logger.Debug("unknown message type", "type", env.Type)
	}
	return false
}

func (s *Server) handleAnalyzeStart(sess *Session, start protocol.AnalyzeStart) {
	sess.mu.Lock()
	busy := sess.busy
	sess.mu.Unlock()

	var reject error
	switch {
	case busy:
		reject = errors.New("an analysis is already running on this connection")
	case s.service == nil:
		reject = errors.New(missingKeyMessage(s.config.Backend))
	case start.Size > s.config.MaxUploadBytes:
		reject = fmt.Errorf("upload of %d bytes exceeds limit of %d bytes", start.Size, s.config.MaxUploadBytes)
	}
	if reject != nil {
		sess.upload = nil
		sess.discard = true
		s.sendFailure(sess, start.RequestID, reject)
		return
	}
	sess.discard = false

	if start.RequestID == "" {
		start.RequestID = uuid.New().String()
	}
	sess.upload = &start
	sess.buf.Reset()
	if start.Size > 0 {
		sess.buf.Grow(int(start.Size))
	}

	sess.setStage(protocol.StageReceiving)
	s.sendMessage(sess, protocol.TypeAnalyzeStatus, protocol.AnalyzeStatus{Stage: protocol.StageReceiving, Detail: start.FileName})
	s.updateTUI()
}

func (s *Server) handleAudioFrame(sess *Session, frame []byte) {
	if sess.upload == nil {
		s.logger.Debug("audio frame outside an upload", "session", sess.ID)
		return
	}

	offset, data, err := protocol.DecodeAudioFrame(frame)
	if err == nil && offset != int64(sess.buf.Len()) {
		err = fmt.Errorf("frame at offset %d, expected %d", offset, sess.buf.Len())
	}
	if err == nil && int64(sess.buf.Len()+len(data)) > s.config.MaxUploadBytes {
		err = fmt.Errorf("upload exceeds limit of %d bytes", s.config.MaxUploadBytes)
	}
	if err != nil {
		s.sendFailure(sess, sess.upload.RequestID, err)
		sess.upload = nil
		sess.discard = true
		sess.buf.Reset()
		return
	}

	sess.buf.Write(data)
}

func (s *Server) handleAnalyzeEnd(sess *Session) {
	start := sess.upload
	if start == nil {
		if sess.discard {
			sess.discard = false
			return
		}
		s.sendFailure(sess, "", errors.New("analyze/end without analyze/start"))
		return
	}
	sess.upload = nil

	data := bytes.Clone(sess.buf.Bytes())
	sess.buf.Reset()
	if start.Size > 0 && int64(len(data)) != start.Size {
		s.sendFailure(sess, start.RequestID, fmt.Errorf("received %d bytes, expected %d", len(data), start.Size))
		return
	}

	sess.mu.Lock()
	sess.busy = true
	sess.mu.Unlock()

	req := analysis.Request{
		ID: start.RequestID,
		Upload: &analysis.Upload{
			FileName: start.FileName,
			MIMEType: start.MIMEType,
			Data:     data,
			Compress: start.Compress && s.config.CompressUploads,
		},
	}

	sess.running.Add(1)
	go func() {
		defer sess.running.Done()
		s.runAnalysis(sess, req)
		s.updateTUI()
	}()
}

func (s *Server) runAnalysis(sess *Session, req analysis.Request) {
	ctx, cancel := context.WithTimeout(sess.ctx, s.config.RequestTimeout)
	defer cancel()

	progress := func(stage, detail string) {
		sess.setStage(stage)
		s.sendMessage(sess, protocol.TypeAnalyzeStatus, protocol.AnalyzeStatus{Stage: stage, Detail: detail})
		s.updateTUI()
	}

	res, err := s.service.Analyze(ctx, req, progress)
	if res != nil && res.Payload != nil && req.Upload.Compress {
		s.sendMessage(sess, protocol.TypeAnalyzeCompressed, protocol.AnalyzeCompressed{
			OriginalBytes:   int64(res.Payload.OriginalSize),
			CompressedBytes: int64(len(res.Payload.Data)),
			Used:            res.Payload.Compressed,
		})
	}

	// free the session before answering so the client may start the next upload
	sess.mu.Lock()
	sess.busy = false
	sess.stage = "idle"
	sess.mu.Unlock()

	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("ws", analysis.ErrorKind(err)).Inc()
		s.failed.Add(1)
		s.sendFailure(sess, req.ID, err)
		return
	}

	metrics.AnalysesTotal.WithLabelValues("ws", "ok").Inc()
	s.completed.Add(1)
	s.sendMessage(sess, protocol.TypeAnalyzeResult, protocol.AnalyzeResult{
		RequestID:  req.ID,
		Report:     res.Report,
		Compressed: res.Compressed(),
		Model:      res.Model,
	})
}

func (s *Server) sendFailure(sess *Session, requestID string, err error) {
	f := protocol.AnalyzeFailure{
		RequestID: requestID,
		Message:   err.Error(),
		Details:   analysis.ErrorKind(err),
	}
	var pe *minutes.ParseError
	if errors.As(err, &pe) {
		f.Message = "Failed to parse structured output"
		f.RawText = pe.Raw
	}
	if err := s.sendMessage(sess, protocol.TypeAnalyzeError, f); err != nil {
		s.logger.Warn("error sending failure", "error", err)
	}
}

// sendMessage queues a JSON message for the session writer
func (s *Server) sendMessage(sess *Session, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case <-sess.ctx.Done():
		return errors.New("session closed")
	default:
	}

	select {
	case sess.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// closeSessions cancels every session so blocked reads return
func (s *Server) closeSessions() {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	for _, sess := range s.sessions {
		sess.cancel()
		sess.Conn.Close()
	}
}
