// ABOUTME: WebSocket client for the analyze protocol
// ABOUTME: Handles connection, handshake, upload and message routing
package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// AnalyzePath is the websocket endpoint served by the minutes server
const AnalyzePath = "/ws/analyze"

// ErrClosed is returned when the connection drops before a result arrives
var ErrClosed = errors.New("connection closed")

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string
	Name       string
	Version    int
	DeviceInfo DeviceInfo

	// ChunkSize bounds each binary frame, DefaultChunkSize when zero
	ChunkSize int

	Logger *slog.Logger
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	wmu    sync.Mutex
	logger *slog.Logger

	// Message channels
	Status     chan AnalyzeStatus
	Compressed chan AnalyzeCompressed
	results    chan AnalyzeResult
	failures   chan AnalyzeFailure

	server    ServerHello
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:     config,
		logger:     logger,
		Status:     make(chan AnalyzeStatus, 16),
		Compressed: make(chan AnalyzeCompressed, 1),
		results:    make(chan AnalyzeResult, 1),
		failures:   make(chan AnalyzeFailure, 1),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Connect establishes WebSocket connection and performs handshake
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: AnalyzePath}
	c.logger.Info("connecting", "url", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	hello := ClientHello{
		ClientID:   c.config.ClientID,
		Name:       c.config.Name,
		Version:    c.config.Version,
		DeviceInfo: &c.config.DeviceInfo,
	}
	if err := c.sendJSON(Message{Type: TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	env, err := ParseEnvelope(data)
	if err != nil {
		return err
	}
	if env.Type != TypeServerHello {
		return fmt.Errorf("expected server/hello, got %s", env.Type)
	}
	var server ServerHello
	if err := env.Decode(&server); err != nil {
		return err
	}

	c.mu.Lock()
	c.server = server
	c.mu.Unlock()

	c.logger.Info("handshake complete", "server", server.Name, "backend", server.Backend)
	return nil
}

// Server returns the server/hello received during the handshake
func (c *Client) Server() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *Client) sendBinary(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Upload sends analyze/start, the audio in binary frames and analyze/end
func (c *Client) Upload(start AnalyzeStart, data []byte) error {
	start.Size = int64(len(data))
	if err := c.sendJSON(Message{Type: TypeAnalyzeStart, Payload: start}); err != nil {
		return fmt.Errorf("failed to send analyze/start: %w", err)
	}

	for off := 0; off < len(data); off += c.config.ChunkSize {
		end := min(off+c.config.ChunkSize, len(data))
		if err := c.sendBinary(EncodeAudioFrame(int64(off), data[off:end])); err != nil {
			return fmt.Errorf("failed to send audio at offset %d: %w", off, err)
		}
	}

	if err := c.sendJSON(Message{Type: TypeAnalyzeEnd, Payload: AnalyzeEnd{}}); err != nil {
		return fmt.Errorf("failed to send analyze/end: %w", err)
	}
	return nil
}

// Analyze uploads data and blocks until the server answers. A server-side
// failure is returned as *AnalyzeFailure.
func (c *Client) Analyze(ctx context.Context, start AnalyzeStart, data []byte) (*AnalyzeResult, error) {
	if err := c.Upload(start, data); err != nil {
		return nil, err
	}

	select {
	case res := <-c.results:
		return &res, nil
	case f := <-c.failures:
		return nil, &f
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.ctx.Done():
		// a result may have raced the close
		select {
		case res := <-c.results:
			return &res, nil
		case f := <-c.failures:
			return nil, &f
		default:
		}
		return nil, ErrClosed
	}
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("read error", "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn("unexpected websocket message type", "type", messageType)
			continue
		}
		c.handleJSONMessage(data)
	}
}

// handleJSONMessage routes server messages
func (c *Client) handleJSONMessage(data []byte) {
	env, err := ParseEnvelope(data)
	if err != nil {
		c.logger.Warn("failed to parse message", "error", err)
		return
	}

	switch env.Type {
	case TypeAnalyzeStatus:
		var status AnalyzeStatus
		if err := env.Decode(&status); err != nil {
			c.logger.Warn("bad message", "error", err)
			return
		}
		select {
		case c.Status <- status:
		case <-time.After(100 * time.Millisecond):
			c.logger.Debug("status channel full, dropping message", "stage", status.Stage)
		}

	case TypeAnalyzeCompressed:
		var comp AnalyzeCompressed
		if err := env.Decode(&comp); err != nil {
			c.logger.Warn("bad message", "error", err)
			return
		}
		select {
		case c.Compressed <- comp:
		default:
		}

	case TypeAnalyzeResult:
		var res AnalyzeResult
		if err := env.Decode(&res); err != nil {
			c.logger.Warn("bad message", "error", err)
			return
		}
		select {
		case c.results <- res:
		case <-c.ctx.Done():
		}

	case TypeAnalyzeError:
		var f AnalyzeFailure
		if err := env.Decode(&f); err != nil {
			c.logger.Warn("bad message", "error", err)
			return
		}
		select {
		case c.failures <- f:
		case <-c.ctx.Done():
		}

	default:
		c.logger.Debug("unknown message type", "type", env.Type)
	}
}

// SendGoodbye sends a client/goodbye message before disconnecting
func (c *Client) SendGoodbye(reason string) error {
	return c.sendJSON(Message{Type: TypeClientGoodbye, Payload: ClientGoodbye{Reason: reason}})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		c.logger.Debug("connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// MarshalMessage encodes a message for a text frame
func MarshalMessage(msgType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Payload: payload})
}
