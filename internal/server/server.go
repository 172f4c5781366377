// ABOUTME: Main server implementation for the minutes service
// ABOUTME: Owns the HTTP mux, websocket sessions, mDNS and shutdown
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oli8788/stek-meeting-minutes/internal/analysis"
	"github.com/oli8788/stek-meeting-minutes/internal/discovery"
	"github.com/oli8788/stek-meeting-minutes/internal/version"
	"github.com/oli8788/stek-meeting-minutes/pkg/compress"
	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
	"github.com/oli8788/stek-meeting-minutes/pkg/protocol"
)

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Debug      bool
	UseTUI     bool

	// Backend names the inference backend, used in error messages
	Backend string

	MaxUploadBytes  int64
	CompressUploads bool
	RequestTimeout  time.Duration
	PDF             minutes.PDFOptions
}

// Options carries the server's collaborators
type Options struct {
	// Service runs analyses. nil means no API key was configured.
	Service *analysis.Service

	// Models lists backend models, nil when the backend cannot
	Models inference.ModelLister

	Compressor *compress.Compressor
	Logger     *slog.Logger
}

// Server represents the minutes server
type Server struct {
	config   Config
	serverID string
	logger   *slog.Logger

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	service    *analysis.Service
	models     inference.ModelLister
	compressor *compress.Compressor

	// Session management
	sessions   map[string]*Session
	sessionsMu sync.RWMutex
	completed  atomic.Int64
	failed     atomic.Int64

	mdnsManager *discovery.Manager

	tui       *ServerTUI
	startTime time.Time

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// New creates a new server instance
func New(config Config, opts Options) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = compress.New().MaxInputBytes
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 5 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	comp := opts.Compressor
	if comp == nil {
		comp = compress.New()
		comp.Logger = logger
	}

	s := &Server{
		config:     config,
		serverID:   uuid.New().String(),
		logger:     logger,
		mux:        http.NewServeMux(),
		service:    opts.Service,
		models:     opts.Models,
		compressor: comp,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Meant for trusted local networks; browsers on the LAN may connect
				if origin := r.Header.Get("Origin"); origin != "" {
					logger.Debug("accepting websocket from origin", "origin", origin)
				}
				return true
			},
		},
		sessions:  make(map[string]*Session),
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /api/compress", s.handleCompress)
	s.mux.HandleFunc("POST /api/export/{format}", s.handleExport)
	s.mux.HandleFunc("GET /api/models", s.handleModels)
	s.mux.HandleFunc("GET "+protocol.AnalyzePath, s.handleWebSocket)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

// Start runs the server until Stop is called, the TUI quits or the
// listener fails
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = NewServerTUI()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tui.Start(s.config.Name, s.config.Port, s.backendName())
		}()

		// Give TUI time to initialize
		time.Sleep(100 * time.Millisecond)
	}

	s.logger.Info("server starting", "name", s.config.Name, "id", s.serverID, "backend", s.backendName())
	if s.service == nil {
		s.logger.Warn(missingKeyMessage(s.config.Backend))
	}

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			TXT:         s.mdnsTXT(),
			Logger:      s.logger,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			s.logger.Warn("failed to start mdns advertisement", "error", err)
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("http server listening", "addr", addr)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		s.logger.Info("server shutting down")
	case <-tuiQuitChan:
		s.logger.Info("tui quit requested, shutting down")
	case err := <-errChan:
		s.logger.Error("http server error", "error", err)
		serverErr = err
	}

	// Reject new websocket sessions from here on
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.tui != nil {
		s.tui.Stop()
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("http server shutdown error", "error", err)
	}
	s.closeSessions()

	s.wg.Wait()
	s.logger.Info("server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Server) shuttingDown() bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	return s.isShutdown
}

func (s *Server) backendName() string {
	if s.service != nil {
		return s.service.Backend()
	}
	return s.config.Backend
}

// mdnsTXT carries the protocol revision clients check before dialing
func (s *Server) mdnsTXT() []string {
	return []string{
		fmt.Sprintf("version=%d", version.ProtocolVersion),
		"backend=" + s.backendName(),
	}
}

// missingKeyMessage is returned to clients when no API key is configured
func missingKeyMessage(backend string) string {
	if strings.EqualFold(backend, inference.BackendOpenAI) {
		return "OPENAI_API_KEY is not configured on the server."
	}
	return "GEMINI_API_KEY is not configured on the server."
}
