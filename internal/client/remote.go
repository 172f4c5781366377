// ABOUTME: Remote analyzer speaking the websocket protocol
// ABOUTME: Discovers or dials a server, streams the upload and relays progress
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oli8788/stek-meeting-minutes/internal/discovery"
	"github.com/oli8788/stek-meeting-minutes/internal/version"
	"github.com/oli8788/stek-meeting-minutes/pkg/protocol"
)

// DefaultDiscoveryTimeout bounds the mDNS search when no address is given
const DefaultDiscoveryTimeout = 5 * time.Second

// RemoteConfig configures a websocket analyzer
type RemoteConfig struct {
	// Addr is host:port. Empty means find a server over mDNS.
	Addr string
	Name string

	DiscoveryTimeout time.Duration
	Logger           *slog.Logger
}

// Remote analyzes through a minutes server
type Remote struct {
	conn   *protocol.Client
	logger *slog.Logger

	// one analysis at a time per connection
	mu sync.Mutex
}

// Dial resolves the server and completes the handshake
func Dial(ctx context.Context, cfg RemoteConfig) (*Remote, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	addr := cfg.Addr
	if addr == "" {
		timeout := cfg.DiscoveryTimeout
		if timeout <= 0 {
			timeout = DefaultDiscoveryTimeout
		}
		mgr := discovery.NewManager(discovery.Config{Logger: logger})
		info, err := mgr.Find(ctx, timeout)
		if err != nil {
			return nil, fmt.Errorf("no minutes server found: %w", err)
		}
		addr = info.Addr()
		logger.Info("discovered server", "name", info.Name, "addr", addr)
	}

	conn := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		ClientID:   uuid.New().String(),
		Name:       cfg.Name,
		Version:    version.ProtocolVersion,
		DeviceInfo: protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
		Logger: logger,
	})
	if err := conn.Connect(ctx); err != nil {
		return nil, err
	}
	return &Remote{conn: conn, logger: logger}, nil
}

// Name describes the server and its backend
func (r *Remote) Name() string {
	info := r.conn.Server()
	return fmt.Sprintf("%s (%s)", info.Name, info.Backend)
}

// MaxUploadBytes is the server's advertised ceiling
func (r *Remote) MaxUploadBytes() int64 {
	return r.conn.Server().MaxUploadBytes
}

// Analyze uploads the job and relays server progress
func (r *Remote) Analyze(ctx context.Context, job Job, progress func(Event)) (*Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if progress == nil {
		progress = func(Event) {}
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if limit := r.MaxUploadBytes(); limit > 0 && int64(len(job.Data)) > limit {
		return nil, fmt.Errorf("upload of %d bytes exceeds server limit of %d bytes", len(job.Data), limit)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case st := <-r.conn.Status:
				progress(Event{Stage: st.Stage, Detail: st.Detail})
			case c := <-r.conn.Compressed:
				progress(Event{Compressed: &c})
			case <-done:
				return
			}
		}
	}()

	res, err := r.conn.Analyze(ctx, protocol.AnalyzeStart{
		RequestID: job.ID,
		FileName:  job.FileName,
		MIMEType:  job.MIMEType,
		Compress:  job.Compress,
	}, job.Data)

	close(done)
	wg.Wait()
	r.drain(progress)

	if err != nil {
		return nil, err
	}
	return &Outcome{Report: res.Report, Compressed: res.Compressed, Model: res.Model}, nil
}

// drain relays events that were buffered when the result arrived
func (r *Remote) drain(progress func(Event)) {
	for {
		select {
		case st := <-r.conn.Status:
			progress(Event{Stage: st.Stage, Detail: st.Detail})
		case c := <-r.conn.Compressed:
			progress(Event{Compressed: &c})
		default:
			return
		}
	}
}

// Close says goodbye and closes the connection
func (r *Remote) Close() error {
	if r.conn.IsConnected() {
		if err := r.conn.SendGoodbye("done"); err != nil {
			r.logger.Debug("goodbye failed", "error", err)
		}
	}
	r.conn.Close()
	return nil
}
