// ABOUTME: mDNS service discovery for the minutes server
// ABOUTME: Handles both advertisement (server) and browsing (CLI client)
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD type the server advertises
const ServiceType = "_stek-minutes._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int

	// TXT carries extra key=value records advertised with the service
	TXT []string

	Logger *slog.Logger
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name string
	Host string
	Port int
	TXT  map[string]string
}

// Addr returns host:port for dialing
func (s *ServerInfo) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		config:  config,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// Advertise publishes the server via mDNS until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	txt := append([]string{"path=/ws/analyze"}, m.config.TXT...)
	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		txt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.logger.Info("advertising mdns service", "name", m.config.ServiceName, "port", m.config.Port, "type", ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for minutes servers until Stop is called
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for servers
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.query(3*time.Second, func(s *ServerInfo) bool {
			select {
			case m.servers <- s:
				return true
			case <-m.ctx.Done():
				return false
			}
		})
	}
}

// Find runs one query and returns the first server that answers
func (m *Manager) Find(ctx context.Context, timeout time.Duration) (*ServerInfo, error) {
	found := make(chan *ServerInfo, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.query(timeout, func(s *ServerInfo) bool {
			select {
			case found <- s:
			default:
			}
			return false
		})
	}()

	select {
	case s := <-found:
		return s, nil
	case <-done:
		select {
		case s := <-found:
			return s, nil
		default:
		}
		return nil, fmt.Errorf("no %s server found within %s", ServiceType, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// query runs a single mDNS lookup, handing each entry to emit until it
// returns false
func (m *Manager) query(timeout time.Duration, emit func(*ServerInfo) bool) {
	entries := make(chan *mdns.ServiceEntry, 10)
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		accepting := true
		for entry := range entries {
			if !accepting {
				continue
			}
			server := fromEntry(entry)
			if server == nil {
				continue
			}
			m.logger.Debug("discovered server", "name", server.Name, "addr", server.Addr())
			accepting = emit(server)
		}
	}()

	params := &mdns.QueryParam{
		Service:     ServiceType,
		Domain:      "local",
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
	}
	if err := mdns.Query(params); err != nil {
		m.logger.Debug("mdns query failed", "error", err)
	}
	close(entries)
	<-finished
}

func fromEntry(entry *mdns.ServiceEntry) *ServerInfo {
	var host string
	switch {
	case entry.AddrV4 != nil:
		host = entry.AddrV4.String()
	case entry.AddrV6 != nil:
		host = entry.AddrV6.String()
	default:
		return nil
	}

	return &ServerInfo{
		Name: entry.Name,
		Host: host,
		Port: entry.Port,
		TXT:  parseTXT(entry.InfoFields),
	}
}

func parseTXT(fields []string) map[string]string {
	txt := make(map[string]string, len(fields))
	for _, f := range fields {
		k, v, _ := strings.Cut(f, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
