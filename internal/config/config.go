// ABOUTME: Server configuration from flags, an optional YAML file and env
// ABOUTME: Flags given on the command line win over the file; keys come from env
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/oli8788/stek-meeting-minutes/pkg/audio"
	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
)

// Config holds server configuration
type Config struct {
	Port       int    `yaml:"port"`
	Name       string `yaml:"name"`
	EnableMDNS bool   `yaml:"mdns"`

	Backend string `yaml:"backend"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"-"`

	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	CompressUploads bool          `yaml:"compress_uploads"`
	InlineLimit     int64         `yaml:"inline_limit"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	PDFFont         string        `yaml:"pdf_font"`

	LogFile   string `yaml:"log_file"`
	LogFormat string `yaml:"log_format"`
	Debug     bool   `yaml:"debug"`

	// TUI shows the live session dashboard; logs then go only to LogFile
	TUI bool `yaml:"tui"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Port:            8927,
		EnableMDNS:      true,
		Backend:         inference.BackendGemini,
		MaxUploadBytes:  audio.DefaultMaxInputBytes,
		CompressUploads: true,
		InlineLimit:     inference.DefaultInlineLimit,
		RequestTimeout:  5 * time.Minute,
		LogFormat:       "text",
	}
}

// Load parses args, overlays them on the YAML file named by -config and
// fills the API key from the environment. flag.ErrHelp is returned for -h.
func Load(args []string, stderr io.Writer) (Config, error) {
	def := Default()
	fv := def
	var path string
	var noMDNS bool

	fs := flag.NewFlagSet("minutes-server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&path, "config", "", "YAML config file")
	fs.IntVar(&fv.Port, "port", def.Port, "HTTP server port")
	fs.StringVar(&fv.Name, "name", "", "Server friendly name (default: hostname-minutes)")
	fs.BoolVar(&noMDNS, "no-mdns", false, "Disable mDNS advertisement")
	fs.StringVar(&fv.Backend, "backend", def.Backend, "Inference backend: gemini or openai")
	fs.StringVar(&fv.Model, "model", "", "Model name (default depends on backend)")
	fs.StringVar(&fv.BaseURL, "base-url", "", "API base URL override (openai backend)")
	fs.Int64Var(&fv.MaxUploadBytes, "max-upload", def.MaxUploadBytes, "Largest accepted upload in bytes")
	fs.BoolVar(&fv.CompressUploads, "compress", def.CompressUploads, "Compress uploads to 16 kHz mono WAV before inference")
	fs.Int64Var(&fv.InlineLimit, "inline-limit", def.InlineLimit, "Largest payload sent inline; bigger ones use the Files API")
	fs.DurationVar(&fv.RequestTimeout, "timeout", def.RequestTimeout, "Per-analysis timeout")
	fs.StringVar(&fv.PDFFont, "pdf-font", "", "TrueType font for PDF export (needed for Hangul)")
	fs.StringVar(&fv.LogFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&fv.LogFormat, "log-format", def.LogFormat, "Log format: text or json")
	fs.BoolVar(&fv.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&fv.TUI, "tui", false, "Show the live session dashboard")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := def
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = fv.Port
		case "name":
			cfg.Name = fv.Name
		case "no-mdns":
			cfg.EnableMDNS = !noMDNS
		case "backend":
			cfg.Backend = fv.Backend
		case "model":
			cfg.Model = fv.Model
		case "base-url":
			cfg.BaseURL = fv.BaseURL
		case "max-upload":
			cfg.MaxUploadBytes = fv.MaxUploadBytes
		case "compress":
			cfg.CompressUploads = fv.CompressUploads
		case "inline-limit":
			cfg.InlineLimit = fv.InlineLimit
		case "timeout":
			cfg.RequestTimeout = fv.RequestTimeout
		case "pdf-font":
			cfg.PDFFont = fv.PDFFont
		case "log-file":
			cfg.LogFile = fv.LogFile
		case "log-format":
			cfg.LogFormat = fv.LogFormat
		case "debug":
			cfg.Debug = fv.Debug
		case "tui":
			cfg.TUI = fv.TUI
		}
	})

	cfg.APIKey = inference.APIKeyFromEnv(cfg.Backend)
	if cfg.Name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		cfg.Name = fmt.Sprintf("%s-minutes", hostname)
	}
	if cfg.TUI && cfg.LogFile == "" {
		cfg.LogFile = "minutes-server.log"
	}

	return cfg, cfg.Validate()
}

// LoadFile overlays the YAML file at path onto cfg
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks field ranges. A missing API key is not an error here; the
// server reports it per request.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	switch strings.ToLower(c.Backend) {
	case inference.BackendGemini, inference.BackendOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown backend: %s", c.Backend))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max upload must be positive, got %d", c.MaxUploadBytes))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.RequestTimeout))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %s", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Addr is the listen address
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
