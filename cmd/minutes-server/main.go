// ABOUTME: Entry point for the STEK meeting minutes server
// ABOUTME: Loads config, builds the inference backend and runs the server
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/oli8788/stek-meeting-minutes/internal/analysis"
	"github.com/oli8788/stek-meeting-minutes/internal/config"
	"github.com/oli8788/stek-meeting-minutes/internal/server"
	"github.com/oli8788/stek-meeting-minutes/internal/version"
	"github.com/oli8788/stek-meeting-minutes/pkg/compress"
	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "minutes-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}

	// TUI mode: log only to file
	var console io.Writer = os.Stdout
	if cfg.TUI {
		console = io.Discard
	}
	logger, closer, err := config.NewLogger(cfg, console)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("starting "+version.Product, "version", version.Version, "name", cfg.Name, "port", cfg.Port)
	if cfg.LogFile != "" {
		logger.Info("logging to file", "path", cfg.LogFile)
	}

	comp := compress.New()
	comp.MaxInputBytes = cfg.MaxUploadBytes
	comp.Logger = logger

	var (
		svc    *analysis.Service
		models inference.ModelLister
	)
	if cfg.APIKey != "" {
		gen, err := inference.New(context.Background(), inference.Options{
			Backend:     cfg.Backend,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			InlineLimit: cfg.InlineLimit,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s backend: %w", cfg.Backend, err)
		}
		svc = analysis.New(gen, comp, logger)
		models, _ = gen.(inference.ModelLister)
	}

	srv := server.New(server.Config{
		Port:            cfg.Port,
		Name:            cfg.Name,
		EnableMDNS:      cfg.EnableMDNS,
		Debug:           cfg.Debug,
		UseTUI:          cfg.TUI,
		Backend:         cfg.Backend,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		CompressUploads: cfg.CompressUploads,
		RequestTimeout:  cfg.RequestTimeout,
		PDF:             minutes.PDFOptions{FontPath: cfg.PDFFont},
	}, server.Options{
		Service:    svc,
		Models:     models,
		Compressor: comp,
		Logger:     logger,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down gracefully", "signal", sig)
		srv.Stop()
	}()

	return srv.Start()
}
