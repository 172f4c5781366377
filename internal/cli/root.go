// ABOUTME: Cobra command tree for the minutes client CLI
// ABOUTME: analyze, compress, preview, models and export subcommands
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oli8788/stek-meeting-minutes/internal/version"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	debug   bool
	logFile string
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "minutes",
		Short: "STEK meeting minutes from audio recordings",
		Long: `minutes turns a meeting recording into bilingual (Korean / English) minutes.

Audio is reduced to 16 kHz mono WAV before upload, then analyzed by a minutes
server on the local network (found over mDNS) or in-process with --local.

Examples:
  # Analyze through the server advertised on the LAN
  minutes analyze weekly.mp3

  # Analyze in-process with GEMINI_API_KEY and save a PDF in English
  minutes analyze weekly.m4a --local --no-tui --lang en --export pdf

  # Render a saved report
  minutes export report.json --format docx --lang ko`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&g.logFile, "log-file", "", "Write logs to this file (default stderr, or minutes.log with the TUI)")

	root.AddCommand(newAnalyzeCmd(g))
	root.AddCommand(newCompressCmd(g))
	root.AddCommand(newPreviewCmd(g))
	root.AddCommand(newModelsCmd(g))
	root.AddCommand(newExportCmd(g))
	return root
}

// Execute runs the CLI until completion or SIGINT/SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// logger builds the command logger. With the TUI on, logs go only to a file
// so the alt screen is not disturbed.
func (g *globalFlags) logger(cmd *cobra.Command, tui bool) (*slog.Logger, func(), error) {
	level := slog.LevelWarn
	if g.debug {
		level = slog.LevelDebug
	}

	var out io.Writer = cmd.ErrOrStderr()
	closer := func() {}

	path := g.logFile
	if tui && path == "" {
		path = "minutes.log"
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening log file: %w", err)
		}
		out = f
		closer = func() { _ = f.Close() }
		if !g.debug {
			level = slog.LevelInfo
		}
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), closer, nil
}
