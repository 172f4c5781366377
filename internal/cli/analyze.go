// ABOUTME: analyze command for recordings and URLs
// ABOUTME: Runs locally or against a server and prints progress and the report
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/oli8788/stek-meeting-minutes/internal/analysis"
	"github.com/oli8788/stek-meeting-minutes/internal/client"
	"github.com/oli8788/stek-meeting-minutes/internal/ui"
	"github.com/oli8788/stek-meeting-minutes/pkg/compress"
	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
	"github.com/oli8788/stek-meeting-minutes/pkg/protocol"
)

type analyzeFlags struct {
	server     string
	lang       string
	noCompress bool
	noTUI      bool
	export     string
	out        string
	pdfFont    string

	local   bool
	backend string
	model   string
}

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze <audio-file|url>",
		Short: "Produce minutes from a recording",
		Long: `Analyze a meeting recording and show the bilingual minutes.

The file is compressed to 16 kHz mono WAV first; when that fails or does not
shrink it the original is sent. Files over 100MB are refused. An http(s)
URL is downloaded to a temp cache first.

In the TUI: k/e switch language, c copies the report, w saves DOCX, p saves
PDF, q quits.

Examples:
  minutes analyze weekly.mp3
  minutes analyze weekly.mp3 --server 192.168.0.10:8927
  minutes analyze weekly.wav --local --no-tui --export md --out reports/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, g, f, args[0])
		},
	}

	cmd.Flags().StringVar(&f.server, "server", "", "Server host:port (default: discover over mDNS)")
	cmd.Flags().StringVar(&f.lang, "lang", minutes.LangKO, "Report language: ko or en")
	cmd.Flags().BoolVar(&f.noCompress, "no-compress", false, "Send the original file without compressing")
	cmd.Flags().BoolVar(&f.noTUI, "no-tui", false, "Print progress and the report instead of the TUI")
	cmd.Flags().StringVar(&f.export, "export", "", "Also save the report: docx, pdf, txt or md")
	cmd.Flags().StringVar(&f.out, "out", ".", "Directory for exported files")
	cmd.Flags().StringVar(&f.pdfFont, "pdf-font", "", "TrueType font for PDF export (needed for Hangul)")
	cmd.Flags().BoolVar(&f.local, "local", false, "Analyze in-process instead of through a server")
	cmd.Flags().StringVar(&f.backend, "backend", inference.BackendGemini, "Backend for --local: gemini or openai")
	cmd.Flags().StringVar(&f.model, "model", "", "Model for --local (default depends on backend)")
	return cmd
}

func (f *analyzeFlags) validate() error {
	if !minutes.ValidLang(f.lang) {
		return fmt.Errorf("unsupported language: %s", f.lang)
	}
	if f.export != "" && !minutes.ValidFormat(f.export) {
		return fmt.Errorf("unsupported export format: %s", f.export)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, g *globalFlags, f *analyzeFlags, path string) error {
	if err := f.validate(); err != nil {
		return err
	}
	logger, closeLog, err := g.logger(cmd, !f.noTUI)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	job, err := loadJob(ctx, logger, path, f.lang)
	if err != nil {
		return err
	}

	analyzer, err := f.analyzer(ctx, logger)
	if err != nil {
		return err
	}
	defer analyzer.Close()

	comp := compress.New()
	comp.Logger = logger

	task := func(ctx context.Context, progress func(client.Event)) (*client.Outcome, error) {
		j := job
		if !f.noCompress {
			j = client.CompressJob(ctx, comp, j, progress)
		}
		return analyzer.Analyze(ctx, j, progress)
	}

	pdf := minutes.PDFOptions{FontPath: f.pdfFont}
	var report *minutes.Report

	if f.noTUI {
		out, err := task(ctx, func(e client.Event) {
			printEvent(cmd, e)
		})
		if err != nil {
			var failure *protocol.AnalyzeFailure
			if errors.As(err, &failure) && failure.RawText != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Raw output:\n%s\n", failure.RawText)
			}
			return err
		}
		report = out.Report
		fmt.Fprint(cmd.OutOrStdout(), minutes.FormatText(report.Lang(f.lang)))
	} else {
		m, err := ui.Run(ctx, ui.Options{
			FileName:  job.FileName,
			Server:    analyzer.Name(),
			Lang:      f.lang,
			ExportDir: f.out,
			PDF:       pdf,
		}, task)
		if err != nil {
			return err
		}
		if m.Err() != nil {
			return m.Err()
		}
		report = m.Report()
	}

	if f.export != "" && report != nil {
		saved, err := ui.WriteExport(report, f.lang, f.export, f.out, pdf)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", saved)
	}
	return nil
}

// analyzer connects to a server, or builds the in-process backend for --local
func (f *analyzeFlags) analyzer(ctx context.Context, logger *slog.Logger) (client.Analyzer, error) {
	if !f.local {
		remote, err := client.Dial(ctx, client.RemoteConfig{
			Addr:   f.server,
			Name:   hostName(),
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return remote, nil
	}

	gen, err := localGenerator(ctx, f.backend, f.model, logger)
	if err != nil {
		return nil, err
	}
	// compression already happened client-side
	return client.NewLocal(analysis.New(gen, nil, logger)), nil
}

func printEvent(cmd *cobra.Command, e client.Event) {
	w := cmd.ErrOrStderr()
	if e.Stage != "" {
		fmt.Fprintln(w, ui.StageLabel(e.Stage))
	}
	if c := e.Compressed; c != nil {
		if c.Used {
			fmt.Fprintf(w, "Compressed %d → %d bytes\n", c.OriginalBytes, c.CompressedBytes)
		} else {
			fmt.Fprintf(w, "Sending original %d bytes\n", c.OriginalBytes)
		}
	}
}

func hostName() string {
	name, err := os.Hostname()
	if err != nil {
		return "minutes-cli"
	}
	return name
}

// loadJob reads a local file or downloads an http(s) URL
func loadJob(ctx context.Context, logger *slog.Logger, path, lang string) (client.Job, error) {
	if !client.IsURL(path) {
		return client.ReadJob(path, client.DefaultLimit, lang)
	}
	fetcher, err := client.NewFetcher(logger)
	if err != nil {
		return client.Job{}, err
	}
	return fetcher.FetchJob(ctx, path, client.DefaultLimit, lang)
}
