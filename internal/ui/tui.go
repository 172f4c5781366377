// ABOUTME: TUI initialization and control
// ABOUTME: Runs the analysis task alongside the bubbletea program
package ui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/oli8788/stek-meeting-minutes/internal/client"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
)

// Task runs one analysis, reporting progress as it goes
type Task func(ctx context.Context, progress func(client.Event)) (*client.Outcome, error)

// Options configures the TUI
type Options struct {
	FileName  string
	Server    string
	Lang      string
	ExportDir string
	PDF       minutes.PDFOptions
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	lang := opts.Lang
	if !minutes.ValidLang(lang) {
		lang = minutes.LangKO
	}
	dir := opts.ExportDir
	if dir == "" {
		dir = "."
	}
	return Model{
		fileName:  opts.FileName,
		server:    opts.Server,
		lang:      lang,
		exportDir: dir,
		pdf:       opts.PDF,
		copyText:  clipboard.WriteAll,
		started:   time.Now(),
	}
}

// Run shows the TUI while task runs and returns the final model once the
// user quits
func Run(ctx context.Context, opts Options, task Task) (Model, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		out, err := task(ctx, func(e client.Event) {
			p.Send(EventMsg(e))
		})
		p.Send(ResultMsg{Outcome: out, Err: err})
	}()

	final, err := p.Run()
	if m, ok := final.(Model); ok {
		return m, err
	}
	return Model{}, err
}
