// ABOUTME: Bubbletea model for the analysis TUI
// ABOUTME: Shows upload stages, then the report with language toggle and export keys
package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oli8788/stek-meeting-minutes/internal/client"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
	"github.com/oli8788/stek-meeting-minutes/pkg/protocol"
)

// Model represents the TUI state
type Model struct {
	// Job
	fileName string
	server   string
	started  time.Time
	elapsed  time.Duration

	// Progress
	stage      string
	detail     string
	compressed *protocol.AnalyzeCompressed

	// Result
	report  *minutes.Report
	model   string
	err     error
	rawText string

	// View
	lang   string
	notice string
	scroll int

	// Export
	exportDir string
	pdf       minutes.PDFOptions
	copyText  func(string) error

	quitting bool

	// Dimensions
	width  int
	height int
}

// EventMsg relays analysis progress
type EventMsg client.Event

// ResultMsg ends the analysis
type ResultMsg struct {
	Outcome *client.Outcome
	Err     error
}

type exportedMsg struct {
	path string
	err  error
}

type tickMsg time.Time

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	activeLang  = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	otherLang   = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		if m.done() {
			return m, nil
		}
		m.elapsed = time.Since(m.started)
		return m, tick()
	case EventMsg:
		m.applyEvent(client.Event(msg))
	case ResultMsg:
		m.applyResult(msg)
	case exportedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.notice = m.text("저장되었습니다: ", "Saved: ") + msg.path
		}
	}

	return m, nil
}

func (m *Model) applyEvent(e client.Event) {
	if e.Stage != "" {
		m.stage = e.Stage
		m.detail = e.Detail
	}
	if e.Compressed != nil {
		m.compressed = e.Compressed
	}
}

func (m *Model) applyResult(msg ResultMsg) {
	m.elapsed = time.Since(m.started)
	if msg.Err != nil {
		m.err = msg.Err
		var f *protocol.AnalyzeFailure
		if errors.As(msg.Err, &f) {
			m.rawText = f.RawText
		}
		return
	}
	m.report = msg.Outcome.Report
	m.model = msg.Outcome.Model
	m.scroll = 0
}

func (m Model) done() bool {
	return m.report != nil || m.err != nil
}

// text picks the string for the current language
func (m Model) text(ko, en string) string {
	if m.lang == minutes.LangEN {
		return en
	}
	return ko
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "k":
		m.lang = minutes.LangKO
		m.notice = ""
	case "e":
		m.lang = minutes.LangEN
		m.notice = ""
	case "up":
		if m.scroll > 0 {
			m.scroll--
		}
	case "down":
		m.scroll++
	case "c":
		if m.report == nil {
			break
		}
		if err := m.copyText(minutes.FormatText(m.report.Lang(m.lang))); err != nil {
			m.notice = err.Error()
		} else {
			m.notice = m.text("전체 내용이 클립보드에 복사되었습니다.", "Full report copied to clipboard.")
		}
	case "w":
		if m.report != nil {
			return m, m.export(minutes.FormatDOCX)
		}
	case "p":
		if m.report != nil {
			return m, m.export(minutes.FormatPDF)
		}
	}

	return m, nil
}

// export renders the current language and writes it to exportDir
func (m Model) export(format string) tea.Cmd {
	report, lang, dir, pdf := m.report, m.lang, m.exportDir, m.pdf
	return func() tea.Msg {
		path, err := WriteExport(report, lang, format, dir, pdf)
		return exportedMsg{path: path, err: err}
	}
}

// WriteExport renders report and saves it under dir, returning the path
func WriteExport(report *minutes.Report, lang, format, dir string, pdf minutes.PDFOptions) (string, error) {
	exp, err := minutes.Render(report, lang, format, pdf)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, exp.FileName)
	if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())

	switch {
	case m.err != nil:
		b.WriteString(m.renderError())
	case m.report != nil:
		b.WriteString(m.renderReport())
	default:
		b.WriteString(m.renderProgress())
	}

	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

// renderHeader renders the file, server and language toggle
func (m Model) renderHeader() string {
	ko, en := otherLang, otherLang
	if m.lang == minutes.LangEN {
		en = activeLang
	} else {
		ko = activeLang
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("STEK Meeting Minutes"))
	b.WriteString("  " + ko.Render("KOREAN") + en.Render("ENGLISH") + "\n\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("File:"), m.fileName)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Via: "), m.server)
	if m.compressed != nil {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Audio:"), compressionLine(*m.compressed))
	}
	b.WriteString("\n")
	return b.String()
}

func compressionLine(c protocol.AnalyzeCompressed) string {
	if !c.Used {
		return fmt.Sprintf("original %s", formatBytes(c.OriginalBytes))
	}
	return fmt.Sprintf("%s → %s (16 kHz mono WAV)", formatBytes(c.OriginalBytes), formatBytes(c.CompressedBytes))
}

// StageLabel is the progress line shown for a stage
func StageLabel(stage string) string {
	switch stage {
	case protocol.StageReceiving:
		return "Uploading..."
	case protocol.StageCompressing:
		return "Optimizing Audio..."
	case protocol.StageAnalyzing:
		return "Analysing Engine..."
	case protocol.StageRendering:
		return "Rendering minutes..."
	case "":
		return "Connecting..."
	}
	return stage
}

// renderProgress renders the stage while the analysis runs
func (m Model) renderProgress() string {
	line := "⏳ " + StageLabel(m.stage)
	if m.detail != "" && m.stage == protocol.StageAnalyzing {
		line += faintStyle.Render(" " + m.detail)
	}
	return fmt.Sprintf("%s  %s\n", line, faintStyle.Render(m.elapsed.Round(time.Second).String()))
}

// renderError renders the failure, with the model text when parsing failed
func (m Model) renderError() string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("✗ "+m.err.Error()) + "\n")
	if m.rawText != "" {
		b.WriteString("\n" + labelStyle.Render("Raw output:") + "\n")
		b.WriteString(m.window(m.rawText))
	}
	return b.String()
}

// renderReport renders the report in the selected language
func (m Model) renderReport() string {
	header := fmt.Sprintf("✓ %s %s\n\n", m.model, faintStyle.Render(m.elapsed.Round(time.Second).String()))
	return header + m.window(minutes.FormatText(m.report.Lang(m.lang)))
}

// window returns the lines of text visible at the current scroll offset
func (m Model) window(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	height := len(lines)
	if m.height > 0 {
		// header and help take about twelve lines
		height = max(m.height-12, 5)
	}
	start := min(m.scroll, max(len(lines)-height, 0))
	end := min(start+height, len(lines))
	return strings.Join(lines[start:end], "\n") + "\n"
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	if m.report == nil {
		return faintStyle.Render("k/e:Language  q:Quit")
	}
	return faintStyle.Render("k/e:Language  ↑/↓:Scroll  c:Copy  w:DOCX  p:PDF  q:Quit")
}

// Report returns the finished report, nil until one arrives
func (m Model) Report() *minutes.Report {
	return m.report
}

// Err returns the analysis failure, if any
func (m Model) Err() error {
	return m.err
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
