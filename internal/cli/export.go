// ABOUTME: export command for saved reports
// ABOUTME: Renders report JSON to DOCX, PDF, text or markdown
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oli8788/stek-meeting-minutes/internal/ui"
	"github.com/oli8788/stek-meeting-minutes/pkg/minutes"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var format, lang, out, pdfFont string

	cmd := &cobra.Command{
		Use:   "export <report.json>",
		Short: "Render a saved report as DOCX, PDF, text or markdown",
		Long: `Render a report JSON ({"ko": {...}, "en": {...}}) to a document named
STEK_Minutes_<title>.<ext>. Raw model output with markdown fences is accepted.

Examples:
  minutes export report.json --format pdf --lang en --pdf-font NanumGothic.ttf
  minutes export report.json --format md --out reports/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !minutes.ValidFormat(format) {
				return fmt.Errorf("unsupported export format: %s", format)
			}
			if !minutes.ValidLang(lang) {
				return fmt.Errorf("unsupported language: %s", lang)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			report, err := minutes.Parse(string(data))
			if err != nil {
				return err
			}

			path, err := ui.WriteExport(report, lang, format, out, minutes.PDFOptions{FontPath: pdfFont})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", minutes.FormatDOCX, "Output format: docx, pdf, txt or md")
	cmd.Flags().StringVar(&lang, "lang", minutes.LangKO, "Report language: ko or en")
	cmd.Flags().StringVar(&out, "out", ".", "Output directory")
	cmd.Flags().StringVar(&pdfFont, "pdf-font", "", "TrueType font for PDF export (needed for Hangul)")
	return cmd
}
