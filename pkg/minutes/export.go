// ABOUTME: Export format selection for reports
// ABOUTME: Renders one language of a report and names the output file
package minutes

import "fmt"

// Export formats
const (
	FormatDOCX     = "docx"
	FormatPDF      = "pdf"
	FormatTXT      = "txt"
	FormatMarkdown = "md"
)

// Export is a rendered document ready to save or serve
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Render produces the document for format in the given language
func Render(r *Report, lang, format string, opts PDFOptions) (*Export, error) {
	m := r.Lang(lang)

	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatDOCX:
		data, err = DOCX(m)
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		data, err = PDF(m, opts)
		contentType = "application/pdf"
	case FormatTXT:
		data = []byte(FormatText(m))
		contentType = "text/plain; charset=utf-8"
	case FormatMarkdown:
		data = []byte(Markdown(m))
		contentType = "text/markdown; charset=utf-8"
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	return &Export{
		FileName:    FileName(m, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// Formats lists the export formats Render accepts
var Formats = []string{FormatDOCX, FormatPDF, FormatTXT, FormatMarkdown}

// ValidFormat reports whether Render accepts format
func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}
