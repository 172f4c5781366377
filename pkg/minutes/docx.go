// ABOUTME: Word export for meeting minutes
// ABOUTME: Builds the document with godocx in the plain-text section order
package minutes

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/stypes"
)

// DOCX renders the minutes as a Word document with the same section order
// as the plain-text report
func DOCX(m MeetingData) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to create docx: %w", err)
	}
	defer doc.Close()

	title, err := doc.AddHeading(m.Title, 1)
	if err != nil {
		return nil, err
	}
	title.Justification(stypes.JustificationCenter)

	doc.AddEmptyParagraph().AddText("Date: " + m.Date).Bold(true)
	doc.AddEmptyParagraph().AddText("Participants: " + strings.Join(m.Participants, ", ")).Italic(true)
	doc.AddEmptyParagraph()

	section := func(name string) error {
		_, err := doc.AddHeading(name, 2)
		return err
	}

	if err := section("Summary"); err != nil {
		return nil, err
	}
	doc.AddParagraph(m.Summary)
	doc.AddEmptyParagraph()

	if err := section("Discussion"); err != nil {
		return nil, err
	}
	for _, d := range m.Discussion {
		doc.AddEmptyParagraph().AddText(d.Topic).Bold(true)
		doc.AddParagraph(d.Content)
	}
	doc.AddEmptyParagraph()

	if err := section("Decisions"); err != nil {
		return nil, err
	}
	for _, d := range m.Decisions {
		bullet(doc, d)
	}
	doc.AddEmptyParagraph()

	if err := section("Action Items"); err != nil {
		return nil, err
	}
	for _, a := range m.ActionItems {
		bullet(doc, a.String())
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to finish docx: %w", err)
	}
	return buf.Bytes(), nil
}

func bullet(doc *docx.RootDoc, text string) {
	doc.AddParagraph(text).Style("ListBullet")
}
