// ABOUTME: Bilingual meeting report model and parser
// ABOUTME: Strips code fences and repairs malformed model JSON
package minutes

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Language codes used as report keys
const (
	LangKO = "ko"
	LangEN = "en"
)

// Report is the bilingual analysis result
type Report struct {
	KO MeetingData `json:"ko"`
	EN MeetingData `json:"en"`
}

// MeetingData is one language's rendition of the minutes
type MeetingData struct {
	Title        string       `json:"title"`
	Date         string       `json:"date"`
	Participants []string     `json:"participants"`
	Summary      string       `json:"summary"`
	Discussion   []Discussion `json:"discussion"`
	Decisions    []string     `json:"decisions"`
	ActionItems  []ActionItem `json:"actionItems"`
}

// Discussion is one topic raised during the meeting
type Discussion struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// ActionItem is a follow-up task
type ActionItem struct {
	Task     string `json:"task"`
	Assignee string `json:"assignee"`
	Due      string `json:"due"`
}

// ParseError reports model output that could not be read as a Report.
// Raw holds the untouched model text.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse structured output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrEmptyReport is wrapped by ParseError when the JSON holds neither language
var ErrEmptyReport = errors.New("report has no ko or en section")

var (
	leadingFence  = regexp.MustCompile("^```(?:json)?\\s*\\n?")
	trailingFence = regexp.MustCompile("\\n?```$")
)

// StripFences removes a surrounding markdown code fence from model output
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Parse reads model output as a Report. Markdown fences are stripped and
// malformed JSON is repaired once before giving up.
func Parse(text string) (*Report, error) {
	clean := StripFences(text)

	var r Report
	if err := unmarshalJSON([]byte(clean), &r); err != nil {
		return nil, &ParseError{Raw: text, Err: err}
	}
	if r.KO.isZero() && r.EN.isZero() {
		return nil, &ParseError{Raw: text, Err: ErrEmptyReport}
	}

	r.KO.normalize()
	r.EN.normalize()
	return &r, nil
}

// unmarshalJSON retries with jsonrepair when the input has a syntax error
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return fmt.Errorf("%w (repair failed: %v)", err, rerr)
	}
	return json.Unmarshal([]byte(fixed), v)
}

// Lang returns the minutes for lang, defaulting to Korean
func (r *Report) Lang(lang string) MeetingData {
	if strings.EqualFold(lang, LangEN) {
		return r.EN
	}
	return r.KO
}

// ValidLang reports whether lang is a supported report language
func ValidLang(lang string) bool {
	return lang == LangKO || lang == LangEN
}

func (m *MeetingData) isZero() bool {
	return m.Title == "" && m.Summary == "" && len(m.Discussion) == 0 &&
		len(m.Decisions) == 0 && len(m.ActionItems) == 0 && len(m.Participants) == 0
}

// normalize replaces nil slices so renderers and JSON output see empty lists
func (m *MeetingData) normalize() {
	if m.Participants == nil {
		m.Participants = []string{}
	}
	if m.Discussion == nil {
		m.Discussion = []Discussion{}
	}
	if m.Decisions == nil {
		m.Decisions = []string{}
	}
	if m.ActionItems == nil {
		m.ActionItems = []ActionItem{}
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName builds the export file name: STEK_Minutes_<title>.<ext>, with
// whitespace runs in the title replaced by underscores
func FileName(m MeetingData, ext string) string {
	title := whitespace.ReplaceAllString(m.Title, "_")
	title = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
	return fmt.Sprintf("STEK_Minutes_%s.%s", title, strings.TrimPrefix(ext, "."))
}
