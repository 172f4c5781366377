// ABOUTME: Report parsing and rendering for meeting minutes
// ABOUTME: Text, markdown, DOCX and PDF renderers over one MeetingData
// Package minutes parses the model's bilingual JSON report and renders it
// for people: plain text for the clipboard, markdown, DOCX and PDF.
//
// A Report carries a Korean and an English MeetingData. Renderers take one
// language at a time, selected with Report.Lang.
package minutes
