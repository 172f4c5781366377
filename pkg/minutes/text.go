// ABOUTME: Plain text and markdown renderers for meeting minutes
// ABOUTME: Produces the clipboard text and a markdown document
package minutes

import (
	"fmt"
	"strings"
)

// FormatText renders the plain-text report used for clipboard copies
func FormatText(m MeetingData) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%s]\n", m.Title)
	fmt.Fprintf(&sb, "Date: %s\n", m.Date)
	fmt.Fprintf(&sb, "Participants: %s\n\n", strings.Join(m.Participants, ", "))
	fmt.Fprintf(&sb, "Summary:\n%s\n\n", m.Summary)

	sb.WriteString("Discussion:\n")
	for _, d := range m.Discussion {
		fmt.Fprintf(&sb, "- %s: %s\n", d.Topic, d.Content)
	}

	sb.WriteString("\nDecisions:\n")
	for _, d := range m.Decisions {
		fmt.Fprintf(&sb, "- %s\n", d)
	}

	sb.WriteString("\nAction Items:\n")
	for _, a := range m.ActionItems {
		sb.WriteString("- " + a.String() + "\n")
	}

	return sb.String()
}

// String renders an action item as "[assignee] task (Due: due)"
func (a ActionItem) String() string {
	return fmt.Sprintf("[%s] %s (Due: %s)", a.Assignee, a.Task, a.Due)
}

// Markdown renders the minutes as a markdown document
func Markdown(m MeetingData) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", m.Title)
	fmt.Fprintf(&sb, "**Date:** %s  \n", m.Date)
	fmt.Fprintf(&sb, "*Participants: %s*\n\n", strings.Join(m.Participants, ", "))

	fmt.Fprintf(&sb, "## Summary\n\n%s\n\n", m.Summary)

	sb.WriteString("## Discussion\n\n")
	for _, d := range m.Discussion {
		fmt.Fprintf(&sb, "### %s\n\n%s\n\n", d.Topic, d.Content)
	}

	sb.WriteString("## Decisions\n\n")
	for _, d := range m.Decisions {
		fmt.Fprintf(&sb, "- %s\n", d)
	}

	sb.WriteString("\n## Action Items\n\n")
	if len(m.ActionItems) > 0 {
		sb.WriteString("| Assignee | Task | Due |\n|---|---|---|\n")
		for _, a := range m.ActionItems {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", mdCell(a.Assignee), mdCell(a.Task), mdCell(a.Due))
		}
	}

	return sb.String()
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
