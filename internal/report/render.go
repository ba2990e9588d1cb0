package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// RenderEvent formats an event as a single styled line.
func RenderEvent(event Event) string {
	var style lipgloss.Style
	prefix := "•"
	switch event.Level {
	case LevelError:
		style = errorStyle
		prefix = "✗"
	case LevelWarning:
		style = warningStyle
		prefix = "!"
	case LevelSuccess:
		style = successStyle
		prefix = "✓"
	case LevelInfo:
		style = infoStyle
		prefix = "›"
	default:
		style = dimStyle
	}
	return style.Render(prefix + " " + event.Message)
}

// RenderSummary formats the end-of-run summary box.
//
// Colors are dropped automatically when the output is not a terminal.
func RenderSummary(s Stats) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("bookdl summary"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Book pages:      %d", s.BookPages)
	if s.FailedPages > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf(" (%d failed)", s.FailedPages)))
	}
	if s.MissingRegions > 0 {
		b.WriteString(warningStyle.Render(fmt.Sprintf(" (%d without documents section)", s.MissingRegions)))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Documents found: %d\n", s.Documents)
	b.WriteString(successStyle.Render(fmt.Sprintf("Downloaded:      %d (%s)", s.Succeeded, FormatBytes(s.Bytes))))
	b.WriteString("\n")
	if s.Failed > 0 {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Failed:          %d", s.Failed)))
	} else {
		b.WriteString(dimStyle.Render("Failed:          0"))
	}

	return boxStyle.Render(b.String())
}

// WriteSummary writes RenderSummary followed by a newline to w.
func WriteSummary(w io.Writer, s Stats) error {
	_, err := fmt.Fprintln(w, RenderSummary(s))
	return err
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
