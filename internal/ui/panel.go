package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// PanelString frames content in a box using the current theme.
func PanelString(content string) string {
	t := Current()
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1).
		Render(content)
}

// Panel writes lines framed in a box.
func Panel(w io.Writer, lines []string) {
	fmt.Fprintln(w, PanelString(strings.Join(lines, "\n")))
}

// Header is the "Todos ✔ n • n Total n" line shared by the list and the view.
func Header(done, pending int) string {
	t := Current()
	return fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), pending,
		t.Accent.Render("Total"), done+pending,
	)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func OK(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Success.Render(t.SymOK+" "+msg))
}

func Fail(w io.Writer, msg string) {
	t := Current()
	fmt.Fprintln(w, t.Error.Render(t.SymFail+" "+msg))
}
