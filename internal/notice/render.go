package notice

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	baseStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Width(48).
			Border(lipgloss.RoundedBorder())

	severityStyles = map[Severity]lipgloss.Style{
		Success: baseStyle.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#22C55E")).BorderForeground(lipgloss.Color("#16A34A")),
		Error:   baseStyle.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#EF4444")).BorderForeground(lipgloss.Color("#DC2626")),
		Warning: baseStyle.Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#EAB308")).BorderForeground(lipgloss.Color("#CA8A04")),
		Info:    baseStyle.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3B82F6")).BorderForeground(lipgloss.Color("#2563EB")),
	}
)

func icon(s Severity) string {
	switch s {
	case Success:
		return "✔"
	case Error:
		return "✖"
	default:
		return "!"
	}
}

// Render draws one notice as a toast.
func Render(n Notice) string {
	style, ok := severityStyles[n.Severity]
	if !ok {
		style = severityStyles[Info]
	}

	var b strings.Builder
	b.WriteString(icon(n.Severity))
	b.WriteString(" ")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(n.Title))
	b.WriteString("  [")
	// A Caser holds state and must not be shared across goroutines.
	b.WriteString(cases.Title(language.English).String(string(n.Severity)))
	b.WriteString("]")
	if n.Detail != "" {
		b.WriteString("\n")
		b.WriteString(n.Detail)
	}

	return style.Render(b.String())
}

// RenderAll stacks the notices vertically in the given order.
func RenderAll(notices []Notice) string {
	blocks := make([]string, 0, len(notices))
	for _, n := range notices {
		blocks = append(blocks, Render(n))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}
