package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(success)
	countStyle = lipgloss.NewStyle().Bold(true)
)

// Count is one labelled number in a command summary.
type Count struct {
	Label string
	N     int
}

// RenderSummary formats a one-line result such as "Seeded  staff 1 · items 11".
func RenderSummary(title string, counts ...Count) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s %s", labelStyle.Render(c.Label), countStyle.Render(fmt.Sprint(c.N)))
	}
	return titleStyle.Render(title) + "  " + strings.Join(parts, labelStyle.Render(" · "))
}
