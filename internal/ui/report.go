package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
)

var (
	reportTitleStyle = lipgloss.NewStyle().Bold(true)
	reportItemStyle  = lipgloss.NewStyle().PaddingLeft(1)
)

// Stat is one labelled count in a report.
type Stat struct {
	Label string
	Value int
}

// RenderReport renders a titled summary list, e.g. after an import:
//
//	✓ Imported "My Novel"
//	  • 3 groups
//	  • 12 documents
//
// Zero-valued stats are omitted.
func RenderReport(title string, stats []Stat, warnings []string) string {
	l := list.New().
		Enumerator(list.Bullet).
		EnumeratorStyle(lipgloss.NewStyle().Foreground(ColorMuted).PaddingLeft(2)).
		ItemStyle(reportItemStyle)
	for _, s := range stats {
		if s.Value == 0 {
			continue
		}
		l.Item(fmt.Sprintf("%d %s", s.Value, s.Label))
	}
	for _, w := range warnings {
		l.Item(RenderWarn(w))
	}

	out := RenderPass("✓") + " " + reportTitleStyle.Render(title)
	if rendered := l.String(); rendered != "" {
		out += "\n" + rendered
	}
	return out
}
