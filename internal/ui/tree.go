package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/untoldecay/cora/internal/queries"
	"github.com/untoldecay/cora/internal/types"
)

var (
	treeRootStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	treeGroupStyle = lipgloss.NewStyle().Bold(true)
	treeEnumStyle  = lipgloss.NewStyle().Foreground(ColorMuted).MarginRight(1)
)

// TreeOptions controls what RenderForest shows.
type TreeOptions struct {
	// ShowIDs appends "#id" to every node.
	ShowIDs bool
	// Depth limits nesting below root groups; 0 means unlimited.
	Depth int
}

// RenderForest draws the project tree: numbered groups with their documents,
// followed by an "(unfiled)" branch when unfiled documents exist.
func RenderForest(projectName string, f *queries.Forest, opts TreeOptions) string {
	t := tree.Root(treeRootStyle.Render(projectName)).
		EnumeratorStyle(treeEnumStyle)

	for i, node := range f.Roots {
		t.Child(groupTree(node, fmt.Sprintf("%d", i+1), 0, opts))
	}
	if len(f.Unfiled) > 0 {
		unfiled := tree.Root(RenderMuted("(unfiled)")).EnumeratorStyle(treeEnumStyle)
		for _, d := range f.Unfiled {
			unfiled.Child(docLabel("", d, opts))
		}
		t.Child(unfiled)
	}
	return t.String()
}

func groupTree(node *queries.GroupNode, number string, depth int, opts TreeOptions) *tree.Tree {
	label := treeGroupStyle.Render(number + " " + node.Group.Name)
	if opts.ShowIDs {
		label += " " + RenderMuted(fmt.Sprintf("#%d", node.Group.ID))
	}
	t := tree.Root(label).EnumeratorStyle(treeEnumStyle)

	if opts.Depth > 0 && depth >= opts.Depth {
		if n := len(node.Groups) + len(node.Documents); n > 0 {
			t.Child(RenderMuted(fmt.Sprintf("… %d more", n)))
		}
		return t
	}
	for j, d := range node.Documents {
		t.Child(docLabel(fmt.Sprintf("%s.%d", number, j+1), d, opts))
	}
	for i, child := range node.Groups {
		t.Child(groupTree(child, fmt.Sprintf("%s.%d", number, i+1), depth+1, opts))
	}
	return t
}

func docLabel(number string, d *types.Document, opts TreeOptions) string {
	var b strings.Builder
	if number != "" {
		b.WriteString(RenderMuted(number))
		b.WriteByte(' ')
	}
	b.WriteString(d.Name)
	if opts.ShowIDs {
		b.WriteString(" " + RenderMuted(fmt.Sprintf("#%d", d.ID)))
	}
	if d.SortOrder == nil {
		b.WriteString(" " + RenderWarn("(legacy)"))
	}
	return b.String()
}
