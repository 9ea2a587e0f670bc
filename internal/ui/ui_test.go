package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/untoldecay/cora/internal/queries"
	"github.com/untoldecay/cora/internal/types"
)

func plain(t *testing.T) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"no color wins", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
		{"clicolor zero", map[string]string{"CLICOLOR": "0"}, false},
		{"forced", map[string]string{"CLICOLOR_FORCE": "1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "CLICOLOR", "CLICOLOR_FORCE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := ShouldUseColor(); got != tt.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderForest(t *testing.T) {
	plain(t)

	part := &types.Group{ID: 1, Name: "Part I"}
	sub := &types.Group{ID: 2, Name: "Chapter", ParentID: types.Int64Ptr(1)}
	docs := []*types.Document{
		{ID: 10, Name: "Opening", GroupID: types.Int64Ptr(1), SortOrder: types.Int64Ptr(0)},
		{ID: 11, Name: "Scene", GroupID: types.Int64Ptr(2), SortOrder: types.Int64Ptr(0)},
		{ID: 12, Name: "Stray"},
	}
	f := queries.BuildForest([]*types.Group{part, sub}, docs)

	out := RenderForest("Book", f, TreeOptions{ShowIDs: true})
	for _, want := range []string{"Book", "1 Part I #1", "1.1 Opening #10", "1.1 Chapter #2", "1.1.1 Scene #11", "(unfiled)", "Stray #12 (legacy)"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree missing %q:\n%s", want, out)
		}
	}

	shallow := RenderForest("Book", f, TreeOptions{Depth: 1})
	if strings.Contains(shallow, "Scene") || !strings.Contains(shallow, "… 1 more") {
		t.Errorf("depth-limited tree:\n%s", shallow)
	}
}

func TestRenderTableEmpty(t *testing.T) {
	plain(t)
	if got := RenderTable([]string{"ID", "Name"}, nil, "No projects yet"); got != "No projects yet" {
		t.Errorf("RenderTable(empty) = %q", got)
	}
	out := RenderTable([]string{"ID", "Name"}, [][]string{{"1", "Book"}}, "")
	if !strings.Contains(out, "Book") || !strings.Contains(out, "Name") {
		t.Errorf("RenderTable = %q", out)
	}
}

func TestRenderReportSkipsZeroStats(t *testing.T) {
	plain(t)
	out := RenderReport(`Imported "Book"`, []Stat{{"groups", 2}, {"drafts", 0}}, []string{"1 link skipped"})
	if !strings.Contains(out, "2 groups") || strings.Contains(out, "drafts") || !strings.Contains(out, "1 link skipped") {
		t.Errorf("report:\n%s", out)
	}
}

func TestRenderMarkdownPlain(t *testing.T) {
	plain(t)
	if got := RenderMarkdown("# Notes\nkeep", 80); got != "# Notes\nkeep" {
		t.Errorf("RenderMarkdown without color = %q", got)
	}
	if got := RenderMarkdown("  ", 80); got != "" {
		t.Errorf("RenderMarkdown(blank) = %q", got)
	}
}

func TestConfirmNonInteractive(t *testing.T) {
	if IsInteractive() {
		t.Skip("needs a non-interactive session")
	}
	ok, err := Confirm("Delete?", "", true)
	if err != nil || !ok {
		t.Errorf("Confirm = %v, %v; want default true", ok, err)
	}
}
