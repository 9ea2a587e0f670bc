package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/queries"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/ui"
)

// treeJSON is the nested JSON shape of 'cora tree'.
type treeJSON struct {
	*types.Group
	Groups    []*treeJSON       `json:"groups"`
	Documents []*types.Document `json:"documents"`
}

func toTreeJSON(nodes []*queries.GroupNode) []*treeJSON {
	out := make([]*treeJSON, 0, len(nodes))
	for _, n := range nodes {
		docs := n.Documents
		if docs == nil {
			docs = []*types.Document{}
		}
		out = append(out, &treeJSON{Group: n.Group, Groups: toTreeJSON(n.Groups), Documents: docs})
	}
	return out
}

var treeCmd = &cobra.Command{
	Use:     "tree [project]",
	GroupID: "tree",
	Short:   "Show a project's groups and documents in order",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := projectArg(args)
		groups, err := store.ListGroups(rootCtx, p.ID)
		fatalIf(err, "failed to list groups")
		docs, err := store.ListDocuments(rootCtx, p.ID)
		fatalIf(err, "failed to list documents")
		f := queries.BuildForest(groups, docs)

		if jsonOutput {
			unfiled := f.Unfiled
			if unfiled == nil {
				unfiled = []*types.Document{}
			}
			outputJSON(map[string]interface{}{
				"project": p,
				"groups":  toTreeJSON(f.Roots),
				"unfiled": unfiled,
			})
			return
		}

		showIDs, _ := cmd.Flags().GetBool("ids")
		depth, _ := cmd.Flags().GetInt("depth")
		fmt.Println(ui.RenderForest(p.Name, f, ui.TreeOptions{ShowIDs: showIDs, Depth: depth}))
		nGroups, nDocs := f.Counts()
		fmt.Println(ui.RenderMuted(fmt.Sprintf("%d groups, %d documents", nGroups, nDocs)))
	},
}

func init() {
	treeCmd.Flags().Bool("ids", false, "Show record ids")
	treeCmd.Flags().Int("depth", 0, "Limit nesting below top-level groups (0 = unlimited)")
	rootCmd.AddCommand(treeCmd)
}
