package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/queries"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/ui"
)

var groupCmd = &cobra.Command{
	Use:     "group",
	Aliases: []string{"folder"},
	GroupID: "tree",
	Short:   "Manage the ordered group tree",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a group",
	Long: `Create a group under --parent (top level by default).

The group is appended after its siblings. With --after N it is inserted
right after the sibling at position N (0-based) and later siblings shift
down; --after -1 inserts at the front.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		parentTerm, _ := cmd.Flags().GetString("parent")
		parentID := resolveGroupRef(p.ID, parentTerm)

		var (
			g   *types.Group
			err error
		)
		if cmd.Flags().Changed("after") {
			after, _ := cmd.Flags().GetInt64("after")
			g, err = store.CreateGroupAfter(rootCtx, p.ID, args[0], parentID, after)
		} else {
			g, err = store.CreateGroup(rootCtx, p.ID, args[0], parentID)
		}
		fatalIf(err, "failed to create group")

		if jsonOutput {
			outputJSON(g)
			return
		}
		fmt.Printf("%s Created group %s (#%d) in %s at position %d\n",
			ui.RenderPass("✓"), ui.RenderAccent(g.Name), g.ID, groupName(g.ParentID), g.SortOrder)
	},
}

var groupRenameCmd = &cobra.Command{
	Use:         "rename <group> <new-name>",
	Short:       "Rename a group",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		g := resolveGroup(p.ID, args[0])
		fatalIf(store.RenameGroup(rootCtx, g.ID, args[1]), "failed to rename group")

		if jsonOutput {
			outputJSON(map[string]interface{}{"id": g.ID, "name": args[1]})
			return
		}
		fmt.Printf("%s Renamed %s to %s\n", ui.RenderPass("✓"), g.Name, ui.RenderAccent(args[1]))
	},
}

var groupNotesCmd = &cobra.Command{
	Use:         "notes <group> [text]",
	Short:       "Show or replace group notes",
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationMutates: mutatesOnChange},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		g := resolveGroup(p.ID, args[0])
		notes, changed := notesInput(cmd, args, g.Notes)
		if !changed {
			if jsonOutput {
				outputJSON(map[string]string{"notes": g.Notes})
				return
			}
			printNotes(g.Notes)
			return
		}
		fatalIf(store.UpdateGroupNotes(rootCtx, g.ID, notes), "failed to update notes")
		reportNotesSaved(g.Name, notes)
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:         "delete <group>",
	Short:       "Delete a group with its subgroups and documents",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		g := resolveGroup(p.ID, args[0])
		if !confirm(fmt.Sprintf("Delete group %q?", g.Name), "Its subgroups and their documents are deleted too.") {
			fmt.Println("Cancelled.")
			return
		}
		fatalIf(store.DeleteGroup(rootCtx, g.ID), "failed to delete group")

		if jsonOutput {
			outputJSON(map[string]interface{}{"deleted": g.ID})
			return
		}
		fmt.Printf("%s Deleted group %s\n", ui.RenderPass("✓"), g.Name)
	},
}

func newGroupMoveCmd(dir types.Direction) *cobra.Command {
	return &cobra.Command{
		Use:         string(dir) + " <group>",
		Short:       fmt.Sprintf("Move a group one position %s among its siblings", dir),
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationMutates: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			p := currentProject()
			g := resolveGroup(p.ID, args[0])
			fatalIf(store.ReorderGroup(rootCtx, g.ID, dir), "failed to reorder group")

			moved, err := store.GetGroup(rootCtx, g.ID)
			fatalIf(err, "failed to reload group")
			if jsonOutput {
				outputJSON(moved)
				return
			}
			if moved.SortOrder == g.SortOrder {
				fmt.Printf("%s %s is already at the %s\n", ui.RenderWarn("•"), g.Name, edgeWord(dir))
				return
			}
			fmt.Printf("%s Moved %s to position %d\n", ui.RenderPass("✓"), g.Name, moved.SortOrder)
		},
	}
}

var groupListCmd = &cobra.Command{
	Use:   "list [parent]",
	Short: "List the groups directly under a parent (top level by default)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		var parentID *int64
		if len(args) == 1 {
			parentID = resolveGroupRef(p.ID, args[0])
		}

		groups, err := store.ListGroups(rootCtx, p.ID)
		fatalIf(err, "failed to list groups")
		docs, err := store.ListDocuments(rootCtx, p.ID)
		fatalIf(err, "failed to list documents")
		f := queries.BuildForest(groups, docs)

		siblings := f.Roots
		if parentID != nil {
			siblings = nil
			f.Walk(func(node *queries.GroupNode, _ int) bool {
				if node.Group.ID == *parentID {
					siblings = node.Groups
					return false
				}
				return true
			})
		}

		if jsonOutput {
			out := make([]*types.Group, 0, len(siblings))
			for _, n := range siblings {
				out = append(out, n.Group)
			}
			outputJSON(out)
			return
		}
		rows := make([][]string, 0, len(siblings))
		for _, n := range siblings {
			rows = append(rows, []string{
				strconv.FormatInt(n.Group.SortOrder, 10),
				strconv.FormatInt(n.Group.ID, 10),
				n.Group.Name,
				strconv.Itoa(len(n.Groups)),
				strconv.Itoa(len(n.Documents)),
			})
		}
		fmt.Println(ui.RenderTable([]string{"Pos", "ID", "Name", "Groups", "Docs"}, rows, "No groups here."))
	},
}

func edgeWord(dir types.Direction) string {
	if dir == types.DirectionUp {
		return "top"
	}
	return "bottom"
}

func init() {
	groupCreateCmd.Flags().String("parent", "", "Parent group name or id (top level when empty)")
	groupCreateCmd.Flags().Int64("after", 0, "Insert after the sibling at this position (-1 for the front)")
	groupNotesCmd.Flags().Bool("edit", false, "Edit notes in $EDITOR")
	groupNotesCmd.Flags().Bool("clear", false, "Remove the notes")

	groupCmd.AddCommand(
		groupCreateCmd,
		groupRenameCmd,
		groupNotesCmd,
		groupDeleteCmd,
		newGroupMoveCmd(types.DirectionUp),
		newGroupMoveCmd(types.DirectionDown),
		groupListCmd,
	)
	rootCmd.AddCommand(groupCmd)
}
