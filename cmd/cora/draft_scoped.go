package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/ui"
)

// draftContent reads draft text from args[i] ("-" for stdin) or, with
// --edit, from the editor seeded with current.
func draftContent(cmd *cobra.Command, args []string, i int, current string) (string, bool) {
	if edit, _ := cmd.Flags().GetBool("edit"); edit {
		edited, err := editText("draft", current)
		if err != nil {
			FatalErrorRespectJSON("%v", err)
		}
		return edited, edited != current
	}
	if len(args) <= i {
		return current, false
	}
	return textArg(args[i]), true
}

func wordCount(s string) string {
	return strconv.Itoa(len(strings.Fields(s)))
}

var projectDraftCmd = &cobra.Command{
	Use:   "project",
	Short: "Free-standing drafts of the current project (outlines, synopses)",
}

var projectDraftSaveCmd = &cobra.Command{
	Use:         "save <name> [text|-]",
	Short:       "Create a project draft",
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		content, _ := draftContent(cmd, args, 1, "")
		draft, err := store.CreateProjectDraft(rootCtx, p.ID, args[0], content)
		fatalIf(err, "failed to save draft")

		if jsonOutput {
			outputJSON(draft)
			return
		}
		fmt.Printf("%s Saved project draft #%d (%s)\n", ui.RenderPass("✓"), draft.ID, draft.Name)
	},
}

var projectDraftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List project drafts, most recently updated first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		drafts, err := store.ListProjectDrafts(rootCtx, p.ID)
		fatalIf(err, "failed to list drafts")

		if jsonOutput {
			if drafts == nil {
				drafts = []*types.ProjectDraft{}
			}
			outputJSON(drafts)
			return
		}
		rows := make([][]string, 0, len(drafts))
		for _, d := range drafts {
			rows = append(rows, []string{
				strconv.FormatInt(d.ID, 10),
				d.Name,
				d.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
				wordCount(d.Content),
			})
		}
		fmt.Println(ui.RenderTable([]string{"ID", "Name", "Updated", "Words"}, rows, "No project drafts for "+p.Name+"."))
	},
}

var projectDraftShowCmd = &cobra.Command{
	Use:   "show <draft-id>",
	Short: "Print a project draft's content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		draft, err := store.GetProjectDraft(rootCtx, parseID(args[0], "project draft"))
		fatalIf(err, "failed to load draft")
		if jsonOutput {
			outputJSON(draft)
			return
		}
		fmt.Print(draft.Content)
	},
}

var projectDraftEditCmd = &cobra.Command{
	Use:         "edit <draft-id> [text|-]",
	Short:       "Replace a project draft's content or name",
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		current, err := store.GetProjectDraft(rootCtx, parseID(args[0], "project draft"))
		fatalIf(err, "failed to load draft")

		update := draftUpdate(cmd, args, current.Content)
		draft, err := store.UpdateProjectDraft(rootCtx, current.ID, update)
		fatalIf(err, "failed to update draft")

		if jsonOutput {
			outputJSON(draft)
			return
		}
		fmt.Printf("%s Updated project draft #%d (%s)\n", ui.RenderPass("✓"), draft.ID, draft.Name)
	},
}

var projectDraftDeleteCmd = &cobra.Command{
	Use:         "delete [draft-id]",
	Short:       "Delete a project draft, or all of them with --all",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		if all, _ := cmd.Flags().GetBool("all"); all {
			p := currentProject()
			if !confirm(fmt.Sprintf("Delete every project draft of %q?", p.Name), "") {
				fmt.Println("Cancelled.")
				return
			}
			fatalIf(store.DeleteAllProjectDrafts(rootCtx, p.ID), "failed to delete drafts")
			if !jsonOutput {
				fmt.Printf("%s Deleted all project drafts of %s\n", ui.RenderPass("✓"), p.Name)
			}
			return
		}
		if len(args) == 0 {
			FatalErrorRespectJSON("give a draft id or --all")
		}

		id := parseID(args[0], "project draft")
		fatalIf(store.DeleteProjectDraft(rootCtx, id), "failed to delete draft")
		if jsonOutput {
			outputJSON(map[string]interface{}{"deleted": id})
			return
		}
		fmt.Printf("%s Deleted project draft #%d\n", ui.RenderPass("✓"), id)
	},
}

var groupDraftCmd = &cobra.Command{
	Use:   "group",
	Short: "Ordered drafts kept on a group",
}

var groupDraftSaveCmd = &cobra.Command{
	Use:         "save <group> <name> [text|-]",
	Short:       "Create a group draft at the end of the list, or at --at",
	Args:        cobra.RangeArgs(2, 3),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		g := resolveGroup(p.ID, args[0])
		content, _ := draftContent(cmd, args, 2, "")

		var draft *types.FolderDraft
		var err error
		if cmd.Flags().Changed("at") {
			at, _ := cmd.Flags().GetInt64("at")
			draft, err = store.CreateFolderDraftAt(rootCtx, g.ID, args[1], content, at)
		} else {
			draft, err = store.CreateFolderDraft(rootCtx, g.ID, args[1], content)
		}
		fatalIf(err, "failed to save draft")

		if jsonOutput {
			outputJSON(draft)
			return
		}
		fmt.Printf("%s Saved draft #%d at position %d of %s\n", ui.RenderPass("✓"), draft.ID, draft.SortOrder, g.Name)
	},
}

var groupDraftListCmd = &cobra.Command{
	Use:   "list <group>",
	Short: "List a group's drafts in order",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		g := resolveGroup(p.ID, args[0])
		drafts, err := store.ListFolderDrafts(rootCtx, g.ID)
		fatalIf(err, "failed to list drafts")

		if jsonOutput {
			if drafts == nil {
				drafts = []*types.FolderDraft{}
			}
			outputJSON(drafts)
			return
		}
		rows := make([][]string, 0, len(drafts))
		for _, d := range drafts {
			rows = append(rows, []string{
				strconv.FormatInt(d.SortOrder, 10),
				strconv.FormatInt(d.ID, 10),
				d.Name,
				wordCount(d.Content),
			})
		}
		fmt.Println(ui.RenderTable([]string{"#", "ID", "Name", "Words"}, rows, "No drafts for "+g.Name+"."))
	},
}

var groupDraftShowCmd = &cobra.Command{
	Use:   "show <draft-id>",
	Short: "Print a group draft's content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		draft, err := store.GetFolderDraft(rootCtx, parseID(args[0], "group draft"))
		fatalIf(err, "failed to load draft")
		if jsonOutput {
			outputJSON(draft)
			return
		}
		fmt.Print(draft.Content)
	},
}

var groupDraftEditCmd = &cobra.Command{
	Use:         "edit <draft-id> [text|-]",
	Short:       "Replace a group draft's content or name",
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		current, err := store.GetFolderDraft(rootCtx, parseID(args[0], "group draft"))
		fatalIf(err, "failed to load draft")

		update := draftUpdate(cmd, args, current.Content)
		draft, err := store.UpdateFolderDraft(rootCtx, current.ID, update)
		fatalIf(err, "failed to update draft")

		if jsonOutput {
			outputJSON(draft)
			return
		}
		fmt.Printf("%s Updated group draft #%d (%s)\n", ui.RenderPass("✓"), draft.ID, draft.Name)
	},
}

func newGroupDraftReorderCmd(dir types.Direction) *cobra.Command {
	return &cobra.Command{
		Use:         string(dir) + " <draft-id>",
		Short:       fmt.Sprintf("Move a group draft one position %s", dir),
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationMutates: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			id := parseID(args[0], "group draft")
			before, err := store.GetFolderDraft(rootCtx, id)
			fatalIf(err, "failed to load draft")
			fatalIf(store.ReorderFolderDraft(rootCtx, id, dir), "failed to reorder draft")

			moved, err := store.GetFolderDraft(rootCtx, id)
			fatalIf(err, "failed to reload draft")
			if jsonOutput {
				outputJSON(moved)
				return
			}
			if moved.SortOrder == before.SortOrder {
				fmt.Printf("%s %s is already at the %s\n", ui.RenderWarn("•"), moved.Name, edgeWord(dir))
				return
			}
			fmt.Printf("%s Moved %s to position %d\n", ui.RenderPass("✓"), moved.Name, moved.SortOrder)
		},
	}
}

var groupDraftMoveCmd = &cobra.Command{
	Use:         "move <draft-id> <index>",
	Short:       "Move a group draft to a 0-based position",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		id := parseID(args[0], "group draft")
		index, err := strconv.ParseInt(strings.TrimSpace(args[1]), 10, 64)
		if err != nil || index < 0 {
			FatalErrorRespectJSON("invalid position %q", args[1])
		}
		fatalIf(store.MoveFolderDraft(rootCtx, id, index), "failed to move draft")

		moved, err := store.GetFolderDraft(rootCtx, id)
		fatalIf(err, "failed to reload draft")
		if jsonOutput {
			outputJSON(moved)
			return
		}
		fmt.Printf("%s Moved %s to position %d\n", ui.RenderPass("✓"), moved.Name, moved.SortOrder)
	},
}

var groupDraftDeleteCmd = &cobra.Command{
	Use:         "delete <draft-id | group --all>",
	Short:       "Delete a group draft, or every draft of a group with --all",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		if all, _ := cmd.Flags().GetBool("all"); all {
			p := currentProject()
			g := resolveGroup(p.ID, args[0])
			if !confirm(fmt.Sprintf("Delete every draft of group %q?", g.Name), "") {
				fmt.Println("Cancelled.")
				return
			}
			fatalIf(store.DeleteAllFolderDrafts(rootCtx, g.ID), "failed to delete drafts")
			if !jsonOutput {
				fmt.Printf("%s Deleted all drafts of %s\n", ui.RenderPass("✓"), g.Name)
			}
			return
		}

		id := parseID(args[0], "group draft")
		fatalIf(store.DeleteFolderDraft(rootCtx, id), "failed to delete draft")
		if jsonOutput {
			outputJSON(map[string]interface{}{"deleted": id})
			return
		}
		fmt.Printf("%s Deleted group draft #%d\n", ui.RenderPass("✓"), id)
	},
}

// draftUpdate builds an update from --name and the content argument.
func draftUpdate(cmd *cobra.Command, args []string, current string) types.DraftUpdate {
	var update types.DraftUpdate
	if cmd.Flags().Changed("name") {
		name, _ := cmd.Flags().GetString("name")
		update.Name = &name
	}
	if content, changed := draftContent(cmd, args, 1, current); changed {
		update.Content = &content
	}
	if update.Name == nil && update.Content == nil {
		FatalErrorRespectJSON("nothing to change: give new text, --edit or --name")
	}
	return update
}

func init() {
	for _, c := range []*cobra.Command{projectDraftSaveCmd, projectDraftEditCmd, groupDraftSaveCmd, groupDraftEditCmd} {
		c.Flags().Bool("edit", false, "Write the content in $EDITOR")
	}
	projectDraftEditCmd.Flags().String("name", "", "New draft name")
	groupDraftEditCmd.Flags().String("name", "", "New draft name")
	groupDraftSaveCmd.Flags().Int64("at", 0, "0-based position to insert at")
	projectDraftDeleteCmd.Flags().Bool("all", false, "Delete every project draft")
	groupDraftDeleteCmd.Flags().Bool("all", false, "Delete every draft of the named group")

	projectDraftCmd.AddCommand(projectDraftSaveCmd, projectDraftListCmd, projectDraftShowCmd, projectDraftEditCmd, projectDraftDeleteCmd)
	groupDraftCmd.AddCommand(
		groupDraftSaveCmd,
		groupDraftListCmd,
		groupDraftShowCmd,
		groupDraftEditCmd,
		newGroupDraftReorderCmd(types.DirectionUp),
		newGroupDraftReorderCmd(types.DirectionDown),
		groupDraftMoveCmd,
		groupDraftDeleteCmd,
	)
	draftCmd.AddCommand(projectDraftCmd, groupDraftCmd)
}
