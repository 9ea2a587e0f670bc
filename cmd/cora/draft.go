package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/ui"
)

var draftCmd = &cobra.Command{
	Use:     "draft",
	GroupID: "tree",
	Short:   "Snapshot and restore document text",
}

var draftSaveCmd = &cobra.Command{
	Use:         "save <doc> [name]",
	Short:       "Save the document's current text as a draft",
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		draft, err := store.CreateDraft(rootCtx, d.ID, name, d.Text)
		fatalIf(err, "failed to save draft")

		if jsonOutput {
			outputJSON(draft)
			return
		}
		fmt.Printf("%s Saved draft #%d of %s\n", ui.RenderPass("✓"), draft.ID, d.Name)
	},
}

var draftListCmd = &cobra.Command{
	Use:   "list <doc>",
	Short: "List a document's drafts, newest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])
		drafts, err := store.ListDrafts(rootCtx, d.ID)
		fatalIf(err, "failed to list drafts")

		if jsonOutput {
			if drafts == nil {
				drafts = []*types.Draft{}
			}
			outputJSON(drafts)
			return
		}
		rows := make([][]string, 0, len(drafts))
		for _, dr := range drafts {
			rows = append(rows, []string{
				strconv.FormatInt(dr.ID, 10),
				dr.Name,
				dr.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				strconv.Itoa(len(strings.Fields(dr.Content))),
			})
		}
		fmt.Println(ui.RenderTable([]string{"ID", "Name", "Saved", "Words"}, rows, "No drafts for "+d.Name+"."))
	},
}

var draftShowCmd = &cobra.Command{
	Use:   "show <draft-id>",
	Short: "Print a draft's content",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		draft, err := store.GetDraft(rootCtx, parseID(args[0], "draft"))
		fatalIf(err, "failed to load draft")
		if jsonOutput {
			outputJSON(draft)
			return
		}
		fmt.Print(draft.Content)
	},
}

var draftRestoreCmd = &cobra.Command{
	Use:         "restore <draft-id>",
	Short:       "Replace the document's text with a draft",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		draft, err := store.GetDraft(rootCtx, parseID(args[0], "draft"))
		fatalIf(err, "failed to load draft")
		d, err := store.GetDocument(rootCtx, draft.DocumentID)
		fatalIf(err, "failed to load document")

		if keep, _ := cmd.Flags().GetBool("snapshot"); keep && d.Text != draft.Content {
			_, err := store.CreateDraft(rootCtx, d.ID, "before restore", d.Text)
			fatalIf(err, "failed to save draft")
		}
		fatalIf(store.RestoreDraft(rootCtx, draft.ID), "failed to restore draft")

		if jsonOutput {
			outputJSON(map[string]interface{}{"restored": draft.ID, "doc_id": d.ID})
			return
		}
		fmt.Printf("%s Restored draft #%d into %s\n", ui.RenderPass("✓"), draft.ID, d.Name)
	},
}

var draftDeleteCmd = &cobra.Command{
	Use:         "delete <draft-id | doc --all>",
	Short:       "Delete a draft, or every draft of a document with --all",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		if all, _ := cmd.Flags().GetBool("all"); all {
			p := currentProject()
			d := resolveDocument(p.ID, args[0])
			if !confirm(fmt.Sprintf("Delete every draft of %q?", d.Name), "") {
				fmt.Println("Cancelled.")
				return
			}
			fatalIf(store.DeleteAllDrafts(rootCtx, d.ID), "failed to delete drafts")
			if !jsonOutput {
				fmt.Printf("%s Deleted all drafts of %s\n", ui.RenderPass("✓"), d.Name)
			}
			return
		}

		id := parseID(args[0], "draft")
		fatalIf(store.DeleteDraft(rootCtx, id), "failed to delete draft")
		if jsonOutput {
			outputJSON(map[string]interface{}{"deleted": id})
			return
		}
		fmt.Printf("%s Deleted draft #%d\n", ui.RenderPass("✓"), id)
	},
}

func init() {
	draftRestoreCmd.Flags().Bool("snapshot", false, "Save the current text as a draft before restoring")
	draftDeleteCmd.Flags().Bool("all", false, "Delete every draft of the named document")

	draftCmd.AddCommand(draftSaveCmd, draftListCmd, draftShowCmd, draftRestoreCmd, draftDeleteCmd)
	rootCmd.AddCommand(draftCmd)
}
