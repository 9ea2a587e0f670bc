package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/queries"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/ui"
)

var docCmd = &cobra.Command{
	Use:     "doc",
	Aliases: []string{"document"},
	GroupID: "tree",
	Short:   "Manage documents",
}

var docCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a document",
	Long: `Create a document in --group (unfiled by default).

The document is appended after its siblings; --after N inserts it right
after the document at position N (0-based). Initial text comes from
--text, or from --file ("-" reads stdin).`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		groupTerm, _ := cmd.Flags().GetString("group")
		groupID := resolveGroupRef(p.ID, groupTerm)
		text := docTextFlags(cmd)

		var (
			d   *types.Document
			err error
		)
		if cmd.Flags().Changed("after") {
			after, _ := cmd.Flags().GetInt64("after")
			d, err = store.CreateDocumentAfter(rootCtx, p.ID, args[0], groupID, after)
		} else {
			d, err = store.CreateDocument(rootCtx, p.ID, args[0], groupID)
		}
		fatalIf(err, "failed to create document")

		if text != "" {
			d, err = store.UpdateDocument(rootCtx, d.ID, types.DocumentUpdate{Text: &text})
			fatalIf(err, "failed to set document text")
		}

		if jsonOutput {
			outputJSON(d)
			return
		}
		fmt.Printf("%s Created document %s (#%d) in %s\n", ui.RenderPass("✓"), ui.RenderAccent(d.Name), d.ID, groupName(d.GroupID))
	},
}

// docTextFlags reads --text or --file.
func docTextFlags(cmd *cobra.Command) string {
	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		return text
	}
	if text != "" {
		FatalErrorRespectJSON("use either --text or --file, not both")
	}
	if file == "-" {
		return textArg("-")
	}
	// #nosec G304 - user-named input file
	data, err := os.ReadFile(file)
	if err != nil {
		FatalErrorRespectJSON("reading %s: %v", file, err)
	}
	return string(data)
}

// docDetail is the JSON shape of 'doc show'.
type docDetail struct {
	*types.Document
	Group      string          `json:"group"`
	Characters []string        `json:"characters"`
	Events     []string        `json:"events"`
	Places     []string        `json:"places"`
	Drafts     int             `json:"drafts"`
	Timeline   *types.Timeline `json:"timeline,omitempty"`
}

var docShowCmd = &cobra.Command{
	Use:   "show <doc>",
	Short: "Show a document's text, notes and attachments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])
		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			fmt.Print(d.Text)
			return
		}

		detail := docDetail{Document: d, Group: groupName(d.GroupID)}
		detail.Characters = attachedNames(types.LinkCharacter, p.ID, d.ID)
		detail.Events = attachedNames(types.LinkEvent, p.ID, d.ID)
		detail.Places = attachedNames(types.LinkPlace, p.ID, d.ID)
		drafts, err := store.ListDrafts(rootCtx, d.ID)
		fatalIf(err, "failed to list drafts")
		detail.Drafts = len(drafts)
		if tl, err := store.GetTimelineByEntity(rootCtx, types.TimelineDoc, d.ID); err == nil {
			detail.Timeline = tl
		}

		if jsonOutput {
			outputJSON(detail)
			return
		}
		fmt.Printf("%s %s in %s\n", ui.RenderAccent(d.Name), ui.RenderMuted(fmt.Sprintf("#%d", d.ID)), detail.Group)
		for _, line := range []struct {
			label string
			names []string
		}{{"Characters", detail.Characters}, {"Events", detail.Events}, {"Places", detail.Places}} {
			if len(line.names) > 0 {
				fmt.Printf("%s: %s\n", line.label, strings.Join(line.names, ", "))
			}
		}
		if detail.Timeline != nil {
			fmt.Printf("Timeline: %s\n", formatRange(detail.Timeline.StartDate, detail.Timeline.EndDate))
		}
		if detail.Drafts > 0 {
			fmt.Println(ui.RenderMuted(fmt.Sprintf("%d drafts", detail.Drafts)))
		}
		fmt.Println()
		fmt.Println(d.Text)
		printNotes(d.Notes)
	},
}

func attachedNames(kind types.LinkKind, projectID, docID int64) []string {
	ids, err := store.ListForDocument(rootCtx, kind, docID)
	fatalIf(err, "failed to list attachments")
	names := make(map[int64]string)
	for _, c := range entityCandidates(kind, projectID) {
		names[c.ID] = c.Name
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

var docEditCmd = &cobra.Command{
	Use:         "edit <doc>",
	Short:       "Edit a document's text in $EDITOR",
	Long:        "Opens the text in $EDITOR and saves it on exit. --snapshot saves the previous text as a draft first.",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])

		edited, err := editText("doc", d.Text)
		if err != nil {
			FatalErrorRespectJSON("%v", err)
		}
		if edited == d.Text {
			fmt.Println("No changes made")
			return
		}
		if snapshot, _ := cmd.Flags().GetBool("snapshot"); snapshot && d.Text != "" {
			_, err := store.CreateDraft(rootCtx, d.ID, "before edit", d.Text)
			fatalIf(err, "failed to save draft")
		}
		fatalIf(store.UpdateDocumentText(rootCtx, d.ID, edited), "failed to save document")

		if jsonOutput {
			outputJSON(map[string]interface{}{"id": d.ID, "length": len(edited)})
			return
		}
		fmt.Printf("%s Saved %s\n", ui.RenderPass("✓"), d.Name)
	},
}

var docWriteCmd = &cobra.Command{
	Use:         "write <doc> <text|->",
	Short:       "Replace a document's text",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])
		fatalIf(store.UpdateDocumentText(rootCtx, d.ID, textArg(args[1])), "failed to save document")
		if !jsonOutput {
			fmt.Printf("%s Saved %s\n", ui.RenderPass("✓"), d.Name)
		}
	},
}

var docRenameCmd = &cobra.Command{
	Use:         "rename <doc> <new-name>",
	Short:       "Rename a document",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])
		fatalIf(store.RenameDocument(rootCtx, d.ID, args[1]), "failed to rename document")

		if jsonOutput {
			outputJSON(map[string]interface{}{"id": d.ID, "name": args[1]})
			return
		}
		fmt.Printf("%s Renamed %s to %s\n", ui.RenderPass("✓"), d.Name, ui.RenderAccent(args[1]))
	},
}

var docNotesCmd = &cobra.Command{
	Use:         "notes <doc> [text]",
	Short:       "Show or replace document notes",
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationMutates: mutatesOnChange},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])
		notes, changed := notesInput(cmd, args, d.Notes)
		if !changed {
			if jsonOutput {
				outputJSON(map[string]string{"notes": d.Notes})
				return
			}
			printNotes(d.Notes)
			return
		}
		fatalIf(store.UpdateDocumentNotes(rootCtx, d.ID, notes), "failed to update notes")
		reportNotesSaved(d.Name, notes)
	},
}

var docDeleteCmd = &cobra.Command{
	Use:         "delete <doc>",
	Short:       "Delete a document and its drafts",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])
		if !confirm(fmt.Sprintf("Delete document %q?", d.Name), "Its drafts and timeline are deleted too.") {
			fmt.Println("Cancelled.")
			return
		}
		fatalIf(store.DeleteDocument(rootCtx, d.ID), "failed to delete document")

		if jsonOutput {
			outputJSON(map[string]interface{}{"deleted": d.ID})
			return
		}
		fmt.Printf("%s Deleted document %s\n", ui.RenderPass("✓"), d.Name)
	},
}

func newDocMoveCmd(dir types.Direction) *cobra.Command {
	return &cobra.Command{
		Use:         string(dir) + " <doc>",
		Short:       fmt.Sprintf("Move a document one position %s within its group", dir),
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationMutates: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			p := currentProject()
			d := resolveDocument(p.ID, args[0])
			fatalIf(store.ReorderDocument(rootCtx, d.ID, dir), "failed to reorder document")

			moved, err := store.GetDocument(rootCtx, d.ID)
			fatalIf(err, "failed to reload document")
			if jsonOutput {
				outputJSON(moved)
				return
			}
			if *moved.SortOrder == *d.SortOrder {
				fmt.Printf("%s %s is already at the %s\n", ui.RenderWarn("•"), d.Name, edgeWord(dir))
				return
			}
			fmt.Printf("%s Moved %s to position %d\n", ui.RenderPass("✓"), d.Name, *moved.SortOrder)
		},
	}
}

var docMoveCmd = &cobra.Command{
	Use:         "move <doc> <group|->",
	Short:       "Move a document to the end of another group (\"-\" for unfiled)",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])
		target := resolveGroupRef(p.ID, args[1])
		fatalIf(store.MoveDocumentToGroup(rootCtx, d.ID, target), "failed to move document")

		if jsonOutput {
			moved, err := store.GetDocument(rootCtx, d.ID)
			fatalIf(err, "failed to reload document")
			outputJSON(moved)
			return
		}
		fmt.Printf("%s Moved %s to %s\n", ui.RenderPass("✓"), d.Name, groupName(target))
	},
}

var docListCmd = &cobra.Command{
	Use:   "list [group|-]",
	Short: "List the documents of a group, or unfiled documents",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		var groupID *int64
		if len(args) == 1 {
			groupID = resolveGroupRef(p.ID, args[0])
		}

		groups, err := store.ListGroups(rootCtx, p.ID)
		fatalIf(err, "failed to list groups")
		all, err := store.ListDocuments(rootCtx, p.ID)
		fatalIf(err, "failed to list documents")
		f := queries.BuildForest(groups, all)

		docs := f.Unfiled
		if groupID != nil {
			docs = nil
			f.Walk(func(node *queries.GroupNode, _ int) bool {
				if node.Group.ID == *groupID {
					docs = node.Documents
					return false
				}
				return true
			})
		}

		if jsonOutput {
			if docs == nil {
				docs = []*types.Document{}
			}
			outputJSON(docs)
			return
		}
		rows := make([][]string, 0, len(docs))
		for _, d := range docs {
			pos := "-"
			if d.SortOrder != nil {
				pos = strconv.FormatInt(*d.SortOrder, 10)
			}
			rows = append(rows, []string{pos, strconv.FormatInt(d.ID, 10), d.Name, strconv.Itoa(len(strings.Fields(d.Text)))})
		}
		fmt.Println(ui.RenderTable([]string{"Pos", "ID", "Name", "Words"}, rows, "No documents here."))
	},
}

var docMentionsCmd = &cobra.Command{
	Use:   "mentions <doc>",
	Short: "Find characters, events and places named in a document's text",
	Long: `Scans the document text for the names of the project's characters,
events and places. With --attach, every mentioned entity is attached to the
document.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		d := resolveDocument(p.ID, args[0])

		var entities []queries.Entity
		for _, kind := range types.LinkKinds {
			for _, c := range entityCandidates(kind, p.ID) {
				entities = append(entities, queries.Entity{Kind: kind, ID: c.ID, Name: c.Name})
			}
		}
		idx, err := queries.NewMentionIndex(entities)
		fatalIf(err, "failed to index entity names")
		mentions := idx.Find(d.Text)

		if attach, _ := cmd.Flags().GetBool("attach"); attach {
			for _, m := range mentions {
				fatalIf(store.AttachToDocument(rootCtx, m.Kind, d.ID, m.ID), "failed to attach "+string(m.Kind))
			}
		}

		if jsonOutput {
			if mentions == nil {
				mentions = []queries.Mention{}
			}
			outputJSON(mentions)
			return
		}
		rows := make([][]string, 0, len(mentions))
		for _, m := range mentions {
			rows = append(rows, []string{string(m.Kind), m.Name, strconv.Itoa(m.Count)})
		}
		fmt.Println(ui.RenderTable([]string{"Kind", "Name", "Mentions"}, rows, "No known names appear in "+d.Name+"."))
	},
}

func init() {
	docCreateCmd.Flags().String("group", "", "Group name or id (unfiled when empty)")
	docCreateCmd.Flags().Int64("after", 0, "Insert after the document at this position (-1 for the front)")
	docCreateCmd.Flags().String("text", "", "Initial text")
	docCreateCmd.Flags().String("file", "", "Read initial text from a file (\"-\" for stdin)")
	docShowCmd.Flags().Bool("raw", false, "Print only the text")
	docEditCmd.Flags().Bool("snapshot", false, "Save the current text as a draft before editing")
	docNotesCmd.Flags().Bool("edit", false, "Edit notes in $EDITOR")
	docNotesCmd.Flags().Bool("clear", false, "Remove the notes")
	docMentionsCmd.Flags().Bool("attach", false, "Attach every mentioned entity to the document")

	docCmd.AddCommand(
		docCreateCmd,
		docShowCmd,
		docEditCmd,
		docWriteCmd,
		docRenameCmd,
		docNotesCmd,
		docDeleteCmd,
		newDocMoveCmd(types.DirectionUp),
		newDocMoveCmd(types.DirectionDown),
		docMoveCmd,
		docListCmd,
		docMentionsCmd,
	)
	rootCmd.AddCommand(docCmd)
}
