package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/config"
	"github.com/untoldecay/cora/internal/queries"
	"github.com/untoldecay/cora/internal/types"
	"github.com/untoldecay/cora/internal/ui"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	GroupID: "tree",
	Short:   "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:         "create <name>",
	Short:       "Create a project",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		desc, _ := cmd.Flags().GetString("desc")
		path, _ := cmd.Flags().GetString("path")

		p, err := store.CreateProject(rootCtx, &types.Project{Name: args[0], Desc: desc, Path: path})
		fatalIf(err, "failed to create project")

		if jsonOutput {
			outputJSON(p)
			return
		}
		fmt.Printf("%s Created project %s (#%d)\n", ui.RenderPass("✓"), ui.RenderAccent(p.Name), p.ID)
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Run: func(cmd *cobra.Command, args []string) {
		projects, err := store.ListProjects(rootCtx)
		fatalIf(err, "failed to list projects")

		if jsonOutput {
			if projects == nil {
				projects = []*types.Project{}
			}
			outputJSON(projects)
			return
		}
		rows := make([][]string, 0, len(projects))
		for _, p := range projects {
			rows = append(rows, []string{strconv.FormatInt(p.ID, 10), p.Name, p.Desc, p.UpdatedAt.Local().Format("2006-01-02 15:04")})
		}
		fmt.Println(ui.RenderTable([]string{"ID", "Name", "Description", "Updated"}, rows, "No projects yet. Create one with 'cora project create <name>'."))
	},
}

// projectSummary is the JSON shape of 'project show'.
type projectSummary struct {
	*types.Project
	Groups    int             `json:"groups"`
	Documents int             `json:"documents"`
	Timeline  *types.Timeline `json:"timeline,omitempty"`
}

var projectShowCmd = &cobra.Command{
	Use:   "show [project]",
	Short: "Show a project with counts and notes",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p := projectArg(args)

		groups, err := store.ListGroups(rootCtx, p.ID)
		fatalIf(err, "failed to list groups")
		docs, err := store.ListDocuments(rootCtx, p.ID)
		fatalIf(err, "failed to list documents")
		f := queries.BuildForest(groups, docs)
		nGroups, nDocs := f.Counts()

		tl, err := store.GetTimelineByEntity(rootCtx, types.TimelineProject, p.ID)
		if err != nil {
			tl = nil
		}

		if jsonOutput {
			outputJSON(projectSummary{Project: p, Groups: nGroups, Documents: nDocs, Timeline: tl})
			return
		}
		fmt.Printf("%s %s\n", ui.RenderAccent(p.Name), ui.RenderMuted(fmt.Sprintf("#%d", p.ID)))
		if p.Desc != "" {
			fmt.Println(p.Desc)
		}
		fmt.Printf("%d groups, %d documents\n", nGroups, nDocs)
		if tl != nil {
			fmt.Printf("Timeline: %s\n", formatRange(tl.StartDate, tl.EndDate))
		}
		printNotes(p.Notes)
	},
}

var projectRenameCmd = &cobra.Command{
	Use:         "rename <project> <new-name>",
	Short:       "Rename a project",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := resolveProject(args[0])
		updated, err := store.UpdateProject(rootCtx, p.ID, types.ProjectUpdate{Name: &args[1]})
		fatalIf(err, "failed to rename project")

		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Renamed %s to %s\n", ui.RenderPass("✓"), p.Name, ui.RenderAccent(updated.Name))
	},
}

var projectNotesCmd = &cobra.Command{
	Use:         "notes <project> [text]",
	Short:       "Show or replace project notes",
	Long:        "With only a project, prints its notes. With text (or --edit), replaces them.",
	Args:        cobra.RangeArgs(1, 2),
	Annotations: map[string]string{annotationMutates: mutatesOnChange},
	Run: func(cmd *cobra.Command, args []string) {
		p := resolveProject(args[0])
		notes, changed := notesInput(cmd, args, p.Notes)
		if !changed {
			if jsonOutput {
				outputJSON(map[string]string{"notes": p.Notes})
				return
			}
			printNotes(p.Notes)
			return
		}
		_, err := store.UpdateProject(rootCtx, p.ID, types.ProjectUpdate{Notes: &notes})
		fatalIf(err, "failed to update notes")
		reportNotesSaved(p.Name, notes)
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:         "delete <project>",
	Short:       "Delete a project and everything in it",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := resolveProject(args[0])
		if !confirm(fmt.Sprintf("Delete project %q?", p.Name), "All groups, documents, drafts and entities are removed.") {
			fmt.Println("Cancelled.")
			return
		}
		fatalIf(store.DeleteProject(rootCtx, p.ID), "failed to delete project")

		if jsonOutput {
			outputJSON(map[string]interface{}{"deleted": p.ID})
			return
		}
		fmt.Printf("%s Deleted project %s\n", ui.RenderPass("✓"), p.Name)
	},
}

// projectArg resolves an optional positional project, falling back to
// currentProject.
func projectArg(args []string) *types.Project {
	if len(args) > 0 && args[0] != "" {
		return resolveProject(args[0])
	}
	return currentProject()
}

// printNotes prints notes, rendered as markdown when ui.render-notes is on.
func printNotes(notes string) {
	if notes == "" {
		return
	}
	fmt.Println()
	if config.GetBool("ui.render-notes") {
		fmt.Println(ui.RenderMarkdown(notes, ui.GetWidth()))
		return
	}
	fmt.Println(notes)
}

func reportNotesSaved(owner, notes string) {
	if jsonOutput {
		outputJSON(map[string]string{"notes": notes})
		return
	}
	fmt.Printf("%s Saved notes for %s\n", ui.RenderPass("✓"), owner)
}

func init() {
	projectCreateCmd.Flags().String("desc", "", "Project description")
	projectCreateCmd.Flags().String("path", "", "Folder the project's files live in")
	projectNotesCmd.Flags().Bool("edit", false, "Edit notes in $EDITOR")
	projectNotesCmd.Flags().Bool("clear", false, "Remove the notes")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectShowCmd, projectRenameCmd, projectNotesCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
