package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/importer"
	"github.com/untoldecay/cora/internal/ui"
)

var importCmd = &cobra.Command{
	Use:     "import <folder>",
	GroupID: "transfer",
	Short:   "Import a folder as a new project",
	Long: `Import a folder as a new project.

A metadata.json written by 'cora export' rebuilds the project exactly:
groups, order, documents, notes, drafts, entities, links and timelines.
Without a usable manifest the folder layout is imported instead: each
top-level folder becomes a group holding its own .txt files as documents
(deeper folders are ignored), and loose top-level .txt files go into an
UNSORTED group.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		im := importer.NewImporter(store, logger)
		im.AppVersion = Version
		res, err := im.ImportProject(rootCtx, args[0])
		if err != nil && res != nil && res.Project != nil {
			FatalErrorRespectJSON("import stopped partway (project %q #%d kept as imported so far): %v", res.Project.Name, res.Project.ID, err)
		}
		fatalIf(err, "import failed")

		if jsonOutput {
			outputJSON(res)
			return
		}
		var warnings []string
		if res.SkippedLinks > 0 {
			warnings = append(warnings, fmt.Sprintf("%d links skipped (missing records)", res.SkippedLinks))
		}
		fmt.Println(ui.RenderReport(
			fmt.Sprintf("Imported %s (#%d) from %s", res.Project.Name, res.Project.ID, res.Strategy),
			[]ui.Stat{{Label: "groups", Value: res.Groups}, {Label: "documents", Value: res.Documents}, {Label: "drafts", Value: res.Drafts}},
			warnings,
		))
	},
}

var importFilesCmd = &cobra.Command{
	Use:     "import-files <group|-> <path>...",
	GroupID: "transfer",
	Short:   "Add .txt files and folders to the current project",
	Long: `Add dropped files to the current project.

Each .txt file becomes a document in the target group ("-" for unfiled).
Each folder becomes a new top-level group holding the folder's own .txt
files. Other files are skipped.`,
	Args:        cobra.MinimumNArgs(2),
	Annotations: map[string]string{annotationMutates: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		target := resolveGroupRef(p.ID, args[0])

		im := importer.NewImporter(store, logger)
		n, err := im.ImportPaths(rootCtx, p.ID, target, args[1:])
		fatalIf(err, "import failed")

		if jsonOutput {
			outputJSON(map[string]interface{}{"project": p.ID, "imported": n})
			return
		}
		fmt.Printf("%s Imported %d documents into %s\n", ui.RenderPass("✓"), n, groupName(target))
	},
}

func init() {
	rootCmd.AddCommand(importCmd, importFilesCmd)
}
