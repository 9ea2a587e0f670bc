package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/config"
	"github.com/untoldecay/cora/internal/export"
	"github.com/untoldecay/cora/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:     "export [project] [dest]",
	GroupID: "transfer",
	Short:   "Export a project to a numbered folder tree",
	Long: `Export a project under dest (default: the export.dir config key).

The export root is named after the project, or "<name> export N" when that
folder already exists. Each group becomes a "<i> <Group>" folder and each
document a "<i>.<j> <Doc>.txt" file, with drafts next to it as
"<i>.<j> <Doc> draft-<k>.txt". A metadata.json manifest at the root lets
'cora import' rebuild the project exactly, unfiled documents included.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		p := projectArg(args)
		dest := config.GetString("export.dir")
		if len(args) == 2 {
			dest = args[1]
		}

		cfg, err := export.LoadConfig(rootCtx, store)
		fatalIf(err, "failed to load export settings")
		if noDrafts, _ := cmd.Flags().GetBool("no-drafts"); noDrafts {
			cfg.WriteDrafts = false
		}
		if noManifest, _ := cmd.Flags().GetBool("no-manifest"); noManifest {
			cfg.WriteManifest = false
		}

		exp := export.NewExporter(store, cfg, logger)
		exp.AppVersion = Version
		root, err := exp.Export(rootCtx, p.ID, dest)
		fatalIf(err, "export failed")

		if jsonOutput {
			outputJSON(map[string]interface{}{"project": p.ID, "root": root})
			return
		}
		fmt.Printf("%s Exported %s to %s\n", ui.RenderPass("✓"), ui.RenderAccent(p.Name), root)
	},
}

func init() {
	exportCmd.Flags().Bool("no-drafts", false, "Skip draft files")
	exportCmd.Flags().Bool("no-manifest", false, "Skip metadata.json (the folder then imports with the legacy layout rules)")
	rootCmd.AddCommand(exportCmd)
}
