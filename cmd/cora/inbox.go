package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/config"
	"github.com/untoldecay/cora/internal/importer"
	"github.com/untoldecay/cora/internal/inbox"
	"github.com/untoldecay/cora/internal/ui"
)

var inboxCmd = &cobra.Command{
	Use:     "inbox <group|-> <dir>",
	GroupID: "transfer",
	Short:   "Watch a folder and import files dropped into it",
	Long: `Watch dir and import whatever is dropped into it, as 'cora import-files'
would: .txt files become documents in the target group ("-" for unfiled) and
folders become new top-level groups.

Drops are batched until nothing new arrived for inbox.debounce. With
--remove (or inbox.remove-after) imported entries are deleted from dir.
Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		p := currentProject()
		target := resolveGroupRef(p.ID, args[0])
		dir := args[1]

		remove := config.GetBool("inbox.remove-after")
		if cmd.Flags().Changed("remove") {
			remove, _ = cmd.Flags().GetBool("remove")
		}
		lockPath := config.DBPath() + ".lock"
		im := importer.NewImporter(store, logger)

		onBatch := func(ctx context.Context, paths []string) error {
			l, err := acquireLock(ctx, lockPath, config.GetDuration("lock-timeout"))
			if err != nil {
				return err
			}
			defer l.Release()

			n, err := im.ImportPaths(ctx, p.ID, target, paths)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s import failed after %d documents: %v\n", ui.RenderFail("✗"), n, err)
				return err
			}
			fmt.Printf("%s Imported %d documents into %s\n", ui.RenderPass("✓"), n, groupName(target))
			if remove {
				for _, path := range paths {
					if err := os.RemoveAll(path); err != nil {
						logger.Warn("failed to remove imported entry", "path", path, "error", err)
					}
				}
			}
			return nil
		}

		w, err := inbox.New(dir, config.GetDuration("inbox.debounce"), onBatch, logger)
		fatalIf(err, "failed to start inbox")

		fmt.Printf("Watching %s for %s (Ctrl-C to stop)\n", ui.RenderAccent(dir), p.Name)
		fatalIf(w.Run(rootCtx), "inbox stopped")
	},
}

func init() {
	inboxCmd.Flags().Bool("remove", false, "Delete entries from the folder once imported")
	rootCmd.AddCommand(inboxCmd)
}
