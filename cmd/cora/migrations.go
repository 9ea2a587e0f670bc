package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/storage/sqlite"
	"github.com/untoldecay/cora/internal/ui"
)

var migrationsCmd = &cobra.Command{
	Use:         "migrations",
	GroupID:     "setup",
	Short:       "List schema migrations",
	Long:        "Lists the schema migrations applied, in order, every time a database is opened.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStore: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		list := sqlite.ListMigrations()
		if jsonOutput {
			outputJSON(list)
			return
		}
		rows := make([][]string, 0, len(list))
		for i, m := range list {
			rows = append(rows, []string{fmt.Sprintf("%03d", i+1), m.Name, m.Description})
		}
		fmt.Println(ui.RenderTable([]string{"#", "Name", "Description"}, rows, "No migrations registered."))
	},
}

func init() {
	rootCmd.AddCommand(migrationsCmd)
}
