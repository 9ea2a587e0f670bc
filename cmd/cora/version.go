package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/manifest"
	"github.com/untoldecay/cora/internal/storage/sqlite"
)

// Version is stamped into export manifests as meta.app_version and compared
// on import. Override with -ldflags "-X main.Version=...".
var (
	Version = "0.3.0"
	Build   = "dev"
	Commit  = ""
)

// versionInfo is the JSON shape of 'cora version'.
type versionInfo struct {
	Version        string `json:"version"`
	Build          string `json:"build"`
	Commit         string `json:"commit,omitempty"`
	ManifestFormat int    `json:"manifest_format"`
	Migrations     int    `json:"migrations"`
}

var versionCmd = &cobra.Command{
	Use:         "version",
	GroupID:     "setup",
	Short:       "Print version, manifest format and schema level",
	Annotations: map[string]string{annotationNoStore: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		info := versionInfo{
			Version:        Version,
			Build:          Build,
			Commit:         commitHash(),
			ManifestFormat: manifest.Version,
			Migrations:     len(sqlite.ListMigrations()),
		}
		if jsonOutput {
			outputJSON(info)
			return
		}

		build := info.Build
		if info.Commit != "" {
			build += " " + shortCommit(info.Commit)
		}
		fmt.Printf("cora %s (%s)\n", info.Version, build)
		fmt.Printf("manifest format %d, %d schema migrations\n", info.ManifestFormat, info.Migrations)
	},
}

// commitHash returns the -X main.Commit value or the vcs.revision the
// toolchain stamped into the binary.
func commitHash() string {
	if Commit != "" {
		return Commit
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

func shortCommit(hash string) string {
	const n = 12
	if len(hash) <= n {
		return hash
	}
	return hash[:n]
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
