package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/config"
	"github.com/untoldecay/cora/internal/ui"
)

var configCmd = &cobra.Command{
	Use:         "config",
	GroupID:     "setup",
	Short:       "Show and change configuration",
	Annotations: map[string]string{annotationNoStore: "true"},
	Long: `Configuration is read from, in increasing precedence: built-in defaults,
~/.cora/config.yaml, $XDG_CONFIG_HOME/cora/config.yaml, the nearest
.cora/config.yaml, CORA_* environment variables (also loaded from .env) and
command-line flags.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings and where each comes from",
	Run: func(cmd *cobra.Command, args []string) {
		asTOML, _ := cmd.Flags().GetBool("toml")
		asYAML, _ := cmd.Flags().GetBool("yaml")
		switch {
		case asTOML:
			fatalIf(config.EncodeTOML(os.Stdout), "failed to encode config")
			return
		case asYAML:
			fatalIf(config.EncodeYAML(os.Stdout), "failed to encode config")
			return
		}

		settings := config.Settings()
		if jsonOutput {
			outputJSON(settings)
			return
		}
		rows := make([][]string, 0, len(settings))
		for _, s := range settings {
			source := string(s.Source)
			if s.Source == config.SourceEnvVar {
				source += " (" + config.EnvKey(s.Key) + ")"
			}
			rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), source})
		}
		fmt.Println(ui.RenderTable([]string{"Key", "Value", "Source"}, rows, ""))
		if used := config.ConfigFileUsed(); used != "" {
			fmt.Println(ui.RenderMuted("Config file: " + used))
		}
		fmt.Println(ui.RenderMuted("Database: " + config.DBPath()))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with every default",
	Long:  "Writes .cora/config.yaml in the current directory, or ~/.cora/config.yaml with --global.",
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		path := configFilePath(cmd)
		fatalIf(config.WriteDefaults(path, force), "failed to write config")
		if jsonOutput {
			outputJSON(map[string]string{"path": path})
			return
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), path)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a key in the config file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := strings.ToLower(args[0])
		path := configFilePath(cmd)
		fatalIf(config.SetInFile(path, key, args[1]), "failed to set "+key)
		if jsonOutput {
			outputJSON(map[string]string{"key": key, "value": args[1], "path": path})
			return
		}
		fmt.Printf("%s Set %s = %s in %s\n", ui.RenderPass("✓"), key, args[1], path)
		if config.GetValueSource(key) == config.SourceEnvVar {
			fmt.Printf("%s %s overrides this value\n", ui.RenderWarn("•"), config.EnvKey(key))
		}
	},
}

// configFilePath picks the file 'config init' and 'config set' write: the
// global file with --global, else the nearest project file, else a new
// .cora/config.yaml in the working directory.
func configFilePath(cmd *cobra.Command) string {
	if global, _ := cmd.Flags().GetBool("global"); global {
		home, err := os.UserHomeDir()
		if err != nil {
			FatalErrorRespectJSON("cannot find home directory: %v", err)
		}
		return filepath.Join(home, config.DirName, "config.yaml")
	}
	if dir := config.FindProjectDir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return filepath.Join(config.DirName, "config.yaml")
}

func init() {
	configShowCmd.Flags().Bool("toml", false, "Print settings as TOML")
	configShowCmd.Flags().Bool("yaml", false, "Print settings as YAML")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	for _, c := range []*cobra.Command{configInitCmd, configSetCmd} {
		c.Flags().Bool("global", false, "Use ~/.cora/config.yaml")
	}

	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
