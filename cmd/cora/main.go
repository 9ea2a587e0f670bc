// Command cora manages ordered manuscript projects: groups, documents,
// drafts, story entities and timelines, with folder export and import.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/untoldecay/cora/internal/config"
	"github.com/untoldecay/cora/internal/logging"
	"github.com/untoldecay/cora/internal/storage"
	"github.com/untoldecay/cora/internal/storage/sqlite"
	"github.com/untoldecay/cora/internal/ui"
)

// Command annotations read by PersistentPreRun.
const (
	annotationNoStore = "cora/no-store"
	annotationMutates = "cora/mutates"

	// mutatesOnChange marks show-or-replace commands: they only write when a
	// replacement argument, --edit or --clear is given.
	mutatesOnChange = "on-change"
)

var (
	dbPath     string
	jsonOutput bool
	noColor    bool
	logLevel   string
	assumeYes  bool

	store      storage.Storage
	logger     = logging.Discard()
	logCloser  io.Closer
	rootCtx    context.Context
	rootCancel context.CancelFunc
	lock       *processLock
)

var rootCmd = &cobra.Command{
	Use:   "cora",
	Short: "Organize manuscripts into ordered groups and documents",
	Long: `cora keeps a writing project as an ordered tree of groups and documents,
with drafts, characters, events, places and timelines attached.

Projects can be exported to a numbered folder tree with a metadata.json
manifest and imported back without loss.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

		if err := config.Initialize(); err != nil {
			FatalError("failed to load config: %v", err)
		}
		applyFlagOverrides(cmd)

		jsonOutput = config.GetBool("json")
		ui.InitColor(config.GetBool("no-color") || jsonOutput)

		var err error
		logger, logCloser, err = logging.New(logging.Options{
			Level:      config.GetString("log.level"),
			File:       config.GetString("log.file"),
			MaxSizeMB:  config.GetInt("log.max-size-mb"),
			MaxBackups: config.GetInt("log.max-backups"),
			MaxAgeDays: config.GetInt("log.max-age-days"),
		})
		if err != nil {
			FatalError("%v", err)
		}
		slog.SetDefault(logger)

		if needsStore(cmd) {
			openStore(cmd, args)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeAll()
	},
}

// applyFlagOverrides copies explicitly set persistent flags into config so
// flags beat env vars and config files.
func applyFlagOverrides(cmd *cobra.Command) {
	overrides := map[string]string{
		"db":        "db",
		"json":      "json",
		"no-color":  "no-color",
		"log-level": "log.level",
	}
	for flag, key := range overrides {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		switch key {
		case "json", "no-color":
			v, _ := cmd.Flags().GetBool(flag)
			config.Set(key, v)
		default:
			config.Set(key, f.Value.String())
		}
	}
}

func needsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoStore] == "true" {
			return false
		}
	}
	switch cmd.Name() {
	case "help", "completion", "__complete":
		return false
	}
	return true
}

func mutates(cmd *cobra.Command, args []string) bool {
	switch cmd.Annotations[annotationMutates] {
	case "true":
		return true
	case mutatesOnChange:
		if len(args) > 1 {
			return true
		}
		for _, name := range []string{"edit", "clear"} {
			if set, _ := cmd.Flags().GetBool(name); set {
				return true
			}
		}
	}
	return false
}

func openStore(cmd *cobra.Command, args []string) {
	path := config.DBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		FatalError("failed to create database directory: %v", err)
	}

	if mutates(cmd, args) {
		var err error
		lock, err = acquireLock(rootCtx, path+".lock", config.GetDuration("lock-timeout"))
		if err != nil {
			FatalError("%v", err)
		}
	}

	s, err := sqlite.New(rootCtx, path, sqlite.WithLogger(logger))
	if err != nil {
		FatalError("failed to open database %s: %v", path, err)
	}
	store = s
	logger.Debug("opened database", "path", path, "command", cmd.CommandPath())
}

// closeAll releases the store, the process lock and the log file. It is
// safe to call more than once.
func closeAll() {
	if store != nil {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
		store = nil
	}
	if lock != nil {
		lock.Release()
		lock = nil
	}
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	if rootCancel != nil {
		rootCancel()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: .cora/cora.db in the nearest project, else ~/.cora/cora.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Skip confirmation prompts")

	rootCmd.AddGroup(
		&cobra.Group{ID: "tree", Title: "Project Tree:"},
		&cobra.Group{ID: "story", Title: "Story Entities:"},
		&cobra.Group{ID: "transfer", Title: "Export & Import:"},
		&cobra.Group{ID: "setup", Title: "Setup & Maintenance:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		closeAll()
		os.Exit(1)
	}
}
