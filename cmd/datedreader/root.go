package main

import (
	"fmt"
	"os"
	"runtime"

	"datedreader/pkg/config"
	"datedreader/pkg/logger"
	"datedreader/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	storeType  string
	storePath  string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "datedreader",
	Short: "Read date-named log files and resume where the last run stopped",
	Long: `datedreader reads a stream of lines spread across one file per day and
remembers the exact byte it reached, so the next run continues from there.

Files are named by a template with a {date} placeholder, for example
/var/log/app/{date}.log, rendered with a strftime pattern (default %Y/%m/%d).

Checkpoints can be kept in:
  - a JSON file (default, in the platform data directory)
  - a SQLite database
  - an object in an S3-compatible bucket (MinIO)`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetNoColor(noColor)
		ui.SetQuietMode(quiet)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.datedreader.yaml or ~/.config/datedreader/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVar(&storeType, "store", "", "checkpoint store driver (json, sqlite, minio)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "checkpoint file, database or object name")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all status output except errors")

	rootCmd.SetVersionTemplate(`datedreader {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig merges the global flags and extra command flags into the
// configuration and initializes the global logger from it.
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := map[string]interface{}{
		"log-level":  logLevel,
		"store":      storeType,
		"store-path": storePath,
	}
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
