package main

import (
	"errors"
	"fmt"
	"os"

	"datedreader/pkg/config"
	"datedreader/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage datedreader configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (DATEDREADER_*), including a .env file
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.datedreader.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

The MinIO secret key is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# datedreader configuration file
#
# Environment variables prefixed with DATEDREADER_ override these values,
# for example DATEDREADER_STORE_DRIVER or DATEDREADER_LOG_LEVEL.

# Where checkpoints are kept
store:
  # json | sqlite | minio
  driver: json

  # json: checkpoint file, sqlite: database file, minio: object name.
  # Empty means the platform data directory (json, sqlite) or
  # "default.checkpoint.json" (minio).
  path: ""

  # Attempts per remote round trip and the first backoff delay
  retry_attempts: 3
  retry_delay: 1s

  minio:
    endpoint: ""
    access_key: ""
    secret_key: ""
    bucket: ""
    prefix: checkpoints
    use_ssl: true

# Defaults for every read
reader:
  # strftime pattern substituted for {date} in templates
  date_format: "%Y/%m/%d"

  # IANA time zone that decides what "today" is
  location: Local

  # Fail on templates without a {date} placeholder instead of skipping them
  strict_templates: false

# Logging configuration (always stderr, optionally also a JSON file)
logging:
  # debug, info, warn, error, disabled
  level: info
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".datedreader.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	ui.PrintList([]string{
		"Edit the file to choose a checkpoint store",
		"Run 'datedreader config validate' to check it",
		"Run 'datedreader read <template>' to start reading",
	})
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	display := *cfg
	display.Store.Minio.SecretKey = mask(display.Store.Minio.SecretKey)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration has errors")
		ui.PrintList(splitJoined(err))
		return errors.New("configuration is invalid")
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Store", cfg.Store.Driver)
	ui.PrintInfo("Date format", cfg.Reader.DateFormat)
	ui.PrintInfo("Location", cfg.Reader.Location)
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}

func mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) > 8:
		return secret[:4] + "..." + secret[len(secret)-4:]
	default:
		return "***"
	}
}

// splitJoined unpacks an errors.Join result into one message per error
func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
