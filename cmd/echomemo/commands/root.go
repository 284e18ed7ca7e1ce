package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/echomemo/pkg/cli"
	"github.com/haivivi/echomemo/pkg/config"
)

const appName = "echomemo"

var (
	// Global flags
	configPath   string
	verbose      bool
	formatOutput string
)

var rootCmd = &cobra.Command{
	Use:   "echomemo",
	Short: "Voice memory appliance",
	Long: `echomemo - a knob, two buttons, a small screen and a microphone that
interview you, chat with you in your own voice and keep a spoken diary.

Configuration lives in ~/.giztoy/echomemo/config.yaml. Credentials can also
come from the environment: GEMINI_API_KEY (or OPENAI_API_KEY),
MIX_VOICE_API_KEY, SYSTEM_VOICE_ID and PERSONA_VOICE_ID.

Examples:
  # Write a default configuration and check it
  echomemo config init
  echomemo config validate

  # Check the wiring of the knob and buttons
  echomemo check --duration 30s

  # Run the appliance
  echomemo run

  # Look at what was recorded
  echomemo memory list --limit 10
  echomemo memory search dog`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.giztoy/echomemo/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&formatOutput, "format", "o", "table", "output format (table, yaml, json)")
}

// appPaths returns the echomemo directory layout.
func appPaths() (*cli.Paths, error) {
	return cli.NewPaths(appName)
}

// loadConfig loads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	paths, err := appPaths()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	path := configPath
	if path == "" {
		path = paths.ConfigFile()
	}
	return config.Load(path, paths.AppDir())
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer, error) {
	opts := cli.LogOptions{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
	if verbose {
		opts.Level = "debug"
	}
	if cfg.Log.File != "" {
		paths, err := appPaths()
		if err != nil {
			return nil, nil, err
		}
		opts.File = paths.LogPath(cfg.Log.File)
	}
	return cli.NewLogger(opts, w)
}

func outputOptions(cmd *cobra.Command) cli.OutputOptions {
	return cli.OutputOptions{Format: cli.OutputFormat(formatOutput), Writer: cmd.OutOrStdout()}
}
