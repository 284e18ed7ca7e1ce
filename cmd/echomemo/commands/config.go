package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/echomemo/pkg/cli"
	"github.com/haivivi/echomemo/pkg/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.Path())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return cli.Output(cfg.Redacted(), outputOptions(cmd))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to the config path and create the
application directories. An existing file is kept unless --force is given.

Credentials are left empty; fill them in or export GEMINI_API_KEY and
MIX_VOICE_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := appPaths()
		if err != nil {
			return err
		}
		if err := paths.EnsureDirs(); err != nil {
			return err
		}
		path := configPath
		if path == "" {
			path = paths.ConfigFile()
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := config.Default(paths.AppDir()).Save(path); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "wrote %s", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for missing or invalid settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		problems := cfg.Validate()
		if len(problems) == 0 {
			cli.PrintSuccess(cmd.OutOrStdout(), "%s is valid", cfg.Path())
			return nil
		}
		for _, p := range problems {
			cli.PrintError(cmd.OutOrStdout(), "%s", p)
		}
		return fmt.Errorf("%d problem(s) in %s", len(problems), cfg.Path())
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configPathCmd, configShowCmd, configInitCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
