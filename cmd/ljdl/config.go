package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ljdl/pkg/config"
	"ljdl/pkg/ui"
)

const defaultConfigPath = ".ljdl.yaml"

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage ljdl configuration files.

Configuration is resolved from, in order of priority:
  - Command line flags
  - Environment variables (LJDL_*, also read from .env)
  - Configuration file
  - Default values`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Long: `Write a configuration file with every option set to its default.

The file is created as '.ljdl.yaml' in the current directory unless
another path is given with --config.`,
		Args: cobra.NoArgs,
		RunE: runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigValidate,
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = defaultConfigPath
	}
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file %s already exists, use --force to overwrite it", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	ui.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet).Success("Configuration file created: %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	ui.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr(), quiet).Success("Configuration is valid")
	return nil
}
