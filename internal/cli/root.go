// Package cli связывает конфигурацию и компоненты в команды techscope.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/BetterCallFirewall/techscope/internal/config"
)

const version = "0.3.0"

// Execute собирает дерево команд и запускает CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

type rootOptions struct {
	ConfigPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "techscope",
		Short:         "Detect the technologies behind web pages",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("techscope version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to a YAML config file (overrides "+config.EnvConfigPath+")")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if opts.ConfigPath != "" {
			return os.Setenv(config.EnvConfigPath, opts.ConfigPath)
		}
		return nil
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newDetectCmd(),
		newWhoisCmd(),
	)
	return rootCmd
}
