// Package cli is the assurancectl command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/config"
	"github.com/bryanwahyu/automaton-assurance/internal/logging"
)

var (
	Version = "dev"

	configPath string
	logLevel   string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:           "assurancectl",
	Version:       Version,
	Short:         "Project assurance audits from the command line",
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `assurancectl runs the assurance pipeline without the HTTP server.

  assurancectl migrate                    apply the Postgres schema
  assurancectl analyze -n NAME -N NUM ... read artifacts, print the report JSON
  assurancectl export -i result.json ...  write xlsx, pdf or html from a result`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	defaultConfig := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	RootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "path to config.yaml")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for diagnostics on stderr")

	RootCmd.AddCommand(migrateCmd, analyzeCmd, exportCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// zap's production config already writes to stderr, stdout stays for output.
func newLogger() (*zap.Logger, error) {
	return logging.New(logLevel, "console")
}
