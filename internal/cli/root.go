// Package cli wires the focusgroup commands together: running
// sessions, ad-hoc questions, and browsing stored session logs.
package cli

import (
	"github.com/spf13/cobra"

	"focusgroup/internal/config"
	"focusgroup/internal/logger"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "focusgroup",
	Short: "Gather feedback from multiple LLM agents on tools designed for agent use",
	Long: `Focusgroup runs feedback sessions where a panel of LLM agents evaluates
a CLI tool. Agents answer question rounds in single, discussion, or
structured mode, an optional moderator synthesizes the results, and
every session is stored for later review and export.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (TOML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config file")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// newLogger builds the session logger from config; --log-level, when
// given, wins over the config file's level.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	logCfg := logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	}
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	return logger.New(logCfg)
}
