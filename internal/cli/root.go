// Package cli wires the template engine into the wordtpl command line tool.
package cli

import (
	"fmt"

	"github.com/philip-sorokin/word-template-engine/internal/config"
	"github.com/philip-sorokin/word-template-engine/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	debugMode bool
)

// NewRootCommand creates the wordtpl root command.
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wordtpl",
		Short: "wordtpl populates word-processing templates with runtime data",
		Long: `wordtpl is a template engine for word-processing document packages.
It substitutes named placeholders (${name} or ~(name)), replicates table
rows, truncates or duplicates sections, swaps embedded images, and prepares
email-safe HTML by inlining stylesheet rules.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "configuration file (default: .wordtpl.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newInlineCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

// setup loads configuration and builds the logger shared by all subcommands.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	var log *zap.Logger
	if debugMode || cfg.Debug {
		log = logger.NewLogger(true)
	} else {
		log = logger.NewLoggerWithLevel(cfg.LogLevel)
	}
	return cfg, log, nil
}
