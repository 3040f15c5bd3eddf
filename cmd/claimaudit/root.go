package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimaudit/internal/config"
)

var (
	cfg        = config.Default()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:               "claimaudit",
	Short:             "Explainable fraud and abuse audit for medical billing claims",
	Long:              "Cross-checks billed severity against clinical notes, detects impossible timelines, ghost services and unbundling, and scores each claim batch with a reviewer-ready narrative. Results are advisory.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Optional YAML config file")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&cfg.ReferencePath, "reference", "", "Reference tables YAML (defaults to the built-in tables)")
	pf.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: table, markdown or json")
}

// loadConfig merges the config file and environment. Flags set explicitly
// on the command line win over the file.
func loadConfig(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		flagged := cfg
		if err := cfg.LoadFromFile(configFile); err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("reference") {
			cfg.ReferencePath = flagged.ReferencePath
		}
		if flags.Changed("output") {
			cfg.Output = flagged.Output
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = flagged.LogLevel
		}
		if flags.Changed("narrative") {
			cfg.Narrative.Enabled = flagged.Narrative.Enabled
		}
		if flags.Changed("narrative-model") {
			cfg.Narrative.Model = flagged.Narrative.Model
		}
		if flags.Changed("narrative-timeout") {
			cfg.Narrative.Timeout = flagged.Narrative.Timeout
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	return nil
}
