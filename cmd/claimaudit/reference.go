package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimaudit/internal/audit"
	"github.com/gyeh/claimaudit/internal/exitcode"
	"github.com/gyeh/claimaudit/internal/logging"
	"github.com/gyeh/claimaudit/internal/report"
)

var showRules bool

var referenceCmd = &cobra.Command{
	Use:   "reference [code...]",
	Short: "List procedure codes or bundling rules from the reference tables",
	RunE:  runReference,
}

func init() {
	referenceCmd.Flags().BoolVar(&showRules, "rules", false, "List bundling rules instead of procedures")
	rootCmd.AddCommand(referenceCmd)
}

func runReference(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.ValidateOutput(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	db, err := audit.LoadReference(cfg.ReferencePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load reference tables")
		os.Exit(exitcode.ReferenceError)
	}

	if showRules {
		err = report.BundlingRules(os.Stdout, db, cfg.Output)
	} else {
		codes := args
		if len(codes) == 0 {
			codes = db.Codes()
		}
		err = report.Procedures(os.Stdout, db, codes, cfg.Output)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to render reference tables")
		os.Exit(exitcode.RenderError)
	}
	return nil
}
