package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimaudit/internal/audit"
	"github.com/gyeh/claimaudit/internal/exitcode"
	"github.com/gyeh/claimaudit/internal/logging"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Audit a claims batch and print the risk report",
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&cfg.ClaimsPath, "claims", "", "Path to claims file, .json or .parquet (required)")
	f.StringVar(&cfg.OutputFile, "out", "", "Write the report to this file instead of stdout")
	f.BoolVar(&cfg.Narrative.Enabled, "narrative", false, "Ask an OpenAI-compatible model for the narrative (uses OPENAI_API_KEY; template otherwise)")
	f.StringVar(&cfg.Narrative.Model, "narrative-model", "", "Model for the external narrative")
	f.DurationVar(&cfg.Narrative.Timeout, "narrative-timeout", cfg.Narrative.Timeout, "Time limit for the external narrative")
	_ = analyzeCmd.MarkFlagRequired("claims")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	result, err := audit.Run(ctx, log, &cfg)
	if err != nil {
		var pe *audit.PhaseError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("analysis failed")
			switch pe.Phase {
			case audit.PhaseLoad:
				os.Exit(exitcode.ValidationError)
			case audit.PhaseReference:
				os.Exit(exitcode.ReferenceError)
			default:
				os.Exit(exitcode.AnalysisError)
			}
		}
		log.Error().Err(err).Msg("analysis failed")
		os.Exit(exitcode.AnalysisError)
	}

	if err := writeReport(cfg.OutputFile, result); err != nil {
		log.Error().Err(err).Str("phase", audit.PhaseRender).Msg("failed to write report")
		os.Exit(exitcode.RenderError)
	}

	log.Info().
		Str("analysis_id", result.ID).
		Int("risk_score", result.Risk.Score).
		Str("recommendation", string(result.Risk.Recommendation)).
		Msg("report written")
	return nil
}

// writeReport renders to stdout, or to path when set. The file is closed
// before returning so a failed render never leaves it open.
func writeReport(path string, result *model.AnalysisResult) error {
	if path == "" {
		return report.Render(os.Stdout, result, cfg.Output)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := report.Render(f, result, cfg.Output); err != nil {
		f.Close()
		return fmt.Errorf("render report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	return nil
}
