package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/claimsio"
	"github.com/gyeh/claimaudit/internal/config"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/narrative"
	"github.com/gyeh/claimaudit/internal/refdb"
)

// Run executes a file-backed audit: load claims → load reference → analyze.
func Run(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*model.AnalysisResult, error) {
	start := time.Now()

	log.Info().Str("file", cfg.ClaimsPath).Msg("loading claims")
	claims, err := claimsio.Load(cfg.ClaimsPath)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseLoad, Err: err}
	}
	log.Info().Int("claims", len(claims)).Str("duration", time.Since(start).String()).Msg("claims loaded")

	db, err := LoadReference(cfg.ReferencePath)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseReference, Err: err}
	}

	opts := []Option{WithLogger(log), WithNarrativeTimeout(cfg.Narrative.Timeout)}
	if cfg.Narrative.Enabled {
		client, err := narrative.New(narrative.Options{
			APIKey:            cfg.Narrative.APIKey,
			Model:             cfg.Narrative.Model,
			BaseURL:           cfg.Narrative.BaseURL,
			RequestsPerMinute: cfg.Narrative.RequestsPerMinute,
			MaxRetries:        cfg.Narrative.MaxRetries,
		}, log)
		if err != nil {
			log.Warn().Err(err).Msg("narrative client unavailable, using template narrative")
		} else {
			opts = append(opts, WithNarrator(client.Narrator()))
		}
	}

	return Analyze(ctx, claims, db, opts...)
}

// LoadReference returns the embedded tables, or the file at path when set.
func LoadReference(path string) (*refdb.Database, error) {
	if path == "" {
		return refdb.Default(), nil
	}
	return refdb.LoadFile(path)
}
