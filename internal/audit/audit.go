// Package audit runs the detection engines over a claim batch and assembles
// the combined result.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/ghost"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
	"github.com/gyeh/claimaudit/internal/refdb"
	"github.com/gyeh/claimaudit/internal/risk"
	"github.com/gyeh/claimaudit/internal/severity"
	"github.com/gyeh/claimaudit/internal/timeline"
)

// Phases reported by PhaseError.
const (
	PhaseLoad      = "load"
	PhaseReference = "reference"
	PhaseAnalyze   = "analyze"
	PhaseRender    = "render"
)

// ErrNoReference is returned when Analyze is called without a database.
var ErrNoReference = errors.New("reference database is nil")

// PhaseError wraps an error with the phase where it occurred.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

type options struct {
	narrator risk.Narrator
	now      func() time.Time
	log      zerolog.Logger
	timeout  time.Duration
}

// Option configures Analyze.
type Option func(*options)

// WithNarrator installs an external narrative generator.
func WithNarrator(n risk.Narrator) Option {
	return func(o *options) { o.narrator = n }
}

// WithClock replaces time.Now for the result timestamp and for claims
// without a usable service date.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger handed to every engine.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithNarrativeTimeout bounds the narrator call.
func WithNarrativeTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Analyze runs severity, timeline, ghost and risk in that order. Data
// problems never fail the batch; the only error is a missing database.
func Analyze(ctx context.Context, claims []model.ClaimLineItem, db *refdb.Database, opts ...Option) (*model.AnalysisResult, error) {
	if db == nil {
		return nil, &PhaseError{Phase: PhaseAnalyze, Err: ErrNoReference}
	}
	o := options{now: time.Now, log: zerolog.Nop(), timeout: risk.DefaultNarrativeTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	result := &model.AnalysisResult{
		ID:               uuid.NewString(),
		AnalyzedAt:       o.now().UTC(),
		InputFingerprint: normalize.BatchFingerprint(claims),
		PatientName:      patientName(claims),
		ClaimCount:       len(claims),
	}
	log := o.log.With().Str("analysis_id", result.ID).Logger()
	log.Info().Int("claims", len(claims)).Msg("starting analysis")

	for _, c := range claims {
		result.TotalBilled += c.BilledAmount
	}
	result.TotalBilled = normalize.RoundCents(result.TotalBilled)

	result.Severity = severity.New(db, log).Check(claims)
	result.Timeline = timeline.New(db, log, o.now).Detect(claims)
	result.Ghost = ghost.New(db, log).Detect(claims)

	agg := risk.New(db, log, o.narrator, o.timeout)
	result.Risk = agg.Assess(ctx, risk.Inputs{
		Claims:   claims,
		Severity: result.Severity,
		Timeline: result.Timeline,
		Ghost:    result.Ghost,
	}, result.PatientName)
	result.Financial = risk.Financial(claims, result.Ghost)
	result.Duration = time.Since(start)

	log.Info().
		Int("risk_score", result.Risk.Score).
		Str("risk_level", string(result.Risk.Level)).
		Str("recommendation", string(result.Risk.Recommendation)).
		Float64("total_billed", result.TotalBilled).
		Str("duration", result.Duration.String()).
		Msg("analysis complete")
	return result, nil
}

// patientName returns the first non-empty patient name in the batch.
func patientName(claims []model.ClaimLineItem) string {
	for _, c := range claims {
		if name := strings.TrimSpace(c.PatientName); name != "" {
			return name
		}
	}
	return ""
}
