// Package risk turns engine findings into signed risk factors, a 0-100 score,
// a risk level with its recommendation, and an explanatory narrative.
package risk

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
	"github.com/gyeh/claimaudit/internal/refdb"
)

// Factor names.
const (
	FactorSeverity      = "Severity Mismatch"
	FactorTimeline      = "Timeline Conflict"
	FactorPhantom       = "Phantom Charges"
	FactorUnbundling    = "Unbundling"
	FactorCostAnomaly   = "Cost Anomaly"
	FactorDocumentation = "Documentation Quality"
)

// Score and band constants.
const (
	BaseScore      = 10
	safeMultiplier = 15

	CriticalScore = 75
	HighScore     = 50
	MediumScore   = 25

	costAnomalyRatio = 1.5
	nearEmptyWords   = 3
)

// Inputs are the engine outputs and the batch they were computed from.
type Inputs struct {
	Claims   []model.ClaimLineItem
	Severity model.SeverityReport
	Timeline model.TimelineReport
	Ghost    model.GhostReport
}

// Aggregator computes the final assessment.
type Aggregator struct {
	db       *refdb.Database
	log      zerolog.Logger
	narrator Narrator
	timeout  time.Duration
}

// New returns an Aggregator. narrator may be nil, in which case the
// deterministic template is always used.
func New(db *refdb.Database, log zerolog.Logger, narrator Narrator, timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultNarrativeTimeout
	}
	return &Aggregator{
		db:       db,
		log:      log.With().Str("engine", "risk").Logger(),
		narrator: narrator,
		timeout:  timeout,
	}
}

// Assess scores the batch and produces its narrative. It never fails: a
// narrator error or timeout falls back to the template.
func (a *Aggregator) Assess(ctx context.Context, in Inputs, patient string) model.RiskAssessment {
	factors := a.Factors(in)
	score := Score(factors)
	level, rec := Classify(score)

	brief := Brief{
		PatientName:      patient,
		ClaimCount:       len(in.Claims),
		TotalBilled:      totalBilled(in.Claims),
		PotentialSavings: in.Ghost.TotalPotentialSavings,
		Score:            score,
		Level:            level,
		Recommendation:   rec,
		Factors:          factors,
	}

	assessment := model.RiskAssessment{
		Score:           score,
		Level:           level,
		Recommendation:  rec,
		Factors:         factors,
		Narrative:       Template(brief),
		NarrativeSource: SourceTemplate,
	}
	if text, ok := a.narrate(ctx, brief); ok {
		assessment.Narrative = text
		assessment.NarrativeSource = SourceExternal
	}

	a.log.Info().
		Int("score", score).
		Str("risk_level", string(level)).
		Str("recommendation", string(rec)).
		Int("factors", len(factors)).
		Str("narrative_source", assessment.NarrativeSource).
		Msg("risk assessment complete")
	return assessment
}

// Factors derives the signed risk factors in a fixed order.
func (a *Aggregator) Factors(in Inputs) []model.RiskFactor {
	billed := totalBilled(in.Claims)
	var factors []model.RiskFactor

	if n := len(in.Severity.Mismatches); n > 0 {
		gap := in.Severity.MaxGap()
		factors = append(factors, riskFactor(FactorSeverity, math.Min(0.35, float64(gap)*0.12),
			fmt.Sprintf("%d severity mismatch(es) between billed codes and clinical documentation; largest gap is %d level(s).", n, gap)))
	} else {
		factors = append(factors, safeFactor(FactorSeverity, 0.08,
			"Billed severity levels are consistent with the clinical documentation."))
	}

	switch n := len(in.Timeline.Overlaps); {
	case in.Timeline.TeleportationCount > 0:
		factors = append(factors, riskFactor(FactorTimeline, 0.30,
			fmt.Sprintf("%d physically impossible timeline conflict(s): services billed at distant locations at the same time.", in.Timeline.TeleportationCount)))
	case n > 0:
		factors = append(factors, riskFactor(FactorTimeline, math.Min(0.35, 0.10*float64(n)),
			fmt.Sprintf("%d pair(s) of services overlap in time.", n)))
	default:
		factors = append(factors, safeFactor(FactorTimeline, 0.05,
			"No overlapping services were found in the timeline."))
	}

	if n := len(in.Ghost.Ghosts); n > 0 {
		share := ratio(in.Ghost.GhostBilled, billed)
		factors = append(factors, riskFactor(FactorPhantom, math.Min(0.30, 0.10+share*0.3),
			fmt.Sprintf("%d service(s) without clinical support totalling $%.2f (%.0f%% of billed).", n, in.Ghost.GhostBilled, share*100)))
	}

	if n := len(in.Ghost.Unbundling); n > 0 {
		share := ratio(in.Ghost.UnbundlingSavings, billed)
		factors = append(factors, riskFactor(FactorUnbundling, math.Min(0.25, 0.08+share*0.2),
			fmt.Sprintf("%d bundled procedure(s) billed as separate items; $%.2f could be recovered.", n, in.Ghost.UnbundlingSavings)))
	}

	if f, ok := a.costFactor(in.Claims); ok {
		factors = append(factors, f)
	}

	if n := a.poorlyDocumented(in.Claims); n > 0 {
		factors = append(factors, riskFactor(FactorDocumentation, float64(n)*0.08,
			fmt.Sprintf("%d claim(s) have denial language or near-empty clinical notes.", n)))
	} else {
		factors = append(factors, safeFactor(FactorDocumentation, 0.05,
			"Clinical notes are free of denial language and not near-empty."))
	}
	return factors
}

// costFactor compares billed against reference averages for known codes.
// It is omitted when the expected total is zero.
func (a *Aggregator) costFactor(claims []model.ClaimLineItem) (model.RiskFactor, bool) {
	var billed, expected float64
	for _, c := range claims {
		if p, ok := a.db.Procedure(c.ProcedureCode); ok {
			billed += c.BilledAmount
			expected += p.AverageCost
		}
	}
	if expected == 0 {
		return model.RiskFactor{}, false
	}
	r := billed / expected
	if r > costAnomalyRatio {
		return riskFactor(FactorCostAnomaly, math.Min(0.20, (r-1)*0.1),
			fmt.Sprintf("Billed $%.2f is %.2fx the reference average of $%.2f.", billed, r, expected)), true
	}
	return safeFactor(FactorCostAnomaly, 0.05,
		fmt.Sprintf("Billed amounts are in line with reference averages (%.2fx).", r)), true
}

// poorlyDocumented counts claims whose notes contain a denial phrase or
// are non-empty but shorter than three words. Empty notes are handled by
// the engines' inference paths and do not count here.
func (a *Aggregator) poorlyDocumented(claims []model.ClaimLineItem) int {
	n := 0
	for _, c := range claims {
		text := normalize.Text(c.ClinicalNotes)
		if text == "" {
			continue
		}
		if a.db.HasDenial(text) || len(normalize.Words(text)) < nearEmptyWords {
			n++
		}
	}
	return n
}

// Score applies 10 + 100*sum(risk) - 15*sum(|safe|), rounded and clamped to [0,100].
func Score(factors []model.RiskFactor) int {
	var riskSum, safeSum float64
	for _, f := range factors {
		if f.Direction == model.DirectionRisk {
			riskSum += f.Contribution
		} else {
			safeSum += math.Abs(f.Contribution)
		}
	}
	s := math.Round(BaseScore + 100*riskSum - safeMultiplier*safeSum)
	return int(math.Max(0, math.Min(100, s)))
}

// Classify maps a score onto its level and recommendation.
func Classify(score int) (model.RiskLevel, model.Recommendation) {
	switch {
	case score >= CriticalScore:
		return model.RiskCritical, model.RecommendReject
	case score >= HighScore:
		return model.RiskHigh, model.RecommendEscalate
	case score >= MediumScore:
		return model.RiskMedium, model.RecommendReview
	default:
		return model.RiskLow, model.RecommendApprove
	}
}

// Financial summarizes billed against the audited expectation.
func Financial(claims []model.ClaimLineItem, ghost model.GhostReport) model.FinancialSummary {
	billed := totalBilled(claims)
	return model.FinancialSummary{
		Billed:           billed,
		Expected:         normalize.RoundCents(billed - ghost.TotalPotentialSavings),
		PotentialSavings: ghost.TotalPotentialSavings,
	}
}

func totalBilled(claims []model.ClaimLineItem) float64 {
	var sum float64
	for _, c := range claims {
		sum += c.BilledAmount
	}
	return normalize.RoundCents(sum)
}

func ratio(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole
}

func riskFactor(name string, contribution float64, explanation string) model.RiskFactor {
	return model.RiskFactor{Name: name, Contribution: contribution, Direction: model.DirectionRisk, Explanation: explanation}
}

func safeFactor(name string, credit float64, explanation string) model.RiskFactor {
	return model.RiskFactor{Name: name, Contribution: -credit, Direction: model.DirectionSafe, Explanation: explanation}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func patientLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return "this patient"
	}
	return name
}
