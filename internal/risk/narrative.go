package risk

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gyeh/claimaudit/internal/model"
)

// DefaultNarrativeTimeout bounds a narrator call.
const DefaultNarrativeTimeout = 10 * time.Second

// Narrative sources recorded on the assessment.
const (
	SourceTemplate = "template"
	SourceExternal = "external"
)

// Disclaimer closes every template narrative.
const Disclaimer = "This assessment is advisory only. It was produced by rule-based checks and must be reviewed by a qualified claims officer before any payment decision."

// Brief is the structured input handed to a narrator.
type Brief struct {
	PatientName      string               `json:"patient_name"`
	ClaimCount       int                  `json:"claim_count"`
	TotalBilled      float64              `json:"total_billed"`
	PotentialSavings float64              `json:"potential_savings"`
	Score            int                  `json:"risk_score"`
	Level            model.RiskLevel      `json:"risk_level"`
	Recommendation   model.Recommendation `json:"recommendation"`
	Factors          []model.RiskFactor   `json:"factors"`
}

// Narrator optionally produces a replacement narrative. Returning false
// means "no value" and the template is used.
type Narrator func(ctx context.Context, brief Brief) (string, bool)

type narration struct {
	text string
	ok   bool
}

// narrate calls the narrator under a timeout, recovering from panics.
func (a *Aggregator) narrate(ctx context.Context, brief Brief) (string, bool) {
	if a.narrator == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan narration, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.log.Warn().Interface("panic", r).Msg("narrator panicked, using template")
				done <- narration{}
			}
		}()
		text, ok := a.narrator(ctx, brief)
		done <- narration{text: text, ok: ok}
	}()

	select {
	case n := <-done:
		if !n.ok || strings.TrimSpace(n.text) == "" {
			a.log.Debug().Msg("narrator returned no value, using template")
			return "", false
		}
		return strings.TrimSpace(n.text), true
	case <-ctx.Done():
		a.log.Warn().Err(ctx.Err()).Dur("timeout", a.timeout).Msg("narrator did not answer in time, using template")
		return "", false
	}
}

// Template renders the deterministic narrative.
func Template(b Brief) string {
	var sb strings.Builder
	who := patientLabel(b.PatientName)

	switch b.Level {
	case model.RiskCritical:
		fmt.Fprintf(&sb, "The %d %s billed for %s show strong indicators of billing fraud or abuse, with a risk score of %d/100.",
			b.ClaimCount, plural(b.ClaimCount, "claim"), who, b.Score)
	case model.RiskHigh:
		fmt.Fprintf(&sb, "The %d %s billed for %s contain significant irregularities, with a risk score of %d/100.",
			b.ClaimCount, plural(b.ClaimCount, "claim"), who, b.Score)
	case model.RiskMedium:
		fmt.Fprintf(&sb, "The %d %s billed for %s contain some irregularities that merit a closer look, with a risk score of %d/100.",
			b.ClaimCount, plural(b.ClaimCount, "claim"), who, b.Score)
	default:
		fmt.Fprintf(&sb, "The %d %s billed for %s are consistent with the clinical record, with a risk score of %d/100.",
			b.ClaimCount, plural(b.ClaimCount, "claim"), who, b.Score)
	}
	fmt.Fprintf(&sb, " Total billed is $%.2f", b.TotalBilled)
	if b.PotentialSavings > 0 {
		fmt.Fprintf(&sb, ", of which $%.2f may be recoverable", b.PotentialSavings)
	}
	sb.WriteString(".")

	var risks, safe []model.RiskFactor
	for _, f := range b.Factors {
		if f.Direction == model.DirectionRisk {
			risks = append(risks, f)
		} else {
			safe = append(safe, f)
		}
	}
	sort.SliceStable(risks, func(i, j int) bool { return risks[i].Contribution > risks[j].Contribution })

	if len(risks) > 0 {
		sb.WriteString("\n\nRisk factors:")
		for _, f := range risks {
			fmt.Fprintf(&sb, "\n- %s (+%.2f): %s", f.Name, f.Contribution, f.Explanation)
		}
	}
	if len(safe) > 0 {
		sb.WriteString("\n\nMitigating factors:")
		for _, f := range safe {
			fmt.Fprintf(&sb, "\n- %s (%.2f): %s", f.Name, f.Contribution, f.Explanation)
		}
	}

	sb.WriteString("\n\n")
	switch b.Recommendation {
	case model.RecommendReject:
		sb.WriteString("Recommendation: REJECT. Hold payment and refer the batch to the special investigations unit.")
	case model.RecommendEscalate:
		sb.WriteString("Recommendation: ESCALATE. Route the batch to a senior reviewer and request the supporting medical records.")
	case model.RecommendReview:
		sb.WriteString("Recommendation: REVIEW. A claims officer should verify the flagged items against the medical record before payment.")
	default:
		sb.WriteString("Recommendation: APPROVE. No material issues were found; the batch can proceed through normal processing.")
	}
	sb.WriteString("\n\n")
	sb.WriteString(Disclaimer)
	return sb.String()
}
