// Package ghost flags billed procedures that lack clinical support and
// bundled procedures billed as separate line items.
package ghost

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
	"github.com/gyeh/claimaudit/internal/refdb"
)

const (
	// FlagRatio is the similarity below which a documented claim is a ghost.
	FlagRatio = 0.15
	// UnscoreableRatio is assigned when no semantic group applies.
	UnscoreableRatio = 0.5
	// FallbackCostShare prices an unknown replacement code as a share of the billed total.
	FallbackCostShare = 0.6
)

// Detector runs ghost and unbundling detection.
type Detector struct {
	db  *refdb.Database
	log zerolog.Logger
}

// New returns a Detector backed by db.
func New(db *refdb.Database, log zerolog.Logger) *Detector {
	return &Detector{db: db, log: log.With().Str("engine", "ghost").Logger()}
}

// Similarity is the overlap between a procedure's semantic keywords and a note.
type Similarity struct {
	Ratio      float64
	Matched    []string
	Candidates int
	Denial     bool
	Scoreable  bool
}

// Score computes the similarity between notes and the semantic groups relevant
// to description. A denial phrase forces the ratio to 0.
func (d *Detector) Score(notes, description string) Similarity {
	text := normalize.Text(notes)
	groups := d.db.GroupsFor(description)

	seen := make(map[string]bool)
	var candidates []string
	for _, g := range groups {
		for _, kw := range g.Keywords {
			if !seen[kw] {
				seen[kw] = true
				candidates = append(candidates, kw)
			}
		}
	}

	s := Similarity{Candidates: len(candidates), Matched: []string{}}
	if d.db.HasDenial(text) {
		s.Denial = true
		s.Scoreable = true
		return s
	}
	if len(candidates) == 0 {
		s.Ratio = UnscoreableRatio
		return s
	}
	s.Scoreable = true
	s.Matched = normalize.MatchPhrases(text, candidates)
	s.Ratio = float64(len(s.Matched)) / float64(len(candidates))
	return s
}

// Detect runs both detectors over the batch.
func (d *Detector) Detect(claims []model.ClaimLineItem) model.GhostReport {
	report := model.GhostReport{
		Ghosts:     []model.GhostService{},
		Unbundling: []model.UnbundlingAlert{},
	}

	areas := d.areaCensus(claims)

	for i := range claims {
		claim := &claims[i]
		proc, ok := d.db.Procedure(claim.ProcedureCode)
		if !ok {
			report.SkippedClaims++
			d.log.Debug().Str("claim_id", claim.ClaimID).Str("code", claim.ProcedureCode).Msg("unknown procedure code, skipped")
			continue
		}

		var g *model.GhostService
		if strings.TrimSpace(claim.ClinicalNotes) != "" {
			g = d.documentedGhost(claim, proc)
		} else {
			g = d.undocumentedGhost(claim, proc, areas)
		}
		if g != nil {
			report.Ghosts = append(report.Ghosts, *g)
			report.GhostBilled += g.BilledAmount
		}
	}

	report.Unbundling = d.Unbundling(claims)
	for _, a := range report.Unbundling {
		report.UnbundlingSavings += a.PotentialSavings
	}

	report.GhostBilled = normalize.RoundCents(report.GhostBilled)
	report.UnbundlingSavings = normalize.RoundCents(report.UnbundlingSavings)
	report.TotalPotentialSavings = normalize.RoundCents(report.GhostBilled + report.UnbundlingSavings)
	report.RiskLevel = model.LevelForCount(len(report.Ghosts) + len(report.Unbundling))

	d.log.Info().
		Int("ghosts", len(report.Ghosts)).
		Int("unbundling_alerts", len(report.Unbundling)).
		Int("skipped", report.SkippedClaims).
		Float64("potential_savings", report.TotalPotentialSavings).
		Str("risk_level", string(report.RiskLevel)).
		Msg("ghost and unbundling scan complete")
	return report
}

func (d *Detector) documentedGhost(claim *model.ClaimLineItem, proc model.ProcedureReference) *model.GhostService {
	description := proc.Description
	if description == "" {
		description = claim.ProcedureDescription
	}
	sim := d.Score(claim.ClinicalNotes, description)
	if !sim.Scoreable || sim.Ratio >= FlagRatio {
		return nil
	}

	g := &model.GhostService{
		ClaimID:         claim.ClaimID,
		ProcedureCode:   proc.Code,
		Description:     proc.Description,
		BilledAmount:    claim.BilledAmount,
		SimilarityRatio: sim.Ratio,
		MatchedKeywords: sim.Matched,
		ExplicitDenial:  sim.Denial,
	}
	switch {
	case sim.Denial:
		g.Explanation = fmt.Sprintf("Phantom billing: the clinical notes for claim %s state that %s (%s) was not performed or not recorded, yet $%.2f was billed.",
			claim.ClaimID, proc.Code, proc.Description, claim.BilledAmount)
	case sim.Ratio == 0:
		g.Explanation = fmt.Sprintf("Phantom billing: none of the %d terms expected for %s (%s) appear in the notes for claim %s.",
			sim.Candidates, proc.Code, proc.Description, claim.ClaimID)
	default:
		g.Explanation = fmt.Sprintf("Insufficient evidence: only %d of %d terms expected for %s (%s) appear in the notes for claim %s (similarity %.2f; matched %s).",
			len(sim.Matched), sim.Candidates, proc.Code, proc.Description, claim.ClaimID, sim.Ratio, strings.Join(sim.Matched, ", "))
	}
	return g
}

// census counts non-generic claims per body area in first-seen order.
type census struct {
	counts   map[string]int
	dominant string
}

func (d *Detector) area(claim *model.ClaimLineItem, proc model.ProcedureReference) (string, bool) {
	cat, _ := model.CategoryByName(proc.Category)
	if cat.AreaAgnostic {
		return "", false
	}
	area := d.db.AreaFor(proc.Code, proc.Description)
	if area == "" {
		area = d.db.AreaFor("", claim.ProcedureDescription)
	}
	return area, area != ""
}

func (d *Detector) areaCensus(claims []model.ClaimLineItem) census {
	c := census{counts: make(map[string]int)}
	var order []string
	for i := range claims {
		proc, ok := d.db.Procedure(claims[i].ProcedureCode)
		if !ok {
			continue
		}
		area, ok := d.area(&claims[i], proc)
		if !ok {
			continue
		}
		if _, seen := c.counts[area]; !seen {
			order = append(order, area)
		}
		c.counts[area]++
	}
	best := 0
	for _, area := range order {
		if c.counts[area] > best {
			best = c.counts[area]
			c.dominant = area
		}
	}
	return c
}

func (d *Detector) undocumentedGhost(claim *model.ClaimLineItem, proc model.ProcedureReference, areas census) *model.GhostService {
	area, ok := d.area(claim, proc)
	if !ok || area == areas.dominant || areas.counts[area] > 1 {
		return nil
	}
	return &model.GhostService{
		ClaimID:         claim.ClaimID,
		ProcedureCode:   proc.Code,
		Description:     proc.Description,
		BilledAmount:    claim.BilledAmount,
		MatchedKeywords: []string{},
		Area:            area,
		Explanation: fmt.Sprintf("Out-of-pattern service: claim %s bills %s (%s) for the %s, but it has no clinical notes and the rest of the batch centres on the %s.",
			claim.ClaimID, proc.Code, proc.Description, area, areas.dominant),
	}
}

// Unbundling emits one alert per bundling rule whose primary code and at least
// one bundled code were both billed in the batch.
func (d *Detector) Unbundling(claims []model.ClaimLineItem) []model.UnbundlingAlert {
	alerts := []model.UnbundlingAlert{}
	for _, rule := range d.db.BundlingRules() {
		bundled := make(map[string]bool, len(rule.BundledCodes))
		for _, c := range rule.BundledCodes {
			bundled[c] = true
		}

		var primaryIDs, bundledIDs, presentCodes []string
		var total float64
		seenCode := make(map[string]bool)
		for _, claim := range claims {
			code := normalize.Code(claim.ProcedureCode)
			switch {
			case code == rule.PrimaryCode:
				primaryIDs = append(primaryIDs, claim.ClaimID)
			case bundled[code]:
				bundledIDs = append(bundledIDs, claim.ClaimID)
				if !seenCode[code] {
					seenCode[code] = true
					presentCodes = append(presentCodes, code)
				}
			default:
				continue
			}
			total += claim.BilledAmount
		}
		if len(primaryIDs) == 0 || len(bundledIDs) == 0 {
			continue
		}

		total = normalize.RoundCents(total)
		correct := normalize.RoundCents(total * FallbackCostShare)
		priced := false
		if p, ok := d.db.Procedure(rule.ReplacementCode); ok {
			correct = p.AverageCost
			priced = true
		}

		a := model.UnbundlingAlert{
			PrimaryCode:      rule.PrimaryCode,
			BundledCodes:     presentCodes,
			ClaimIDs:         append(primaryIDs, bundledIDs...),
			TotalBilled:      total,
			CorrectCode:      rule.ReplacementCode,
			CorrectCost:      correct,
			PotentialSavings: normalize.RoundCents(total - correct),
		}
		a.Explanation = unbundlingExplanation(a, rule, priced)
		alerts = append(alerts, a)
	}
	return alerts
}

func unbundlingExplanation(a model.UnbundlingAlert, rule model.BundlingRule, priced bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unbundling: %s was billed together with %s, which are not separately billable alongside it.",
		a.PrimaryCode, strings.Join(a.BundledCodes, ", "))
	if rule.ReplacementDescription != "" {
		fmt.Fprintf(&b, " %s.", strings.TrimSuffix(rule.ReplacementDescription, "."))
	}
	fmt.Fprintf(&b, " Billed $%.2f across %d claims; correct billing under %s is $%.2f", a.TotalBilled, len(a.ClaimIDs), a.CorrectCode, a.CorrectCost)
	if !priced {
		b.WriteString(" (estimated at 60% of the billed total; replacement code not in the reference tables)")
	}
	fmt.Fprintf(&b, ", potential savings $%.2f.", a.PotentialSavings)
	return b.String()
}
