// Package severity cross-checks billed procedure severity against the
// severity documented in clinical notes, or inferred from sibling procedures
// when a claim carries no notes.
package severity

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
	"github.com/gyeh/claimaudit/internal/refdb"
)

const (
	// noEvidenceLevel is the note severity forced by a "no record found" marker.
	noEvidenceLevel = 0
	// lowNoteCap is the ceiling applied when routine vocabulary dominates a note.
	lowNoteCap = 2
	// minDescriptionTerms is how many description terms a note must repeat
	// to count as evidence of the service.
	minDescriptionTerms = 2
	// inferredGapThreshold flags a notes-less visit billed this far above
	// the inferred clinical picture.
	inferredGapThreshold = 2
)

// Checker runs the severity cross-check against a reference database.
type Checker struct {
	db  *refdb.Database
	log zerolog.Logger
}

// New returns a Checker backed by db.
func New(db *refdb.Database, log zerolog.Logger) *Checker {
	return &Checker{db: db, log: log.With().Str("engine", "severity").Logger()}
}

// NoteAssessment is the severity evidence extracted from one note.
type NoteAssessment struct {
	Level           int
	MatchedKeywords []string
	LowMatches      int
	HighMatches     int
	NoRecord        bool
}

// AssessNote scans the lexicon from level 5 down to 1 and returns the highest
// level found along with every matched phrase.
func (c *Checker) AssessNote(notes string) NoteAssessment {
	text := normalize.Text(notes)
	var a NoteAssessment
	for level := refdb.MaxSeverity; level >= refdb.MinSeverity; level-- {
		matched := normalize.MatchPhrases(text, c.db.Keywords(level))
		if len(matched) == 0 {
			continue
		}
		if a.Level == 0 {
			a.Level = level
		}
		a.MatchedKeywords = append(a.MatchedKeywords, matched...)
		switch {
		case level <= 2:
			a.LowMatches += len(matched)
		case level >= 4:
			a.HighMatches += len(matched)
		}
	}
	if len(normalize.MatchPhrases(text, c.db.NoRecordMarkers())) > 0 {
		a.NoRecord = true
		a.Level = noEvidenceLevel
	}
	if a.LowMatches > a.HighMatches && a.Level > lowNoteCap {
		a.Level = lowNoteCap
	}
	return a
}

// HasServiceEvidence reports whether the note documents the billed service:
// two or more non-generic description terms, or any per-code evidence phrase.
func (c *Checker) HasServiceEvidence(notes string, proc model.ProcedureReference, claimDescription string) bool {
	text := normalize.Text(notes)
	if len(normalize.MatchPhrases(text, c.db.EvidencePatterns(proc.Code))) > 0 {
		return true
	}
	description := proc.Description
	if description == "" {
		description = claimDescription
	}
	seen := make(map[string]bool)
	hits := 0
	for _, w := range normalize.Words(description) {
		if seen[w] || c.db.IsStopTerm(w) || len(w) < 3 {
			continue
		}
		seen[w] = true
		if normalize.ContainsPhrase(text, w) {
			hits++
			if hits >= minDescriptionTerms {
				return true
			}
		}
	}
	return false
}

// Check runs the cross-check over a batch. Claims with unknown codes are
// skipped without a finding and counted in SkippedClaims.
func (c *Checker) Check(claims []model.ClaimLineItem) model.SeverityReport {
	report := model.SeverityReport{Mismatches: []model.SeverityMismatch{}}
	var picture *clinicalPicture

	for i := range claims {
		claim := &claims[i]
		proc, ok := c.db.Procedure(claim.ProcedureCode)
		if !ok {
			report.SkippedClaims++
			c.log.Debug().Str("claim_id", claim.ClaimID).Str("code", claim.ProcedureCode).Msg("unknown procedure code, skipped")
			continue
		}
		report.ClaimsChecked++

		var m *model.SeverityMismatch
		if strings.TrimSpace(claim.ClinicalNotes) != "" {
			m = c.checkDocumented(claim, proc)
		} else {
			if picture == nil {
				picture = c.inferPicture(claims)
			}
			m = c.checkUndocumented(claim, proc, picture)
		}
		if m != nil {
			report.Mismatches = append(report.Mismatches, *m)
		}
	}

	report.RiskLevel = model.LevelForCount(len(report.Mismatches))
	c.log.Info().
		Int("checked", report.ClaimsChecked).
		Int("skipped", report.SkippedClaims).
		Int("mismatches", len(report.Mismatches)).
		Str("risk_level", string(report.RiskLevel)).
		Msg("severity cross-check complete")
	return report
}

func (c *Checker) checkDocumented(claim *model.ClaimLineItem, proc model.ProcedureReference) *model.SeverityMismatch {
	note := c.AssessNote(claim.ClinicalNotes)
	evidence := c.HasServiceEvidence(claim.ClinicalNotes, proc, claim.ProcedureDescription)

	billed := proc.Severity
	gap := billed - note.Level
	flagged := (!evidence && billed >= 2) || gap >= 3 || (gap >= 2 && !evidence)
	if !flagged {
		return nil
	}

	effective := note.Level
	if !evidence {
		effective = min(note.Level, 1)
		gap = billed - effective
	}

	m := &model.SeverityMismatch{
		ClaimID:         claim.ClaimID,
		ProcedureCode:   proc.Code,
		Description:     proc.Description,
		BilledSeverity:  billed,
		NoteSeverity:    effective,
		Gap:             gap,
		MatchedKeywords: nonNil(note.MatchedKeywords),
		EvidenceFound:   evidence,
		Tier:            model.TierForGap(gap),
	}
	m.Explanation = documentedExplanation(m, note.NoRecord)
	return m
}

func documentedExplanation(m *model.SeverityMismatch, noRecord bool) string {
	var b strings.Builder
	switch m.Tier {
	case model.TierCritical:
		fmt.Fprintf(&b, "CRITICAL upcoding signal: code %s (%s) billed at severity %d, but the clinical notes support only severity %d (gap %d).",
			m.ProcedureCode, m.Description, m.BilledSeverity, m.NoteSeverity, m.Gap)
	case model.TierSignificant:
		fmt.Fprintf(&b, "Significant severity gap: code %s (%s) billed at severity %d against documented severity %d (gap %d).",
			m.ProcedureCode, m.Description, m.BilledSeverity, m.NoteSeverity, m.Gap)
	default:
		fmt.Fprintf(&b, "Minor severity discrepancy: code %s (%s) billed at severity %d, documentation suggests severity %d.",
			m.ProcedureCode, m.Description, m.BilledSeverity, m.NoteSeverity)
	}
	if noRecord {
		b.WriteString(" The notes state that no record was found.")
	} else if len(m.MatchedKeywords) > 0 {
		fmt.Fprintf(&b, " Documented terms: %s.", strings.Join(m.MatchedKeywords, ", "))
	} else {
		b.WriteString(" No severity vocabulary was found in the notes.")
	}
	if !m.EvidenceFound {
		b.WriteString(" The notes do not describe the billed service.")
	}
	return b.String()
}

// clinicalPicture is the severity ceiling inferred from a batch's non-visit procedures.
type clinicalPicture struct {
	area        string
	maxSeverity int
	ceiling     int
	codes       []pictureCode
}

type pictureCode struct {
	claimID string
	label   string
}

// inferPicture groups non-visit procedures by body area and derives the
// ceiling from the dominant area. Returns a picture with ceiling 0 when no
// area could be resolved.
func (c *Checker) inferPicture(claims []model.ClaimLineItem) *clinicalPicture {
	counts := make(map[string]int)
	maxSev := make(map[string]int)
	var order []string
	pic := &clinicalPicture{}

	for _, claim := range claims {
		proc, ok := c.db.Procedure(claim.ProcedureCode)
		if !ok {
			continue
		}
		cat, _ := model.CategoryByName(proc.Category)
		if cat.Visit {
			continue
		}
		pic.codes = append(pic.codes, pictureCode{claimID: claim.ClaimID, label: proc.Code + " " + proc.Description})
		area := c.db.AreaFor(proc.Code, proc.Description)
		if area == "" {
			continue
		}
		if _, seen := counts[area]; !seen {
			order = append(order, area)
		}
		counts[area]++
		maxSev[area] = max(maxSev[area], proc.Severity)
	}

	best := 0
	for _, area := range order {
		if counts[area] > best {
			best = counts[area]
			pic.area = area
		}
	}
	if pic.area != "" {
		pic.maxSeverity = maxSev[pic.area]
		pic.ceiling = min(refdb.MaxSeverity, pic.maxSeverity+1)
	}
	return pic
}

func (c *Checker) checkUndocumented(claim *model.ClaimLineItem, proc model.ProcedureReference, pic *clinicalPicture) *model.SeverityMismatch {
	cat, _ := model.CategoryByName(proc.Category)
	if !cat.Visit || proc.Severity <= 2 || pic.ceiling == 0 {
		return nil
	}
	gap := proc.Severity - pic.ceiling
	if gap < inferredGapThreshold {
		return nil
	}

	cited := make([]string, 0, len(pic.codes))
	for _, pc := range pic.codes {
		if pc.claimID != claim.ClaimID {
			cited = append(cited, pc.label)
		}
	}

	m := &model.SeverityMismatch{
		ClaimID:         claim.ClaimID,
		ProcedureCode:   proc.Code,
		Description:     proc.Description,
		BilledSeverity:  proc.Severity,
		NoteSeverity:    pic.ceiling,
		Gap:             gap,
		MatchedKeywords: cited,
		Inferred:        true,
		Tier:            model.TierForGap(gap),
	}
	m.Explanation = fmt.Sprintf("%s visit level without clinical notes: code %s billed at severity %d, but the other services in this batch (%s area, max severity %d) support at most severity %d (gap %d). Billed alongside: %s.",
		tierWord(m.Tier), proc.Code, proc.Severity, pic.area, pic.maxSeverity, pic.ceiling, gap, strings.Join(cited, "; "))
	return m
}

func tierWord(t model.MismatchTier) string {
	switch t {
	case model.TierCritical:
		return "CRITICAL: inflated"
	case model.TierSignificant:
		return "Significant: elevated"
	default:
		return "Minor: elevated"
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
