package ghost

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/refdb"
)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	return New(refdb.Default(), zerolog.Nop())
}

func claim(id, code string, billed float64, notes string) model.ClaimLineItem {
	return model.ClaimLineItem{
		ClaimID:       id,
		ServiceDate:   "2024-03-01",
		ProcedureCode: code,
		BilledAmount:  billed,
		ClinicalNotes: notes,
	}
}

func TestUnbundling_ShoulderStrapping(t *testing.T) {
	d := newDetector(t)
	alerts := d.Unbundling([]model.ClaimLineItem{
		claim("A", "23650", 700, ""),
		claim("B", "29240", 90, ""),
		claim("C", "85025", 30, ""),
	})
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	want := model.UnbundlingAlert{
		PrimaryCode:      "23650",
		BundledCodes:     []string{"29240"},
		ClaimIDs:         []string{"A", "B"},
		TotalBilled:      790,
		CorrectCode:      "23650",
		CorrectCost:      620,
		PotentialSavings: 170,
	}
	a.Explanation = ""
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("alert mismatch (-want +got):\n%s", diff)
	}
}

func TestUnbundling_PrimaryAloneIsClean(t *testing.T) {
	d := newDetector(t)
	alerts := d.Unbundling([]model.ClaimLineItem{claim("A", "23650", 700, ""), claim("B", "73030", 85, "")})
	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %+v", alerts)
	}
}

const fallbackYAML = `
procedures:
  - {code: "11111", description: "Primary thing", severity: 2, average_cost: 100, category: "Surgery"}
  - {code: "22222", description: "Component thing", severity: 1, average_cost: 20, category: "Supplies"}
bundling_rules:
  - primary_code: "11111"
    bundled_codes: ["22222"]
    replacement_code: "99999"
`

func TestUnbundling_UnknownReplacementFallsBackToShare(t *testing.T) {
	db, err := refdb.Load([]byte(fallbackYAML))
	if err != nil {
		t.Fatalf("load reference: %v", err)
	}
	d := New(db, zerolog.Nop())
	alerts := d.Unbundling([]model.ClaimLineItem{claim("A", "11111", 100, ""), claim("B", "22222", 50, "")})
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].CorrectCost != 90 || alerts[0].PotentialSavings != 60 {
		t.Errorf("correct=%v savings=%v, want 90/60", alerts[0].CorrectCost, alerts[0].PotentialSavings)
	}
	if !strings.Contains(alerts[0].Explanation, "estimated") {
		t.Errorf("explanation should mention the estimate: %q", alerts[0].Explanation)
	}
}

func TestDetect_ExplicitDenial(t *testing.T) {
	d := newDetector(t)
	report := d.Detect([]model.ClaimLineItem{
		claim("A", "73721", 1100, "No record of MRI being performed on this date."),
	})
	if len(report.Ghosts) != 1 {
		t.Fatalf("expected 1 ghost, got %d", len(report.Ghosts))
	}
	g := report.Ghosts[0]
	if !g.ExplicitDenial || g.SimilarityRatio != 0 {
		t.Errorf("denial=%v ratio=%v, want true/0", g.ExplicitDenial, g.SimilarityRatio)
	}
	if !strings.HasPrefix(g.Explanation, "Phantom billing") {
		t.Errorf("unexpected explanation: %q", g.Explanation)
	}
	if report.GhostBilled != 1100 || report.TotalPotentialSavings != 1100 {
		t.Errorf("ghost billed=%v savings=%v, want 1100/1100", report.GhostBilled, report.TotalPotentialSavings)
	}
}

func TestDetect_WeakEvidence(t *testing.T) {
	d := newDetector(t)
	report := d.Detect([]model.ClaimLineItem{
		claim("A", "73721", 1100, "Seen for knee pain, advised rest and ice."),
	})
	if len(report.Ghosts) != 1 {
		t.Fatalf("expected 1 ghost, got %d", len(report.Ghosts))
	}
	g := report.Ghosts[0]
	if g.SimilarityRatio <= 0 || g.SimilarityRatio >= FlagRatio {
		t.Errorf("ratio = %v, want in (0, %v)", g.SimilarityRatio, FlagRatio)
	}
	if !strings.HasPrefix(g.Explanation, "Insufficient evidence") {
		t.Errorf("unexpected explanation: %q", g.Explanation)
	}
}

func TestDetect_SupportedAndUnscoreable(t *testing.T) {
	d := newDetector(t)
	report := d.Detect([]model.ClaimLineItem{
		claim("A", "73721", 1100, "MRI of the left knee: meniscus tear, images reviewed with radiology."),
		claim("B", "99285", 650, "Patient arrived by ambulance."),
	})
	if len(report.Ghosts) != 0 {
		t.Errorf("expected no ghosts, got %+v", report.Ghosts)
	}
	if report.RiskLevel != model.RiskLow {
		t.Errorf("risk level = %s, want LOW", report.RiskLevel)
	}
}

func TestScore_UnscoreableDefaultsToHalf(t *testing.T) {
	d := newDetector(t)
	s := d.Score("anything at all", "Emergency department visit, high severity")
	if s.Scoreable || s.Ratio != UnscoreableRatio {
		t.Errorf("got scoreable=%v ratio=%v, want false/%v", s.Scoreable, s.Ratio, UnscoreableRatio)
	}
}

func TestDetect_OutOfAreaServiceWithoutNotes(t *testing.T) {
	d := newDetector(t)
	report := d.Detect([]model.ClaimLineItem{
		claim("V", "99213", 110, ""),
		claim("K1", "27447", 22000, ""),
		claim("K2", "73560", 80, ""),
		claim("A1", "73610", 85, ""),
	})

	if len(report.Ghosts) != 1 {
		t.Fatalf("expected 1 ghost, got %+v", report.Ghosts)
	}
	g := report.Ghosts[0]
	if g.ClaimID != "A1" || g.Area != "ankle" {
		t.Errorf("unexpected ghost: %+v", g)
	}
	// 27447 + 73560 is also an unbundling pair.
	if len(report.Unbundling) != 1 {
		t.Fatalf("expected 1 unbundling alert, got %d", len(report.Unbundling))
	}
	if report.RiskLevel != model.RiskHigh {
		t.Errorf("risk level = %s, want HIGH", report.RiskLevel)
	}
	wantSavings := 85 + report.Unbundling[0].PotentialSavings
	if report.TotalPotentialSavings != wantSavings {
		t.Errorf("total savings = %v, want %v", report.TotalPotentialSavings, wantSavings)
	}
}

func TestDetect_SharedMinorityAreaIsNotFlagged(t *testing.T) {
	d := newDetector(t)
	report := d.Detect([]model.ClaimLineItem{
		claim("K1", "73721", 1100, ""),
		claim("K2", "73560", 80, ""),
		claim("K3", "20610", 180, ""),
		claim("S1", "73030", 85, ""),
		claim("S2", "29240", 70, ""),
	})
	if len(report.Ghosts) != 0 {
		t.Errorf("expected no ghosts, got %+v", report.Ghosts)
	}
}

func TestDetect_UnknownCodeSkipped(t *testing.T) {
	d := newDetector(t)
	report := d.Detect([]model.ClaimLineItem{claim("X", "ABCDE", 500, "no record of anything")})
	if report.SkippedClaims != 1 || len(report.Ghosts) != 0 {
		t.Errorf("skipped=%d ghosts=%d, want 1/0", report.SkippedClaims, len(report.Ghosts))
	}
}
