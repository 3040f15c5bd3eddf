package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/refdb"
)

func sampleResult() *model.AnalysisResult {
	dist := 14.2
	speed := model.Speed(math.Inf(1))
	return &model.AnalysisResult{
		ID:          "a1",
		AnalyzedAt:  time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		PatientName: "Jane Doe",
		ClaimCount:  2,
		TotalBilled: 1350,
		Severity: model.SeverityReport{
			Mismatches: []model.SeverityMismatch{{ClaimID: "CLM-1", ProcedureCode: "99285", BilledSeverity: 5, NoteSeverity: 1, Gap: 4, Tier: model.TierCritical, Explanation: "CRITICAL upcoding signal"}},
			RiskLevel:  model.RiskMedium,
		},
		Timeline: model.TimelineReport{
			Overlaps:  []model.TimelineOverlap{{ClaimIDs: [2]string{"CLM-1", "CLM-2"}, Type: model.OverlapTeleportation, OverlapMinutes: 20, DistanceKm: &dist, RequiredSpeedKmh: &speed}},
			RiskLevel: model.RiskCritical,
		},
		Risk: model.RiskAssessment{
			Score:           78,
			Level:           model.RiskCritical,
			Recommendation:  model.RecommendReject,
			Factors:         []model.RiskFactor{{Name: "Severity Mismatch", Contribution: 0.35, Direction: model.DirectionRisk, Explanation: "gap 4"}},
			Narrative:       "Narrative text.",
			NarrativeSource: "template",
		},
	}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleResult(), FormatTable); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Summary", "Jane Doe", "78/100", "Severity mismatches (MEDIUM)", "CLM-1 / CLM-2", "inf", "Narrative text."} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Ghost services") {
		t.Error("empty sections should be omitted")
	}
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleResult(), FormatMarkdown); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "## Summary") || !strings.Contains(out, "| Field") {
		t.Errorf("unexpected markdown:\n%s", out)
	}
}

func TestRender_JSONEncodesInfiniteSpeed(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleResult(), FormatJSON); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), `"required_speed_kmh": "Infinity"`) {
		t.Errorf("speed not encoded as Infinity:\n%s", buf.String())
	}
	var back model.AnalysisResult
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s := back.Timeline.Overlaps[0].RequiredSpeedKmh; s == nil || !math.IsInf(float64(*s), 1) {
		t.Errorf("speed = %v after decode, want +Inf", s)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	if err := Render(&bytes.Buffer{}, sampleResult(), "html"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestProcedures(t *testing.T) {
	db := refdb.Default()
	var buf bytes.Buffer
	if err := Procedures(&buf, db, []string{"23650"}, FormatTable); err != nil {
		t.Fatalf("Procedures: %v", err)
	}
	if !strings.Contains(buf.String(), "shoulder") || !strings.Contains(buf.String(), "$620.00") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
	if err := Procedures(&buf, db, []string{"NOPE"}, FormatTable); err == nil {
		t.Error("expected error for unknown code")
	}
}

func TestBundlingRules_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := BundlingRules(&buf, refdb.Default(), FormatJSON); err != nil {
		t.Fatalf("BundlingRules: %v", err)
	}
	var rules []model.BundlingRule
	if err := json.Unmarshal(buf.Bytes(), &rules); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rules) == 0 {
		t.Error("expected bundling rules")
	}
}
