package refdb

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefault_EmbeddedTablesLoad(t *testing.T) {
	db := Default()

	p, ok := db.Procedure(" 99285")
	if !ok {
		t.Fatal("expected 99285 in embedded reference")
	}
	if p.Severity != 5 || p.AverageCost != 650 {
		t.Errorf("99285 = %+v", p)
	}
	if len(db.Codes()) == 0 || len(db.BundlingRules()) == 0 {
		t.Fatal("expected codes and bundling rules")
	}
	for level := MinSeverity; level <= MaxSeverity; level++ {
		if len(db.Keywords(level)) == 0 {
			t.Errorf("no lexicon entries for level %d", level)
		}
	}
	if db.Keywords(0) != nil || db.Keywords(MaxSeverity+1) != nil {
		t.Error("out-of-range levels should have no keywords")
	}
}

func TestDefault_EveryBundledCodeIsKnown(t *testing.T) {
	db := Default()
	for _, r := range db.BundlingRules() {
		if _, ok := db.Procedure(r.PrimaryCode); !ok {
			t.Errorf("rule primary %s not in procedures", r.PrimaryCode)
		}
		for _, c := range r.BundledCodes {
			if _, ok := db.Procedure(c); !ok {
				t.Errorf("rule %s bundles unknown code %s", r.PrimaryCode, c)
			}
		}
	}
}

func TestAreaFor(t *testing.T) {
	db := Default()
	cases := []struct {
		code, description, want string
	}{
		{"27447", "", "knee"},
		{"99999", "Ankle brace fitting", "ankle"},
		{"99999", "Lumbar puncture", "spine"},
		{"80053", "Comprehensive metabolic panel", ""},
	}
	for _, c := range cases {
		if got := db.AreaFor(c.code, c.description); got != c.want {
			t.Errorf("AreaFor(%s, %q) = %q, want %q", c.code, c.description, got, c.want)
		}
	}
}

func TestGroupsFor(t *testing.T) {
	db := Default()
	var names []string
	for _, g := range db.GroupsFor("MRI knee joint without contrast") {
		names = append(names, g.Name)
	}
	if diff := cmp.Diff([]string{"mri", "knee"}, names); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if got := db.GroupsFor("Surgical trays"); len(got) != 0 {
		t.Errorf("expected no groups, got %v", got)
	}
}

func TestHasDenial(t *testing.T) {
	db := Default()
	if !db.HasDenial("procedure not performed per patient") {
		t.Error("expected denial")
	}
	if db.HasDenial("performed without complication") {
		t.Error("unexpected denial")
	}
}

func TestCategoryOf(t *testing.T) {
	db := Default()
	cat, ok := db.CategoryOf("73560")
	if !ok || cat.Name != "Radiology" {
		t.Errorf("CategoryOf(73560) = %+v, %v", cat, ok)
	}
	if _, ok := db.CategoryOf("00000"); ok {
		t.Error("unknown code should have no category")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "severity out of range",
			yaml: `procedures: [{code: "1", description: x, severity: 9, average_cost: 1, category: "Surgery"}]`,
			want: "severity 9",
		},
		{
			name: "unknown category",
			yaml: `procedures: [{code: "1", description: x, severity: 2, average_cost: 1, category: "Astrology"}]`,
			want: "unknown category",
		},
		{
			name: "duplicate code",
			yaml: `procedures:
  - {code: "1", description: x, severity: 2, average_cost: 1, category: "Surgery"}
  - {code: " 1", description: y, severity: 2, average_cost: 1, category: "Surgery"}`,
			want: "duplicate code",
		},
		{
			name: "negative cost",
			yaml: `procedures: [{code: "1", description: x, severity: 2, average_cost: -5, category: "Surgery"}]`,
			want: "negative average cost",
		},
		{
			name: "rule without bundled codes",
			yaml: `bundling_rules: [{primary_code: "1", bundled_codes: []}]`,
			want: "bundled codes are required",
		},
		{
			name: "lexicon level",
			yaml: "severity_lexicon:\n  7: [bad]",
			want: "level 7",
		},
		{
			name: "area conflict",
			yaml: "body_areas:\n  codes:\n    knee: [\"1\"]\n    ankle: [\"1\"]",
			want: "mapped to both",
		},
		{
			name: "malformed",
			yaml: "procedures: {",
			want: "parse reference yaml",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load([]byte(c.yaml))
			if err == nil {
				t.Fatalf("expected error containing %q", c.want)
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("error %q does not contain %q", err, c.want)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/reference.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
