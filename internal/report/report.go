// Package report renders analysis results as terminal tables, Markdown or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/refdb"
)

// Format names accepted by Render.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

const explanationWidth = 60

// Render writes the result in the requested format.
func Render(w io.Writer, r *model.AnalysisResult, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatTable, FormatMarkdown:
		return renderText(w, r, format == FormatMarkdown)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

type section struct {
	title string
	tbl   table.Writer
}

func newTable(markdown bool) table.Writer {
	t := table.NewWriter()
	if !markdown {
		t.SetStyle(table.StyleLight)
	}
	return t
}

func render(t table.Writer, markdown bool) string {
	if markdown {
		return t.RenderMarkdown()
	}
	return t.Render()
}

func wrapExplanations(t table.Writer, markdown bool, column int) {
	if markdown {
		return
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: column, WidthMax: explanationWidth}})
}

func renderText(w io.Writer, r *model.AnalysisResult, markdown bool) error {
	var sections []section

	summary := newTable(markdown)
	summary.AppendHeader(table.Row{"Field", "Value"})
	summary.AppendRows([]table.Row{
		{"Analysis ID", r.ID},
		{"Analyzed at", r.AnalyzedAt.Format("2006-01-02 15:04:05 MST")},
		{"Patient", r.PatientName},
		{"Claims", r.ClaimCount},
		{"Total billed", money(r.TotalBilled)},
		{"Potential savings", money(r.Financial.PotentialSavings)},
		{"Expected", money(r.Financial.Expected)},
		{"Risk score", fmt.Sprintf("%d/100", r.Risk.Score)},
		{"Risk level", r.Risk.Level},
		{"Recommendation", r.Risk.Recommendation},
	})
	sections = append(sections, section{"Summary", summary})

	factors := newTable(markdown)
	factors.AppendHeader(table.Row{"Factor", "Direction", "Contribution", "Explanation"})
	for _, f := range r.Risk.Factors {
		factors.AppendRow(table.Row{f.Name, f.Direction, fmt.Sprintf("%+.2f", f.Contribution), f.Explanation})
	}
	cfgs := []table.ColumnConfig{{Number: 3, Align: text.AlignRight}}
	if !markdown {
		cfgs = append(cfgs, table.ColumnConfig{Number: 4, WidthMax: explanationWidth})
	}
	factors.SetColumnConfigs(cfgs)
	sections = append(sections, section{"Risk factors", factors})

	if len(r.Severity.Mismatches) > 0 {
		t := newTable(markdown)
		t.AppendHeader(table.Row{"Claim", "Code", "Billed", "Documented", "Gap", "Tier", "Explanation"})
		for _, m := range r.Severity.Mismatches {
			documented := fmt.Sprint(m.NoteSeverity)
			if m.Inferred {
				documented += " (inferred)"
			}
			t.AppendRow(table.Row{m.ClaimID, m.ProcedureCode, m.BilledSeverity, documented, m.Gap, m.Tier, m.Explanation})
		}
		wrapExplanations(t, markdown, 7)
		sections = append(sections, section{fmt.Sprintf("Severity mismatches (%s)", r.Severity.RiskLevel), t})
	}

	if len(r.Timeline.Overlaps) > 0 {
		t := newTable(markdown)
		t.AppendHeader(table.Row{"Claims", "Type", "Overlap (min)", "Distance (km)", "Speed (km/h)", "Explanation"})
		for _, o := range r.Timeline.Overlaps {
			t.AppendRow(table.Row{
				strings.Join(o.ClaimIDs[:], " / "), o.Type, fmt.Sprintf("%.0f", o.OverlapMinutes),
				optKm(o.DistanceKm), optSpeed(o.RequiredSpeedKmh), o.Explanation,
			})
		}
		wrapExplanations(t, markdown, 6)
		sections = append(sections, section{fmt.Sprintf("Timeline conflicts (%s)", r.Timeline.RiskLevel), t})
	}

	if len(r.Ghost.Ghosts) > 0 {
		t := newTable(markdown)
		t.AppendHeader(table.Row{"Claim", "Code", "Billed", "Similarity", "Explanation"})
		for _, g := range r.Ghost.Ghosts {
			t.AppendRow(table.Row{g.ClaimID, g.ProcedureCode, money(g.BilledAmount), fmt.Sprintf("%.2f", g.SimilarityRatio), g.Explanation})
		}
		t.AppendFooter(table.Row{"", "", money(r.Ghost.GhostBilled), "", ""})
		wrapExplanations(t, markdown, 5)
		sections = append(sections, section{"Ghost services", t})
	}

	if len(r.Ghost.Unbundling) > 0 {
		t := newTable(markdown)
		t.AppendHeader(table.Row{"Primary", "Bundled", "Claims", "Billed", "Correct", "Savings"})
		for _, a := range r.Ghost.Unbundling {
			t.AppendRow(table.Row{
				a.PrimaryCode, strings.Join(a.BundledCodes, ", "), strings.Join(a.ClaimIDs, ", "),
				money(a.TotalBilled), money(a.CorrectCost), money(a.PotentialSavings),
			})
		}
		t.AppendFooter(table.Row{"", "", "", "", "", money(r.Ghost.UnbundlingSavings)})
		sections = append(sections, section{"Unbundling", t})
	}

	var b strings.Builder
	for _, s := range sections {
		writeHeading(&b, s.title, markdown)
		b.WriteString(render(s.tbl, markdown))
		b.WriteString("\n\n")
	}
	writeHeading(&b, "Narrative ("+r.Risk.NarrativeSource+")", markdown)
	b.WriteString(r.Risk.Narrative)
	b.WriteString("\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeHeading(b *strings.Builder, title string, markdown bool) {
	if markdown {
		fmt.Fprintf(b, "## %s\n\n", title)
		return
	}
	fmt.Fprintf(b, "%s\n", title)
}

// Procedures renders the reference procedure table, or JSON.
func Procedures(w io.Writer, db *refdb.Database, codes []string, format string) error {
	procs := make([]model.ProcedureReference, 0, len(codes))
	for _, code := range codes {
		p, ok := db.Procedure(code)
		if !ok {
			return fmt.Errorf("unknown procedure code %q", code)
		}
		procs = append(procs, p)
	}
	if format == FormatJSON {
		return writeJSON(w, procs)
	}

	markdown := format == FormatMarkdown
	t := newTable(markdown)
	t.AppendHeader(table.Row{"Code", "Description", "Severity", "Avg cost", "Category", "Area"})
	for _, p := range procs {
		t.AppendRow(table.Row{p.Code, p.Description, p.Severity, money(p.AverageCost), p.Category, db.AreaFor(p.Code, p.Description)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, Align: text.AlignRight}})
	_, err := fmt.Fprintln(w, render(t, markdown))
	return err
}

// BundlingRules renders the reference bundling rules, or JSON.
func BundlingRules(w io.Writer, db *refdb.Database, format string) error {
	rules := db.BundlingRules()
	if format == FormatJSON {
		return writeJSON(w, rules)
	}

	markdown := format == FormatMarkdown
	t := newTable(markdown)
	t.AppendHeader(table.Row{"Primary", "Not separately billable", "Replacement", "Note"})
	for _, r := range rules {
		t.AppendRow(table.Row{r.PrimaryCode, strings.Join(r.BundledCodes, ", "), r.ReplacementCode, r.ReplacementDescription})
	}
	_, err := fmt.Fprintln(w, render(t, markdown))
	return err
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func optKm(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func optSpeed(v *model.Speed) string {
	if v == nil {
		return "-"
	}
	if math.IsInf(float64(*v), 1) {
		return "inf"
	}
	return fmt.Sprintf("%.1f", float64(*v))
}
