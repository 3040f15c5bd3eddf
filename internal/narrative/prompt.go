package narrative

import (
	"fmt"
	"strings"

	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/risk"
)

const systemPrompt = "You are a medical billing audit assistant. Write a short, neutral brief for a claims officer. " +
	"Use only the facts provided. Do not change the score, level or recommendation. " +
	"End with a reminder that the assessment is advisory."

// Prompt renders the brief as the user message.
func Prompt(b risk.Brief) string {
	var sb strings.Builder
	patient := b.PatientName
	if patient == "" {
		patient = "unknown"
	}
	fmt.Fprintf(&sb, "Patient: %s\n", patient)
	fmt.Fprintf(&sb, "Claims: %d\n", b.ClaimCount)
	fmt.Fprintf(&sb, "Total billed: $%.2f\n", b.TotalBilled)
	fmt.Fprintf(&sb, "Potential savings: $%.2f\n", b.PotentialSavings)
	fmt.Fprintf(&sb, "Risk score: %d/100 (%s)\n", b.Score, b.Level)
	fmt.Fprintf(&sb, "Recommendation: %s\n", b.Recommendation)
	sb.WriteString("Factors:\n")
	for _, f := range b.Factors {
		sign := "+"
		if f.Direction == model.DirectionSafe {
			sign = ""
		}
		fmt.Fprintf(&sb, "- [%s] %s (%s%.2f): %s\n", f.Direction, f.Name, sign, f.Contribution, f.Explanation)
	}
	sb.WriteString("\nWrite three short paragraphs: overall finding, key risk factors, recommended next step.")
	return sb.String()
}
