package model

import "time"

// Recommendation is the advisory action for a claims officer.
type Recommendation string

const (
	RecommendApprove  Recommendation = "APPROVE"
	RecommendReview   Recommendation = "REVIEW"
	RecommendEscalate Recommendation = "ESCALATE"
	RecommendReject   Recommendation = "REJECT"
)

// SeverityReport is the output of the severity cross-checker.
type SeverityReport struct {
	Mismatches    []SeverityMismatch `json:"mismatches"`
	ClaimsChecked int                `json:"claims_checked"`
	SkippedClaims int                `json:"skipped_claims"`
	RiskLevel     RiskLevel          `json:"risk_level"`
}

// MaxGap returns the largest severity gap, or 0 when there are no mismatches.
func (r *SeverityReport) MaxGap() int {
	maxGap := 0
	for _, m := range r.Mismatches {
		if m.Gap > maxGap {
			maxGap = m.Gap
		}
	}
	return maxGap
}

// TimelineReport is the output of the timeline conflict detector.
type TimelineReport struct {
	Events             []TimelineEvent   `json:"events"`
	Overlaps           []TimelineOverlap `json:"overlaps"`
	TeleportationCount int               `json:"teleportation_count"`
	RiskLevel          RiskLevel         `json:"risk_level"`
}

// GhostReport is the output of the ghost and unbundling detector.
type GhostReport struct {
	Ghosts                []GhostService    `json:"ghosts"`
	Unbundling            []UnbundlingAlert `json:"unbundling"`
	GhostBilled           float64           `json:"ghost_billed"`
	UnbundlingSavings     float64           `json:"unbundling_savings"`
	TotalPotentialSavings float64           `json:"total_potential_savings"`
	SkippedClaims         int               `json:"skipped_claims"`
	RiskLevel             RiskLevel         `json:"risk_level"`
}

// FinancialSummary compares billed totals against the audited expectation.
type FinancialSummary struct {
	Billed           float64 `json:"billed"`
	Expected         float64 `json:"expected"`
	PotentialSavings float64 `json:"potential_savings"`
}

// RiskAssessment is the aggregator's verdict.
type RiskAssessment struct {
	Score           int            `json:"risk_score"`
	Level           RiskLevel      `json:"risk_level"`
	Recommendation  Recommendation `json:"recommendation"`
	Factors         []RiskFactor   `json:"factors"`
	Narrative       string         `json:"narrative"`
	NarrativeSource string         `json:"narrative_source"` // "template" or "external"
}

// AnalysisResult captures everything produced by one pipeline invocation.
type AnalysisResult struct {
	ID               string           `json:"analysis_id"`
	AnalyzedAt       time.Time        `json:"analyzed_at"`
	InputFingerprint string           `json:"input_fingerprint"`
	PatientName      string           `json:"patient_name"`
	ClaimCount       int              `json:"claim_count"`
	TotalBilled      float64          `json:"total_billed"`
	Severity         SeverityReport   `json:"severity"`
	Timeline         TimelineReport   `json:"timeline"`
	Ghost            GhostReport      `json:"ghost"`
	Risk             RiskAssessment   `json:"risk"`
	Financial        FinancialSummary `json:"financial"`
	Duration         time.Duration    `json:"duration_ns"`
}
