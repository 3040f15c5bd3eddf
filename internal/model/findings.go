package model

import (
	"encoding/json"
	"math"
	"time"
)

// RiskLevel is shared by the engine reports and the final assessment.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// LevelForCount maps a finding count onto the engine thresholds
// (>=3 critical, 2 high, 1 medium).
func LevelForCount(n int) RiskLevel {
	switch {
	case n >= 3:
		return RiskCritical
	case n == 2:
		return RiskHigh
	case n == 1:
		return RiskMedium
	default:
		return RiskLow
	}
}

// MismatchTier grades the gap between billed and documented severity.
type MismatchTier string

const (
	TierCritical    MismatchTier = "CRITICAL"
	TierSignificant MismatchTier = "SIGNIFICANT"
	TierMinor       MismatchTier = "MINOR"
)

// TierForGap returns the explanation tier for a severity gap.
func TierForGap(gap int) MismatchTier {
	switch {
	case gap >= 3:
		return TierCritical
	case gap >= 2:
		return TierSignificant
	default:
		return TierMinor
	}
}

// SeverityMismatch records a claim billed above what its documentation supports.
type SeverityMismatch struct {
	ClaimID         string       `json:"claim_id"`
	ProcedureCode   string       `json:"procedure_code"`
	Description     string       `json:"description"`
	BilledSeverity  int          `json:"billed_severity"`
	NoteSeverity    int          `json:"note_severity"`
	Gap             int          `json:"gap"`
	MatchedKeywords []string     `json:"matched_keywords"`
	Inferred        bool         `json:"inferred"`
	EvidenceFound   bool         `json:"evidence_found"`
	Tier            MismatchTier `json:"tier"`
	Explanation     string       `json:"explanation"`
}

// OverlapType distinguishes plain double-booking from impossible travel.
type OverlapType string

const (
	OverlapPlain         OverlapType = "OVERLAP"
	OverlapTeleportation OverlapType = "TELEPORTATION"
)

// TimelineEvent is the interval derived for one claim.
type TimelineEvent struct {
	ClaimID    string    `json:"claim_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Department string    `json:"department"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
}

// Speed is a travel speed in km/h. An infinite speed is encoded as the
// string "Infinity" because JSON has no literal for it.
type Speed float64

func (s Speed) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(s), 1) {
		return []byte(`"Infinity"`), nil
	}
	return json.Marshal(float64(s))
}

func (s *Speed) UnmarshalJSON(data []byte) error {
	if string(data) == `"Infinity"` {
		*s = Speed(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Speed(f)
	return nil
}

// TimelineOverlap is a pair of claims whose intervals intersect.
type TimelineOverlap struct {
	ClaimIDs         [2]string   `json:"claim_ids"`
	Departments      [2]string   `json:"departments"`
	Type             OverlapType `json:"type"`
	OverlapMinutes   float64     `json:"overlap_minutes"`
	DistanceKm       *float64    `json:"distance_km,omitempty"`
	RequiredSpeedKmh *Speed      `json:"required_speed_kmh,omitempty"`
	Explanation      string      `json:"explanation"`
}

// GhostService is a billed procedure without clinical support.
type GhostService struct {
	ClaimID         string   `json:"claim_id"`
	ProcedureCode   string   `json:"procedure_code"`
	Description     string   `json:"description"`
	BilledAmount    float64  `json:"billed_amount"`
	SimilarityRatio float64  `json:"similarity_ratio"`
	MatchedKeywords []string `json:"matched_keywords"`
	ExplicitDenial  bool     `json:"explicit_denial"`
	Area            string   `json:"area,omitempty"`
	Explanation     string   `json:"explanation"`
}

// UnbundlingAlert covers every claim billed under one violated bundling rule.
type UnbundlingAlert struct {
	PrimaryCode      string   `json:"primary_code"`
	BundledCodes     []string `json:"bundled_codes"`
	ClaimIDs         []string `json:"claim_ids"`
	TotalBilled      float64  `json:"total_billed"`
	CorrectCode      string   `json:"correct_code"`
	CorrectCost      float64  `json:"correct_cost"`
	PotentialSavings float64  `json:"potential_savings"`
	Explanation      string   `json:"explanation"`
}

// Direction tells whether a factor pushes the score up or down.
type Direction string

const (
	DirectionRisk Direction = "RISK"
	DirectionSafe Direction = "SAFE"
)

// RiskFactor is a named, signed contribution to the score.
type RiskFactor struct {
	Name         string    `json:"name"`
	Contribution float64   `json:"contribution"`
	Direction    Direction `json:"direction"`
	Explanation  string    `json:"explanation"`
}
