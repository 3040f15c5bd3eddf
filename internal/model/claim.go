package model

// ClaimLineItem is one billed service as handed over by the normalizer.
// Values are treated as immutable by every engine.
type ClaimLineItem struct {
	ClaimID              string   `json:"claim_id"`
	PatientName          string   `json:"patient_name"`
	ServiceDate          string   `json:"service_date"`
	ServiceTime          string   `json:"service_time"`
	Department           string   `json:"department"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
	ProcedureCode        string   `json:"procedure_code"`
	ProcedureDescription string   `json:"procedure_description"`
	BilledAmount         float64  `json:"billed_amount"`
	ClinicalNotes        string   `json:"clinical_notes"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (c *ClaimLineItem) HasCoordinates() bool {
	return c.Latitude != nil && c.Longitude != nil
}

// ProcedureReference is the static metadata for a procedure code.
type ProcedureReference struct {
	Code        string  `yaml:"code" json:"code"`
	Description string  `yaml:"description" json:"description"`
	Severity    int     `yaml:"severity" json:"severity"`
	AverageCost float64 `yaml:"average_cost" json:"average_cost"`
	Category    string  `yaml:"category" json:"category"`
}

// BundlingRule pairs a primary code with codes that must not be billed
// separately alongside it.
type BundlingRule struct {
	PrimaryCode            string   `yaml:"primary_code" json:"primary_code"`
	BundledCodes           []string `yaml:"bundled_codes" json:"bundled_codes"`
	ReplacementCode        string   `yaml:"replacement_code" json:"replacement_code"`
	ReplacementDescription string   `yaml:"replacement_description" json:"replacement_description"`
}
