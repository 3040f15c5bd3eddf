package model

// ClaimRow mirrors the Parquet schema for a single normalized claim line.
// Optional columns are pointers so missing values survive the round trip.
type ClaimRow struct {
	ClaimID              string   `parquet:"claim_id"`
	PatientName          string   `parquet:"patient_name"`
	ServiceDate          *string  `parquet:"service_date,optional"`
	ServiceTime          *string  `parquet:"service_time,optional"`
	Department           *string  `parquet:"department,optional"`
	Latitude             *float64 `parquet:"latitude,optional"`
	Longitude            *float64 `parquet:"longitude,optional"`
	ProcedureCode        string   `parquet:"procedure_code"`
	ProcedureDescription *string  `parquet:"procedure_description,optional"`
	BilledAmount         *float64 `parquet:"billed_amount,optional"`
	ClinicalNotes        *string  `parquet:"clinical_notes,optional"`
}

// RequiredClaimColumns lists the columns a claims Parquet file must carry.
var RequiredClaimColumns = []string{"claim_id", "procedure_code"}

// FromClaim builds a ClaimRow for writing a batch back to Parquet.
func FromClaim(c ClaimLineItem) ClaimRow {
	billed := c.BilledAmount
	return ClaimRow{
		ClaimID:              c.ClaimID,
		PatientName:          c.PatientName,
		ServiceDate:          optStr(c.ServiceDate),
		ServiceTime:          optStr(c.ServiceTime),
		Department:           optStr(c.Department),
		Latitude:             c.Latitude,
		Longitude:            c.Longitude,
		ProcedureCode:        c.ProcedureCode,
		ProcedureDescription: optStr(c.ProcedureDescription),
		BilledAmount:         &billed,
		ClinicalNotes:        optStr(c.ClinicalNotes),
	}
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
