package normalize

import (
	"math"

	"github.com/gyeh/claimaudit/internal/model"
)

// ToClaim converts a Parquet-read ClaimRow into a ClaimLineItem.
// Missing optional columns become empty strings, the billed amount falls back
// to 0, and the procedure code is normalized. Coordinates are copied so the
// caller may reuse its read buffer; NaN or infinite values are dropped.
func ToClaim(row *model.ClaimRow) model.ClaimLineItem {
	return model.ClaimLineItem{
		ClaimID:              row.ClaimID,
		PatientName:          row.PatientName,
		ServiceDate:          derefStr(row.ServiceDate),
		ServiceTime:          derefStr(row.ServiceTime),
		Department:           derefStr(row.Department),
		Latitude:             Coordinate(row.Latitude),
		Longitude:            Coordinate(row.Longitude),
		ProcedureCode:        Code(row.ProcedureCode),
		ProcedureDescription: derefStr(row.ProcedureDescription),
		BilledAmount:         Amount(row.BilledAmount),
		ClinicalNotes:        derefStr(row.ClinicalNotes),
	}
}

// Claim applies the same coercions to a claim decoded from JSON.
func Claim(c model.ClaimLineItem) model.ClaimLineItem {
	c.ProcedureCode = Code(c.ProcedureCode)
	billed := c.BilledAmount
	c.BilledAmount = Amount(&billed)
	c.Latitude = Coordinate(c.Latitude)
	c.Longitude = Coordinate(c.Longitude)
	return c
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Coordinate returns a copy of v, or nil when v is missing or not finite.
func Coordinate(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	f := *v
	return &f
}
