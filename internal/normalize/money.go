package normalize

import "math"

// DollarsToCents converts a nullable float64 dollar amount to nullable int64 cents.
// Uses math.Round to avoid truncation bias.
func DollarsToCents(v *float64) *int64 {
	if v == nil {
		return nil
	}
	c := int64(math.Round(*v * 100))
	return &c
}

// Amount coerces a nullable billed amount: missing and negative values become 0,
// everything else is rounded to whole cents.
func Amount(v *float64) float64 {
	c := DollarsToCents(v)
	if c == nil || *c < 0 {
		return 0
	}
	return float64(*c) / 100
}

// RoundCents rounds a currency value to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
