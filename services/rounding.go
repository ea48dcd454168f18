package services

import "github.com/shopspring/decimal"

// RoundCents rounds to 2 decimal places, half away from zero.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// SumCents adds amounts in decimal and rounds the final total only, so
// float drift across many lines cannot move the result by a cent.
func SumCents(amounts []float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}
