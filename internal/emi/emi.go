// Package emi computes equated monthly installments for fixed-rate loans.
package emi

import (
	"math"

	"github.com/shopspring/decimal"
)

// Result is a rounded installment breakdown.
type Result struct {
	EMI           float64 `json:"emi"`
	TotalPayable  float64 `json:"total_payable"`
	TotalInterest float64 `json:"total_interest"`
}

// Months converts a tenure in years to the number of monthly installments.
func Months(tenureYears int) int {
	return tenureYears * 12
}

// Compute returns the installment for principal borrowed at annualRatePercent
// over tenureYears. Totals derive from the unrounded installment; each field
// is rounded to 2 decimals only at the end. Inputs must be positive.
func Compute(principal, annualRatePercent float64, tenureYears int) Result {
	r := annualRatePercent / 12 / 100
	n := Months(tenureYears)

	growth := math.Pow(1+r, float64(n))
	emi := principal * r * growth / (growth - 1)

	totalPayable := emi * float64(n)
	totalInterest := totalPayable - principal

	return Result{
		EMI:           round2(emi),
		TotalPayable:  round2(totalPayable),
		TotalInterest: round2(totalInterest),
	}
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
