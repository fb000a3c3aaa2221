// Package eligibility decides whether an applicant qualifies for a catalog
// loan product and, if so, how much they may borrow.
package eligibility

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kalambet/loanbot/internal/catalog"
)

const (
	MsgAgeNotMet    = "Age criteria not met."
	MsgIncomeNotMet = "Income criteria not met."
	MsgCIBILTooLow  = "CIBIL score is too low."
	MsgEligible     = "Congratulations! You are eligible for this loan."
)

// annualIncomeShare caps the offer at half of twelve months' income.
var annualIncomeShare = decimal.RequireFromString("0.5")

// Request is an applicant profile for one loan type. EmploymentStatus is
// carried for callers but does not affect the outcome.
type Request struct {
	Age              int     `json:"age"`
	Income           float64 `json:"income"`
	CIBILScore       int     `json:"cibil_score"`
	EmploymentStatus string  `json:"employment_status"`
	LoanType         string  `json:"loan_type"`
}

// Verdict is the evaluation outcome. MaxAmount is set only when eligible.
type Verdict struct {
	Eligible  bool     `json:"is_eligible"`
	Message   string   `json:"message"`
	MaxAmount *float64 `json:"max_amount"`
}

// Evaluator applies catalog rules in a fixed order; the first failing rule
// determines the verdict.
type Evaluator struct {
	catalog *catalog.Catalog
}

func NewEvaluator(c *catalog.Catalog) *Evaluator {
	return &Evaluator{catalog: c}
}

func NotFoundMessage(loanType string) string {
	return fmt.Sprintf("Loan type '%s' not found.", loanType)
}

// Evaluate never fails; unknown types yield an ineligible verdict.
func (e *Evaluator) Evaluate(req Request) Verdict {
	policy, ok := e.catalog.Lookup(req.LoanType)
	if !ok {
		return Verdict{Message: NotFoundMessage(req.LoanType)}
	}

	if req.Age < policy.MinAge || req.Age > policy.MaxAge {
		return Verdict{Message: MsgAgeNotMet}
	}

	income := decimal.NewFromFloat(req.Income)
	if income.LessThan(decimal.NewFromFloat(policy.MinIncome)) {
		return Verdict{Message: MsgIncomeNotMet}
	}

	if req.CIBILScore < policy.MinCIBIL {
		return Verdict{Message: MsgCIBILTooLow}
	}

	byIncome := income.Mul(decimal.NewFromInt(12)).Mul(annualIncomeShare)
	offer := decimal.Min(byIncome, decimal.NewFromFloat(policy.MaxAmount)).InexactFloat64()

	return Verdict{
		Eligible:  true,
		Message:   MsgEligible,
		MaxAmount: &offer,
	}
}
