package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/kalambet/loanbot/internal/catalog"
)

const (
	greetingReply = "Hello! I'm your Loan Assistant. Ask me about our loan types, interest rates, eligibility or EMI calculations."
	unknownReply  = "I'm sorry, I didn't quite understand. You can ask me about loan types, interest rates, eligibility or EMI calculations."
	emiReply      = "EMI = [P x R x (1+R)^N] / [(1+R)^N - 1], where P is the principal, R the monthly interest rate (annual rate / 12 / 100) and N the number of monthly installments. Use the EMI calculator for exact figures."
	noLoansReply  = "We don't have any loan products available right now. Please check back later."
)

var (
	greetingWords    = []string{"hello", "hi", "hey", "namaste", "greetings"}
	typeWords        = []string{"type", "types", "loan", "loans", "products", "offer", "options"}
	rateWords        = []string{"interest", "rate", "rates", "roi"}
	eligibilityWords = []string{"eligible", "eligibility", "qualify", "criteria", "requirements"}
	emiWords         = []string{"emi", "emis", "installment", "instalment", "repayment"}
)

// RuleResponder answers from the catalog by keyword matching. It needs no
// remote service and never fails, so it also serves as the offline mode.
type RuleResponder struct {
	catalog *catalog.Catalog
}

func NewRuleResponder(c *catalog.Catalog) *RuleResponder {
	return &RuleResponder{catalog: c}
}

func (r *RuleResponder) Reply(_ context.Context, history []Turn) (string, error) {
	var msg string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			msg = history[i].Content
			break
		}
	}
	words := tokenize(msg)
	if len(words) == 0 {
		return unknownReply, nil
	}
	phrase := " " + strings.Join(words, " ") + " "

	for _, p := range r.catalog.All() {
		if strings.Contains(phrase, " "+strings.Join(tokenize(p.Type), " ")+" ") {
			return describePolicy(p), nil
		}
	}

	switch {
	case hasAny(words, rateWords):
		return r.rates(), nil
	case hasAny(words, eligibilityWords):
		return r.eligibility(), nil
	case hasAny(words, emiWords):
		return emiReply, nil
	case hasAny(words, typeWords):
		return r.types(), nil
	case hasAny(words, greetingWords):
		return greetingReply, nil
	}
	return unknownReply, nil
}

func (r *RuleResponder) types() string {
	if r.catalog.Len() == 0 {
		return noLoansReply
	}
	return fmt.Sprintf("We offer %s loans. Ask me about any of them for rates, tenure and eligibility.", joinList(r.catalog.Types()))
}

func (r *RuleResponder) rates() string {
	if r.catalog.Len() == 0 {
		return noLoansReply
	}
	parts := make([]string, 0, r.catalog.Len())
	for _, p := range r.catalog.All() {
		parts = append(parts, fmt.Sprintf("%s %s%%", p.Type, formatRate(p.InterestRate)))
	}
	return "Our current annual interest rates are: " + joinList(parts) + "."
}

func (r *RuleResponder) eligibility() string {
	if r.catalog.Len() == 0 {
		return noLoansReply
	}
	return "Eligibility depends on your age, monthly income and CIBIL score, and each loan type has its own limits. " +
		"Tell me which loan you're interested in, or use the eligibility checker for an instant answer."
}

func describePolicy(p catalog.LoanPolicy) string {
	return fmt.Sprintf(
		"%s loan: %s Interest starts at %s%% p.a. with tenure up to %d years and amounts up to %s. "+
			"Applicants must be %d-%d years old with a monthly income of at least %s and a CIBIL score of %d or more.",
		p.Type, ensureSentence(p.Description), formatRate(p.InterestRate), p.TenureYears, FormatRupees(p.MaxAmount),
		p.MinAge, p.MaxAge, FormatRupees(p.MinIncome), p.MinCIBIL,
	)
}

// FormatRupees renders an amount with Indian digit grouping, e.g. ₹15,00,000.
func FormatRupees(v float64) string {
	s := decimal.NewFromFloat(v).Round(0).String()
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		s = strings.Join(groups, ",") + "," + tail
	}
	if neg {
		return "-₹" + s
	}
	return "₹" + s
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ensureSentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}

// joinList renders "a", "a and b", or "a, b, and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasAny(words, candidates []string) bool {
	for _, w := range words {
		for _, c := range candidates {
			if w == c {
				return true
			}
		}
	}
	return false
}
