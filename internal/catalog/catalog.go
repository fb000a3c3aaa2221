// Package catalog holds the loan product definitions every other component
// reads from. A Catalog is immutable once built and safe for concurrent use.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ErrNotArray is returned by Parse when the document is not a JSON array.
var ErrNotArray = errors.New("catalog document must be a JSON array")

const (
	MinCIBIL = 300
	MaxCIBIL = 900
)

// LoanPolicy defines one loan product.
type LoanPolicy struct {
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	MaxAmount    float64 `json:"max_amount"`
	InterestRate float64 `json:"interest_rate"`
	TenureYears  int     `json:"tenure_years"`
	MinAge       int     `json:"min_age"`
	MaxAge       int     `json:"max_age"`
	MinIncome    float64 `json:"min_income"`
	MinCIBIL     int     `json:"min_cibil"`
}

// rawPolicy mirrors LoanPolicy with pointer fields so absent keys can be
// told apart from zero values.
type rawPolicy struct {
	Type         *string  `json:"type"`
	Description  *string  `json:"description"`
	MaxAmount    *float64 `json:"max_amount"`
	InterestRate *float64 `json:"interest_rate"`
	TenureYears  *int     `json:"tenure_years"`
	MinAge       *int     `json:"min_age"`
	MaxAge       *int     `json:"max_age"`
	MinIncome    *float64 `json:"min_income"`
	MinCIBIL     *int     `json:"min_cibil"`
}

func (r rawPolicy) policy() (LoanPolicy, error) {
	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("type", r.Type != nil)
	check("description", r.Description != nil)
	check("max_amount", r.MaxAmount != nil)
	check("interest_rate", r.InterestRate != nil)
	check("tenure_years", r.TenureYears != nil)
	check("min_age", r.MinAge != nil)
	check("max_age", r.MaxAge != nil)
	check("min_income", r.MinIncome != nil)
	check("min_cibil", r.MinCIBIL != nil)
	if len(missing) > 0 {
		return LoanPolicy{}, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	p := LoanPolicy{
		Type:         strings.TrimSpace(*r.Type),
		Description:  *r.Description,
		MaxAmount:    *r.MaxAmount,
		InterestRate: *r.InterestRate,
		TenureYears:  *r.TenureYears,
		MinAge:       *r.MinAge,
		MaxAge:       *r.MaxAge,
		MinIncome:    *r.MinIncome,
		MinCIBIL:     *r.MinCIBIL,
	}
	return p, p.Validate()
}

// Validate checks the policy's field ranges.
func (p LoanPolicy) Validate() error {
	switch {
	case p.Type == "":
		return errors.New("type must not be empty")
	case p.MaxAmount <= 0:
		return fmt.Errorf("max_amount must be positive, got %v", p.MaxAmount)
	case p.InterestRate <= 0:
		return fmt.Errorf("interest_rate must be positive, got %v", p.InterestRate)
	case p.TenureYears <= 0:
		return fmt.Errorf("tenure_years must be positive, got %d", p.TenureYears)
	case p.MinAge < 0 || p.MinAge > p.MaxAge:
		return fmt.Errorf("age range [%d, %d] is invalid", p.MinAge, p.MaxAge)
	case p.MinIncome < 0:
		return fmt.Errorf("min_income must not be negative, got %v", p.MinIncome)
	case p.MinCIBIL < MinCIBIL || p.MinCIBIL > MaxCIBIL:
		return fmt.Errorf("min_cibil must be within [%d, %d], got %d", MinCIBIL, MaxCIBIL, p.MinCIBIL)
	}
	return nil
}

// Catalog is an ordered, read-only set of loan policies with unique types.
type Catalog struct {
	policies []LoanPolicy
	index    map[string]int
}

// New builds a catalog from policies, skipping invalid entries and
// case-insensitive duplicates of an earlier type.
func New(policies ...LoanPolicy) *Catalog {
	c := &Catalog{index: make(map[string]int, len(policies))}
	for i, p := range policies {
		p.Type = strings.TrimSpace(p.Type)
		if err := p.Validate(); err != nil {
			slog.Warn("skipping invalid loan policy", "index", i, "type", p.Type, "error", err)
			continue
		}
		c.add(i, p)
	}
	return c
}

func (c *Catalog) add(i int, p LoanPolicy) {
	key := normalize(p.Type)
	if _, dup := c.index[key]; dup {
		slog.Warn("skipping duplicate loan policy", "index", i, "type", p.Type)
		return
	}
	c.index[key] = len(c.policies)
	c.policies = append(c.policies, p)
}

// Parse decodes a JSON array of policies. Entries that fail to decode or
// validate are skipped and logged; only a malformed document is an error.
func Parse(data []byte) (*Catalog, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if entries == nil {
		return nil, ErrNotArray
	}

	c := &Catalog{index: make(map[string]int, len(entries))}
	for i, entry := range entries {
		var raw rawPolicy
		if err := json.Unmarshal(entry, &raw); err != nil {
			slog.Warn("skipping malformed loan policy", "index", i, "error", err)
			continue
		}
		p, err := raw.policy()
		if err != nil {
			slog.Warn("skipping invalid loan policy", "index", i, "error", err)
			continue
		}
		c.add(i, p)
	}
	return c, nil
}

// Load reads the catalog document at path. A missing or unreadable document
// yields an empty catalog; the failure is logged, never returned.
func Load(path string) *Catalog {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("loan policies file not readable", "path", path, "error", err)
		return New()
	}
	c, err := Parse(data)
	if err != nil {
		slog.Error("error loading loan policies", "path", path, "error", err)
		return New()
	}
	slog.Info("loan catalog loaded", "path", path, "policies", c.Len())
	return c
}

// All returns a copy of the policies in document order.
func (c *Catalog) All() []LoanPolicy {
	out := make([]LoanPolicy, len(c.policies))
	copy(out, c.policies)
	return out
}

// Lookup finds a policy by type, ignoring case and surrounding whitespace.
func (c *Catalog) Lookup(loanType string) (LoanPolicy, bool) {
	i, ok := c.index[normalize(loanType)]
	if !ok {
		return LoanPolicy{}, false
	}
	return c.policies[i], true
}

// Types returns the policy type names in document order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.policies))
	for i, p := range c.policies {
		out[i] = p.Type
	}
	return out
}

func (c *Catalog) Len() int { return len(c.policies) }

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
