// Package profile turns an applicant's financial snapshot into a "Loan DNA"
// report: five dimension scores, a ten-node visual sequence, three insights
// and a short strategy.
package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	SequenceLength = 10
	InsightCount   = 3
)

// Node types of the DNA sequence alphabet.
const (
	Adenine  = "adenine"
	Thymine  = "thymine"
	Cytosine = "cytosine"
	Guanine  = "guanine"
)

// Input is an applicant's monthly financial snapshot. Money is in rupees.
type Input struct {
	Income           float64 `json:"income"`
	Expenses         float64 `json:"expenses"`
	ExistingEMI      float64 `json:"existing_emi"`
	CIBILScore       int     `json:"cibil_score"`
	Savings          float64 `json:"savings"`
	EmploymentStatus string  `json:"employment_status"`
	Goal             string  `json:"goal"`
}

// fingerprint identifies inputs that must yield the same cached report.
func (in Input) fingerprint() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%v|%v|%v|%d|%v|%s|%s",
		in.Income, in.Expenses, in.ExistingEMI, in.CIBILScore, in.Savings, in.EmploymentStatus, in.Goal)))
	return hex.EncodeToString(sum[:])
}

type Scores struct {
	Spend     int `json:"spend"`
	Save      int `json:"save"`
	Credit    int `json:"credit"`
	Stability int `json:"stability"`
	Growth    int `json:"growth"`
}

type Node struct {
	Type      string  `json:"type"`
	Intensity float64 `json:"intensity"`
}

type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// Report is a validated Loan DNA profile.
type Report struct {
	Scores      Scores    `json:"scores"`
	DNASequence []Node    `json:"dna_sequence"`
	Insights    []Insight `json:"insights"`
	Strategy    string    `json:"strategy"`
}

func (r Report) clone() Report {
	out := r
	out.DNASequence = append([]Node(nil), r.DNASequence...)
	out.Insights = append([]Insight(nil), r.Insights...)
	return out
}

// Fallback is the report returned whenever synthesis fails.
func Fallback() Report {
	seq := make([]Node, SequenceLength)
	for i := range seq {
		seq[i] = Node{Type: Adenine, Intensity: 0.5}
	}
	return Report{
		Scores:      Scores{Spend: 50, Save: 50, Credit: 50, Stability: 50, Growth: 50},
		DNASequence: seq,
		Insights: []Insight{
			{Title: "Error", Description: "Could not connect to AI services.", Impact: "High"},
		},
		Strategy: "I'm having trouble analyzing your DNA right now. Please try again later.",
	}
}
