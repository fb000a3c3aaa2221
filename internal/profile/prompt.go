package profile

import (
	"fmt"
	"strconv"

	"github.com/kalambet/loanbot/internal/engine"
)

const promptTemplate = `You are a high-end financial geneticist. Your job is to transform a user's financial inputs into a "Loan DNA" profile.

User Financial Profile:
- Monthly Income: ₹%s
- Monthly Expenses: ₹%s
- Existing EMI: ₹%s
- CIBIL Score: %d
- Savings: ₹%s
- Employment: %s
- Primary Goal: %s

Requirements:
1. Score the user (0-100, integers) on 5 dimensions: Spend, Save, Credit, Stability, Growth.
2. Generate a "DNA Sequence" for visualization. This must be a list of exactly 10 nodes, each with:
   - type: "adenine" | "thymine" | "cytosine" | "guanine"
   - intensity: 0.1 to 1.0 (float)
3. Provide exactly 3 deep insight cards (Title, Description, Impact).
4. Write a concise, strategic loan strategy (max 3 sentences).

Response MUST be valid JSON matching this schema, with no other text:
{
  "scores": { "spend": int, "save": int, "credit": int, "stability": int, "growth": int },
  "dna_sequence": [ { "type": string, "intensity": float }, ... ],
  "insights": [ { "title": string, "description": string, "impact": string }, ... ],
  "strategy": string
}

BE PROFESSIONAL, INSIGHTFUL, AND BRUTALLY HONEST.
`

// BuildPrompt renders the synthesis instructions for in.
func BuildPrompt(in Input) string {
	return fmt.Sprintf(promptTemplate,
		money(in.Income), money(in.Expenses), money(in.ExistingEMI),
		in.CIBILScore, money(in.Savings), in.EmploymentStatus, in.Goal,
	)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ptr[T any](v T) *T { return &v }

// reportSchema is sent to backends that support structured output.
func reportSchema() *engine.Schema {
	score := &engine.Schema{Type: "integer", Minimum: ptr(0.0), Maximum: ptr(100.0)}
	text := &engine.Schema{Type: "string"}

	return &engine.Schema{
		Type: "object",
		Properties: map[string]*engine.Schema{
			"scores": {
				Type: "object",
				Properties: map[string]*engine.Schema{
					"spend": score, "save": score, "credit": score, "stability": score, "growth": score,
				},
				Required: []string{"spend", "save", "credit", "stability", "growth"},
			},
			"dna_sequence": {
				Type:     "array",
				MinItems: ptr(SequenceLength),
				MaxItems: ptr(SequenceLength),
				Items: &engine.Schema{
					Type: "object",
					Properties: map[string]*engine.Schema{
						"type":      {Type: "string", Enum: []string{Adenine, Thymine, Cytosine, Guanine}},
						"intensity": {Type: "number", Minimum: ptr(0.1), Maximum: ptr(1.0)},
					},
					Required: []string{"type", "intensity"},
				},
			},
			"insights": {
				Type:     "array",
				MinItems: ptr(InsightCount),
				MaxItems: ptr(InsightCount),
				Items: &engine.Schema{
					Type:       "object",
					Properties: map[string]*engine.Schema{"title": text, "description": text, "impact": text},
					Required:   []string{"title", "description", "impact"},
				},
			},
			"strategy": text,
		},
		Required: []string{"scores", "dna_sequence", "insights", "strategy"},
	}
}
