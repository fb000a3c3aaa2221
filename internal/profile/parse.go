package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoJSON        = errors.New("no JSON object in response")
	ErrInvalidReport = errors.New("invalid report")
)

// Pointer fields let the decoder tell a missing key from a zero value.
type rawReport struct {
	Scores *struct {
		Spend     *int `json:"spend"`
		Save      *int `json:"save"`
		Credit    *int `json:"credit"`
		Stability *int `json:"stability"`
		Growth    *int `json:"growth"`
	} `json:"scores"`
	DNASequence []struct {
		Type      *string  `json:"type"`
		Intensity *float64 `json:"intensity"`
	} `json:"dna_sequence"`
	Insights []struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Impact      *string `json:"impact"`
	} `json:"insights"`
	Strategy *string `json:"strategy"`
}

// ParseReport extracts and validates a report from raw model output. Code
// fences, any prose around the outermost JSON object, and keys outside the
// report shape are ignored.
func ParseReport(raw string) (Report, error) {
	body, err := extractObject(raw)
	if err != nil {
		return Report{}, err
	}

	var r rawReport
	if err := json.Unmarshal(body, &r); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	return r.validate()
}

func extractObject(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSON
	}
	return []byte(s[start : end+1]), nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidReport, fmt.Sprintf(format, args...))
}

func (r rawReport) validate() (Report, error) {
	var out Report

	if r.Scores == nil {
		return out, invalid("missing scores")
	}
	for _, s := range []struct {
		name string
		v    *int
		dst  *int
	}{
		{"spend", r.Scores.Spend, &out.Scores.Spend},
		{"save", r.Scores.Save, &out.Scores.Save},
		{"credit", r.Scores.Credit, &out.Scores.Credit},
		{"stability", r.Scores.Stability, &out.Scores.Stability},
		{"growth", r.Scores.Growth, &out.Scores.Growth},
	} {
		if s.v == nil {
			return out, invalid("missing score %q", s.name)
		}
		if *s.v < 0 || *s.v > 100 {
			return out, invalid("score %q out of range: %d", s.name, *s.v)
		}
		*s.dst = *s.v
	}

	if len(r.DNASequence) != SequenceLength {
		return out, invalid("dna_sequence has %d nodes, want %d", len(r.DNASequence), SequenceLength)
	}
	out.DNASequence = make([]Node, SequenceLength)
	for i, n := range r.DNASequence {
		if n.Type == nil || n.Intensity == nil {
			return out, invalid("dna node %d incomplete", i)
		}
		switch *n.Type {
		case Adenine, Thymine, Cytosine, Guanine:
		default:
			return out, invalid("dna node %d has unknown type %q", i, *n.Type)
		}
		if *n.Intensity < 0.1 || *n.Intensity > 1.0 {
			return out, invalid("dna node %d intensity out of range: %v", i, *n.Intensity)
		}
		out.DNASequence[i] = Node{Type: *n.Type, Intensity: *n.Intensity}
	}

	if len(r.Insights) != InsightCount {
		return out, invalid("got %d insights, want %d", len(r.Insights), InsightCount)
	}
	out.Insights = make([]Insight, InsightCount)
	for i, in := range r.Insights {
		if in.Title == nil || in.Description == nil || in.Impact == nil {
			return out, invalid("insight %d incomplete", i)
		}
		out.Insights[i] = Insight{Title: *in.Title, Description: *in.Description, Impact: *in.Impact}
	}

	if r.Strategy == nil || strings.TrimSpace(*r.Strategy) == "" {
		return out, invalid("missing strategy")
	}
	out.Strategy = *r.Strategy
	return out, nil
}
