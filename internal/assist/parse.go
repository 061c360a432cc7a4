package assist

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Analysis is the structured answer to an error analysis request.
type Analysis struct {
	Cause         string `json:"cause"`
	Fix           string `json:"fix"`
	BestPractices string `json:"bestPractices"`
}

// flexText decodes either a JSON string or a list of strings.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexText(s)
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*f = flexText(strings.Join(list, "\n"))
	return nil
}

type rawAnalysis struct {
	Cause         flexText `json:"cause"`
	Fix           flexText `json:"fix"`
	BestPractices flexText `json:"bestPractices"`
}

// parseAnalysis decodes the span from the first '{' to the last '}' of text.
// Models often wrap JSON in prose or code fences.
func parseAnalysis(text string) (Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Analysis{}, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	a := Analysis{
		Cause:         strings.TrimSpace(string(raw.Cause)),
		Fix:           strings.TrimSpace(string(raw.Fix)),
		BestPractices: strings.TrimSpace(string(raw.BestPractices)),
	}
	if a.Cause == "" && a.Fix == "" && a.BestPractices == "" {
		return Analysis{}, fmt.Errorf("%w: analysis keys missing", ErrMalformedResponse)
	}
	return a, nil
}

// rawTextAnalysis wraps an undecodable answer so the text still reaches the user.
func rawTextAnalysis(text string) Analysis {
	return Analysis{
		Cause:         "Analysis completed",
		Fix:           strings.TrimSpace(text),
		BestPractices: "See detailed analysis above",
	}
}

// complete fills blank fields so every analysis has all three parts.
func (a Analysis) complete(fallback Analysis) Analysis {
	if a.Cause == "" {
		a.Cause = fallback.Cause
	}
	if a.Fix == "" {
		a.Fix = fallback.Fix
	}
	if a.BestPractices == "" {
		a.BestPractices = fallback.BestPractices
	}
	return a
}
