package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/casemill/interview-controller/internal/interview"
)

// ErrUnparseableVerdict marks an assessor reply that could not be
// decoded. The controller substitutes the neutral default on it.
var ErrUnparseableVerdict = errors.New("unparseable verdict")

type verdictPayload struct {
	Score      int      `json:"score"`
	Rationale  string   `json:"rationale"`
	Evidence   []string `json:"evidence"`
	Directive  string   `json:"directive"`
	Hint       string   `json:"hint"`
	Complexity string   `json:"complexity"`
	DataReveal string   `json:"data_reveal"`
}

// ParseVerdict decodes an assessor reply. Markdown code fences are
// stripped first; models wrap JSON in them routinely. The directive is
// carried through as-is — range and enum enforcement stays with the
// controller, which coerces out-of-contract verdicts to the neutral
// default regardless of what any backend returns.
func ParseVerdict(text string) (interview.Verdict, error) {
	cleaned := StripFences(text)
	var p verdictPayload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return interview.Verdict{}, fmt.Errorf("%w: %v", ErrUnparseableVerdict, err)
	}
	return interview.Verdict{
		Score:      p.Score,
		Rationale:  p.Rationale,
		Evidence:   p.Evidence,
		Directive:  interview.Directive(strings.ToUpper(strings.TrimSpace(p.Directive))),
		Hint:       p.Hint,
		Complexity: p.Complexity,
		DataReveal: p.DataReveal,
	}, nil
}

// StripFences removes a surrounding markdown code fence, with or
// without a language tag.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}
