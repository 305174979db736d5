// Package replay runs scripted sessions from JSON fixtures: fixed
// candidate inputs paired with fixed assessment verdicts, with per-turn
// expectations on the resulting directive, difficulty, and position.
// Operates entirely in-memory; useful for regression runs over the
// state machine without any model in the loop.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/casemill/interview-controller/internal/casespec"
	"github.com/casemill/interview-controller/internal/interview"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a scripted session.
type Fixture struct {
	Description string        `json:"description"`
	Case        casespec.Case `json:"case"`
	CandidateID string        `json:"candidate_id,omitempty"`
	Turns       []FixtureTurn `json:"turns"`
	Final       *FixtureFinal `json:"final,omitempty"`
}

// FixtureTurn pairs one candidate input with the verdict the scripted
// assessor will produce, plus optional expectations.
type FixtureTurn struct {
	CandidateInput string         `json:"candidate_input"`
	Verdict        FixtureVerdict `json:"verdict"`
	Expect         *FixtureExpect `json:"expect,omitempty"`
}

// FixtureVerdict mirrors interview.Verdict with JSON-friendly fields.
type FixtureVerdict struct {
	Score      int      `json:"score"`
	Rationale  string   `json:"rationale,omitempty"`
	Evidence   []string `json:"evidence,omitempty"`
	Directive  string   `json:"directive"`
	Hint       string   `json:"hint,omitempty"`
	Complexity string   `json:"complexity,omitempty"`
	DataReveal string   `json:"data_reveal,omitempty"`
}

// FixtureExpect holds per-turn assertions; nil fields are not checked.
type FixtureExpect struct {
	Directive  *string `json:"directive,omitempty"`
	Difficulty *int    `json:"difficulty,omitempty"`
	UnitIndex  *int    `json:"unit_index,omitempty"`
	ScoreCount *int    `json:"score_count,omitempty"`
	Completed  *bool   `json:"completed,omitempty"`
}

// FixtureFinal holds end-of-run assertions.
type FixtureFinal struct {
	Completed bool     `json:"completed"`
	Aggregate *float64 `json:"aggregate,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.Case.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToVerdict converts a fixture verdict to the domain type.
func (v FixtureVerdict) ToVerdict() interview.Verdict {
	return interview.Verdict{
		Score:      v.Score,
		Rationale:  v.Rationale,
		Evidence:   v.Evidence,
		Directive:  interview.Directive(v.Directive),
		Hint:       v.Hint,
		Complexity: v.Complexity,
		DataReveal: v.DataReveal,
	}
}

// #endregion fixture-loader
