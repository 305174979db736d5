package assess

import (
	"context"
	"fmt"
	"strings"

	"github.com/casemill/interview-controller/internal/interview"
)

// #region config

// RuleConfig tunes the deterministic keyword assessor.
type RuleConfig struct {
	// MinWords below which an answer is treated as non-substantive.
	MinWords int
}

// DefaultRuleConfig returns the standard thresholds.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{MinWords: 8}
}

// #endregion config

// #region rule-assessor

// RuleAssessor scores a turn by string analysis alone: evidence keyword
// coverage against the unit's expected evidence list, with a length
// floor for non-answers. No model call. Useful for offline runs,
// replay, and tests.
type RuleAssessor struct {
	config RuleConfig
}

// NewRuleAssessor creates a rule assessor with the given config.
func NewRuleAssessor(config RuleConfig) *RuleAssessor {
	return &RuleAssessor{config: config}
}

// Assess implements Assessor deterministically.
func (a *RuleAssessor) Assess(_ context.Context, req Request) (interview.Verdict, error) {
	lower := strings.ToLower(req.CandidateTurn)
	words := strings.Fields(lower)

	var detected []string
	for _, kw := range req.Unit.Evidence {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			detected = append(detected, kw)
		}
	}

	score := scoreFromCoverage(len(detected), len(req.Unit.Evidence))
	if len(words) < a.config.MinWords {
		score = 1
	}

	v := interview.Verdict{
		Score:     score,
		Rationale: fmt.Sprintf("matched %d/%d expected evidence keywords", len(detected), len(req.Unit.Evidence)),
		Evidence:  detected,
		Directive: DirectiveForScore(score),
	}
	switch v.Directive {
	case interview.DirectiveProvideHint:
		v.Hint = req.Unit.Hint
	case interview.DirectiveAddComplexity:
		v.Complexity = req.Unit.Complexity
		v.DataReveal = req.Unit.DataReveal
	}
	return v, nil
}

// scoreFromCoverage maps keyword coverage to the 1-5 scale.
func scoreFromCoverage(matched, expected int) int {
	if expected == 0 {
		return 3
	}
	frac := float64(matched) / float64(expected)
	switch {
	case frac >= 0.9:
		return 5
	case frac >= 0.6:
		return 4
	case frac >= 0.3:
		return 3
	case frac > 0:
		return 2
	}
	return 1
}

// DirectiveForScore is the default score→directive mapping used by the
// scripted implementations: strong answers earn complexity, weak ones
// earn a hint, middling ones proceed.
func DirectiveForScore(score int) interview.Directive {
	switch {
	case score >= 4:
		return interview.DirectiveAddComplexity
	case score <= 2:
		return interview.DirectiveProvideHint
	}
	return interview.DirectiveProceedStandard
}

// #endregion rule-assessor

// #region script-assessor

// ScriptAssessor replays a fixed verdict sequence, one per call. Once
// the script runs out it keeps returning the neutral verdict. Used by
// the replay harness and tests.
type ScriptAssessor struct {
	verdicts []interview.Verdict
	next     int
}

// NewScriptAssessor creates a script assessor over the given verdicts.
func NewScriptAssessor(verdicts []interview.Verdict) *ScriptAssessor {
	return &ScriptAssessor{verdicts: verdicts}
}

// Assess implements Assessor by consuming the script in order.
func (a *ScriptAssessor) Assess(_ context.Context, _ Request) (interview.Verdict, error) {
	if a.next >= len(a.verdicts) {
		return interview.NeutralVerdict(), nil
	}
	v := a.verdicts[a.next]
	a.next++
	return v, nil
}

// #endregion script-assessor
