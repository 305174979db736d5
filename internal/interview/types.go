// Package interview defines the session state model: the InterviewState
// aggregate, the closed Phase and Directive enumerations, the append-only
// conversation log and scoring ledger, and the invariants that bind them.
package interview

import "time"

// #region phase

// Phase is the enumerated interview phase. Phases are ordered and
// monotonic except for explicit repeats of the active unit.
type Phase string

const (
	PhaseIntro       Phase = "INTRO"
	PhaseStructuring Phase = "STRUCTURING"
	PhaseAnalysis    Phase = "ANALYSIS"
	PhaseCalculation Phase = "CALCULATION"
	PhaseSynthesis   Phase = "SYNTHESIS"
	PhaseComplete    Phase = "COMPLETE"
)

// ParsePhase maps a phase tag to its enum value.
func ParsePhase(s string) (Phase, bool) {
	switch Phase(s) {
	case PhaseIntro, PhaseStructuring, PhaseAnalysis, PhaseCalculation, PhaseSynthesis, PhaseComplete:
		return Phase(s), true
	}
	return "", false
}

// #endregion phase

// #region directive

// Directive is the enumerated instruction from assessment to response
// generation. Unknown values from an external function never survive
// past the controller's coercion step.
type Directive string

const (
	DirectiveProvideHint      Directive = "PROVIDE_HINT"
	DirectiveProceedStandard  Directive = "PROCEED_STANDARD"
	DirectiveAddComplexity    Directive = "ADD_COMPLEXITY"
	DirectiveRepeatSimplified Directive = "REPEAT_SIMPLIFIED"
	DirectiveMoveToNextPhase  Directive = "MOVE_TO_NEXT_PHASE"
	DirectiveEndInterview     Directive = "END_INTERVIEW"
)

// ParseDirective maps a directive string to its enum value.
func ParseDirective(s string) (Directive, bool) {
	switch Directive(s) {
	case DirectiveProvideHint, DirectiveProceedStandard, DirectiveAddComplexity,
		DirectiveRepeatSimplified, DirectiveMoveToNextPhase, DirectiveEndInterview:
		return Directive(s), true
	}
	return "", false
}

// AdvancesUnit reports whether the directive moves the unit index
// forward by one. Hint and repeat revisit the same unit.
func (d Directive) AdvancesUnit() bool {
	switch d {
	case DirectiveProceedStandard, DirectiveAddComplexity, DirectiveMoveToNextPhase:
		return true
	}
	return false
}

// #endregion directive

// #region turn

// Role tags a conversation turn.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// Turn is one entry in the append-only conversation log. Insertion
// order is canonical: the last candidate turn is the subject of the
// next assessment.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion turn

// #region verdict

// Verdict is the structured output of one assessment call.
type Verdict struct {
	Score     int       `json:"score"`
	Rationale string    `json:"rationale"`
	Evidence  []string  `json:"evidence"`
	Directive Directive `json:"directive"`

	// Optional payloads surfaced to the response function.
	Hint       string `json:"hint,omitempty"`
	Complexity string `json:"complexity,omitempty"`
	DataReveal string `json:"data_reveal,omitempty"`
}

// NeutralVerdict is the fail-open substitute used whenever an
// assessment cannot be trusted: a middle score and a standard advance,
// so one malformed assessment never aborts a session.
func NeutralVerdict() Verdict {
	return Verdict{Score: 3, Directive: DirectiveProceedStandard}
}

// Valid reports whether the verdict satisfies the assessment contract:
// score in [1,5] and a known directive.
func (v Verdict) Valid() bool {
	if v.Score < 1 || v.Score > 5 {
		return false
	}
	_, ok := ParseDirective(string(v.Directive))
	return ok
}

// #endregion verdict

// #region score-record

// ScoreRecord is one row of the append-only scoring ledger.
// DifficultyAtTime captures the level in effect when the record was
// appended, before the adjustment it triggered.
type ScoreRecord struct {
	UnitID           string    `json:"unit_id"`
	Phase            Phase     `json:"phase"`
	Score            int       `json:"score"`
	Rationale        string    `json:"rationale"`
	Evidence         []string  `json:"evidence"`
	DifficultyAtTime int       `json:"difficulty_at_time"`
	CreatedAt        time.Time `json:"created_at"`
}

// #endregion score-record
