package interview

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/casemill/interview-controller/internal/casespec"
)

// #region constants

// DefaultDifficulty is the baseline adaptive level for a new session.
const DefaultDifficulty = 3

// MinDifficulty and MaxDifficulty bound the adaptive level at all times.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// #endregion constants

// #region state

// State is the single mutable session aggregate. It is owned by the
// session controller for the session's lifetime; every other component
// sees an immutable Snapshot.
type State struct {
	// Identity. Immutable after creation.
	SessionID   string
	CaseID      string
	CandidateID string
	StartedAt   time.Time

	// Case content. Loaded once, read-only thereafter.
	Case *casespec.Case

	// Position.
	Phase      Phase
	UnitIndex  int
	Difficulty int

	// Append-only logs.
	Transcript []Turn
	Ledger     []ScoreRecord

	// Transient inter-agent handoff, cleared after the response
	// function consumes it.
	LastVerdict       *Verdict
	NextDirective     Directive
	PendingHint       string
	PendingComplexity string
	PendingDataReveal string

	// Terminal fields. Set exactly once.
	Completed    bool
	Interrupted  bool
	FinalScore   *float64
	FinalSummary string
}

// #endregion state

// #region constructor

// New creates a fresh session state from a validated case definition.
// It re-validates the case and resolves every unit's phase tag, so a
// malformed definition fails here and never surfaces mid-session.
func New(c *casespec.Case, candidateID string, now time.Time) (*State, error) {
	if c == nil {
		return nil, fmt.Errorf("new session: nil case")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	for _, u := range c.Units {
		if _, ok := ParsePhase(u.Phase); !ok {
			return nil, fmt.Errorf("new session: case %s unit %s: unknown phase %q", c.ID, u.ID, u.Phase)
		}
	}

	difficulty := c.StartingDifficulty
	if difficulty == 0 {
		difficulty = DefaultDifficulty
	}

	phase, _ := ParsePhase(c.Units[0].Phase)
	return &State{
		SessionID:   uuid.New().String(),
		CaseID:      c.ID,
		CandidateID: candidateID,
		StartedAt:   now.UTC(),
		Case:        c,
		Phase:       phase,
		UnitIndex:   0,
		Difficulty:  difficulty,
	}, nil
}

// #endregion constructor

// #region position

// ActiveUnit returns the unit at the current index, or false when the
// sequence is exhausted.
func (s *State) ActiveUnit() (casespec.Unit, bool) {
	if s.Exhausted() {
		return casespec.Unit{}, false
	}
	return s.Case.Units[s.UnitIndex], true
}

// Exhausted reports whether the unit sequence has been consumed.
func (s *State) Exhausted() bool {
	return s.UnitIndex >= len(s.Case.Units)
}

// AdvanceUnit moves the index forward by one and adopts the next
// unit's declared phase when one exists. The index never exceeds the
// sequence length.
func (s *State) AdvanceUnit() {
	if s.Exhausted() {
		return
	}
	s.UnitIndex++
	if u, ok := s.ActiveUnit(); ok {
		if p, valid := ParsePhase(u.Phase); valid {
			s.Phase = p
		}
	} else {
		s.Phase = PhaseComplete
	}
}

// #endregion position

// #region transcript

// AppendCandidate appends a candidate turn to the conversation log.
func (s *State) AppendCandidate(content string, now time.Time) {
	s.Transcript = append(s.Transcript, Turn{Role: RoleCandidate, Content: content, CreatedAt: now.UTC()})
}

// AppendInterviewer appends an interviewer turn to the conversation log.
func (s *State) AppendInterviewer(content string, now time.Time) {
	s.Transcript = append(s.Transcript, Turn{Role: RoleInterviewer, Content: content, CreatedAt: now.UTC()})
}

// LastInterviewerMessage returns the most recent interviewer turn.
func (s *State) LastInterviewerMessage() string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == RoleInterviewer {
			return s.Transcript[i].Content
		}
	}
	return ""
}

// CandidateTurns counts candidate entries in the conversation log.
func (s *State) CandidateTurns() int {
	n := 0
	for _, t := range s.Transcript {
		if t.Role == RoleCandidate {
			n++
		}
	}
	return n
}

// #endregion transcript

// #region ledger

// RecentScores returns the last n ledger records, newest last.
func (s *State) RecentScores(n int) []ScoreRecord {
	if n <= 0 || len(s.Ledger) == 0 {
		return nil
	}
	start := len(s.Ledger) - n
	if start < 0 {
		start = 0
	}
	out := make([]ScoreRecord, len(s.Ledger)-start)
	copy(out, s.Ledger[start:])
	return out
}

// UnitsScored counts distinct unit ids in the ledger.
func (s *State) UnitsScored() int {
	seen := make(map[string]bool, len(s.Ledger))
	for _, r := range s.Ledger {
		seen[r.UnitID] = true
	}
	return len(seen)
}

// Aggregate returns the arithmetic mean of all recorded scores. The
// second return is false for an empty ledger: an absent aggregate is
// reported as absent, never as zero.
func (s *State) Aggregate() (float64, bool) {
	if len(s.Ledger) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range s.Ledger {
		sum += r.Score
	}
	return float64(sum) / float64(len(s.Ledger)), true
}

// WeightedAggregate computes a phase-weighted mean using the supplied
// weights (missing phases weigh 1). It is an optional extension; the
// controller's terminal aggregate is always the plain mean.
func WeightedAggregate(records []ScoreRecord, weights map[Phase]float64) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}
	var sum, total float64
	for _, r := range records {
		w, ok := weights[r.Phase]
		if !ok {
			w = 1
		}
		sum += float64(r.Score) * w
		total += w
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}

// #endregion ledger

// #region pending

// ClearPending resets the write-once-read-once handoff fields after
// the response function has consumed them.
func (s *State) ClearPending() {
	s.PendingHint = ""
	s.PendingComplexity = ""
	s.PendingDataReveal = ""
}

// #endregion pending

// #region snapshot

// Snapshot is an immutable view of a session handed to the assessment
// and response functions. Slices are copies; the case pointer is
// shared because case content is read-only by construction.
type Snapshot struct {
	SessionID   string
	CaseID      string
	CandidateID string
	StartedAt   time.Time

	Case *casespec.Case

	Phase      Phase
	UnitIndex  int
	Difficulty int

	Transcript []Turn
	Ledger     []ScoreRecord

	Completed    bool
	Interrupted  bool
	FinalScore   *float64
	FinalSummary string
}

// Snapshot produces an immutable copy of the state's observable fields.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:    s.SessionID,
		CaseID:       s.CaseID,
		CandidateID:  s.CandidateID,
		StartedAt:    s.StartedAt,
		Case:         s.Case,
		Phase:        s.Phase,
		UnitIndex:    s.UnitIndex,
		Difficulty:   s.Difficulty,
		Completed:    s.Completed,
		Interrupted:  s.Interrupted,
		FinalSummary: s.FinalSummary,
	}
	if s.FinalScore != nil {
		v := *s.FinalScore
		snap.FinalScore = &v
	}
	snap.Transcript = make([]Turn, len(s.Transcript))
	copy(snap.Transcript, s.Transcript)
	snap.Ledger = make([]ScoreRecord, len(s.Ledger))
	copy(snap.Ledger, s.Ledger)
	return snap
}

// #endregion snapshot
