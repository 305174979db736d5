// Package director holds the hard-constraint check: a pure, idempotent
// function of session state that decides whether a session may continue
// and how urgently it should be wrapped up.
package director

import (
	"time"

	"github.com/casemill/interview-controller/internal/interview"
)

// #region limits

// Limits are the hard session constraints. Zero values take defaults.
type Limits struct {
	MaxDuration  time.Duration
	MaxExchanges int
}

// Session limit defaults, matching a standard half-hour interview slot.
const (
	DefaultMaxDuration  = 30 * time.Minute
	DefaultMaxExchanges = 15
)

// withDefaults fills zero fields.
func (l Limits) withDefaults() Limits {
	if l.MaxDuration <= 0 {
		l.MaxDuration = DefaultMaxDuration
	}
	if l.MaxExchanges <= 0 {
		l.MaxExchanges = DefaultMaxExchanges
	}
	return l
}

// FromCase derives limits from a case's constraint block, falling back
// to defaults for unset fields.
func FromCase(s *interview.State) Limits {
	l := Limits{}
	if s != nil && s.Case != nil {
		c := s.Case.Constraints
		l.MaxDuration = time.Duration(c.MaxDurationMinutes) * time.Minute
		l.MaxExchanges = c.MaxExchanges
	}
	return l.withDefaults()
}

// #endregion limits

// #region decision

// Reason identifies which constraint stopped a session.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonCompleted Reason = "session already complete"
	ReasonExhausted Reason = "unit sequence exhausted"
	ReasonTimeLimit Reason = "time limit reached"
	ReasonExchanges Reason = "maximum units processed"
)

// Urgency is advisory pacing guidance for the response function. It
// never alters the transition table.
type Urgency string

const (
	UrgencyNormal     Urgency = "normal"
	UrgencyWrapUpSoon Urgency = "wrap_up_soon"
	UrgencyMustEnd    Urgency = "must_end"
)

// Decision is the outcome of one constraint check.
type Decision struct {
	Continue bool
	Reason   Reason
	Urgency  Urgency
}

// #endregion decision

// #region check

// Check evaluates the hard constraints in order, short-circuiting on
// the first that matches: completed, exhausted, time limit, unit
// count. It has no side effects and is safe to call repeatedly.
func Check(s *interview.State, limits Limits, now time.Time) Decision {
	limits = limits.withDefaults()

	if s.Completed {
		return Decision{Continue: false, Reason: ReasonCompleted, Urgency: UrgencyMustEnd}
	}
	if s.Exhausted() {
		return Decision{Continue: false, Reason: ReasonExhausted, Urgency: UrgencyMustEnd}
	}

	elapsed := now.Sub(s.StartedAt)
	if elapsed >= limits.MaxDuration {
		return Decision{Continue: false, Reason: ReasonTimeLimit, Urgency: UrgencyMustEnd}
	}
	if s.UnitsScored() >= limits.MaxExchanges {
		return Decision{Continue: false, Reason: ReasonExchanges, Urgency: UrgencyMustEnd}
	}

	return Decision{Continue: true, Urgency: urgency(s, limits, elapsed)}
}

// urgency grades how much headroom remains before a hard limit fires.
func urgency(s *interview.State, limits Limits, elapsed time.Duration) Urgency {
	timeLeft := limits.MaxDuration - elapsed
	unitsLeft := limits.MaxExchanges - s.UnitsScored()

	switch {
	case timeLeft <= 3*time.Minute || unitsLeft <= 2:
		return UrgencyMustEnd
	case timeLeft <= 8*time.Minute || unitsLeft <= 4:
		return UrgencyWrapUpSoon
	}
	return UrgencyNormal
}

// #endregion check
