// Package controller implements the session state machine: the single
// authority that advances an InterviewState in response to one
// candidate turn, enforcing every invariant along the way.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/casemill/interview-controller/internal/assess"
	"github.com/casemill/interview-controller/internal/director"
	"github.com/casemill/interview-controller/internal/interview"
)

// #region errors

var (
	// ErrSessionComplete rejects turns arriving after the completion
	// flag was set. Caller misuse, not retried.
	ErrSessionComplete = errors.New("session already complete")

	// ErrAlreadyStarted rejects a second Start call for one session.
	ErrAlreadyStarted = errors.New("session already started")
)

// InterruptedMessage is the generic closing shown to the candidate
// when the response function fails terminally. Assessment internals
// are never surfaced outward.
const InterruptedMessage = "I'm sorry, we'll have to pause the interview here. Thank you for your time."

// #endregion errors

// #region recorder

// Recorder receives audit events from the controller: fail-open
// substitutions, forced terminations, interruptions. The ledger store
// implements it; the default discards.
type Recorder interface {
	Event(sessionID, kind, detail string)
}

// Event kinds written to the audit trail.
const (
	EventFailOpen    = "fail_open"
	EventForcedEnd   = "forced_end"
	EventInterrupted = "interrupted"
	EventCompleted   = "completed"
)

type nopRecorder struct{}

func (nopRecorder) Event(string, string, string) {}

// #endregion recorder

// #region controller

// Config wires a controller. Assessor and Responder are required;
// everything else has defaults.
type Config struct {
	Assessor  assess.Assessor
	Responder assess.Responder

	// Limits override a case's own constraint block when set.
	Limits director.Limits

	// RecentWindow is how many trailing score records the assessor
	// sees. Default 5.
	RecentWindow int

	// CallTimeout bounds each assessment/response call. Default 30s.
	CallTimeout time.Duration

	Recorder Recorder
	Log      *zap.Logger

	// Now is injectable for tests. Default time.Now.
	Now func() time.Time
}

// Controller owns turn processing for any number of sessions. It holds
// no per-session state itself; the State aggregate is passed in.
type Controller struct {
	assessor     assess.Assessor
	responder    assess.Responder
	limits       director.Limits
	recentWindow int
	callTimeout  time.Duration
	recorder     Recorder
	log          *zap.Logger
	now          func() time.Time
}

// New creates a controller from the given config.
func New(cfg Config) (*Controller, error) {
	if cfg.Assessor == nil {
		return nil, fmt.Errorf("controller: assessor required")
	}
	if cfg.Responder == nil {
		return nil, fmt.Errorf("controller: responder required")
	}
	c := &Controller{
		assessor:     cfg.Assessor,
		responder:    cfg.Responder,
		limits:       cfg.Limits,
		recentWindow: cfg.RecentWindow,
		callTimeout:  cfg.CallTimeout,
		recorder:     cfg.Recorder,
		log:          cfg.Log,
		now:          cfg.Now,
	}
	if c.recentWindow <= 0 {
		c.recentWindow = 5
	}
	if c.callTimeout <= 0 {
		c.callTimeout = 30 * time.Second
	}
	if c.recorder == nil {
		c.recorder = nopRecorder{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// effectiveLimits resolves per-session limits: controller overrides
// win over the case's constraint block.
func (c *Controller) effectiveLimits(s *interview.State) director.Limits {
	limits := director.FromCase(s)
	if c.limits.MaxDuration > 0 {
		limits.MaxDuration = c.limits.MaxDuration
	}
	if c.limits.MaxExchanges > 0 {
		limits.MaxExchanges = c.limits.MaxExchanges
	}
	return limits
}

// #endregion controller

// #region start

// Start produces the opening message: a special zero-input call to the
// response function. Callable exactly once per session.
func (c *Controller) Start(ctx context.Context, s *interview.State) (string, error) {
	if s.Completed {
		return "", ErrSessionComplete
	}
	if len(s.Transcript) > 0 {
		return "", ErrAlreadyStarted
	}

	msg, err := c.respond(ctx, s, assess.ResponderRequest{
		Snapshot:  s.Snapshot(),
		Directive: interview.DirectiveProceedStandard,
		Urgency:   string(director.UrgencyNormal),
		Opening:   true,
	})
	if err != nil {
		c.interrupt(s, err)
		return InterruptedMessage, nil
	}
	s.AppendInterviewer(msg, c.now())
	return msg, nil
}

// #endregion start

// #region process-turn

// ProcessTurn advances the session by one candidate turn: append the
// turn, assess it (fail-open), adjust difficulty, apply the directive's
// index transition, enforce hard constraints, and produce the next
// outward message.
func (c *Controller) ProcessTurn(ctx context.Context, s *interview.State, candidateInput string) (string, error) {
	if s.Completed {
		return "", ErrSessionComplete
	}

	s.AppendCandidate(candidateInput, c.now())

	directive := interview.DirectiveEndInterview
	urgency := director.UrgencyMustEnd

	if !s.Exhausted() {
		directive, urgency = c.assessAndAdvance(ctx, s)
	}
	s.NextDirective = directive

	if directive == interview.DirectiveEndInterview {
		c.finalize(s)
	}

	msg, err := c.respond(ctx, s, assess.ResponderRequest{
		Snapshot:   s.Snapshot(),
		Directive:  directive,
		Hint:       s.PendingHint,
		Complexity: s.PendingComplexity,
		DataReveal: s.PendingDataReveal,
		Urgency:    string(urgency),
	})
	if err != nil {
		c.interrupt(s, err)
		return InterruptedMessage, nil
	}

	s.AppendInterviewer(msg, c.now())
	s.ClearPending()
	return msg, nil
}

// assessAndAdvance runs steps 3-5 for a turn with an active unit and
// returns the resolved directive plus pacing urgency.
func (c *Controller) assessAndAdvance(ctx context.Context, s *interview.State) (interview.Directive, director.Urgency) {
	unit, _ := s.ActiveUnit()

	verdict := c.runAssessment(ctx, s, assess.Request{
		Phase:         s.Phase,
		Difficulty:    s.Difficulty,
		Unit:          unit,
		Facts:         s.Case.Facts,
		CandidateTurn: lastCandidate(s),
		RecentScores:  s.RecentScores(c.recentWindow),
	})

	// Ledger first: the record carries the difficulty that produced
	// the score, not the adjusted one.
	s.Ledger = append(s.Ledger, interview.ScoreRecord{
		UnitID:           unit.ID,
		Phase:            s.Phase,
		Score:            verdict.Score,
		Rationale:        verdict.Rationale,
		Evidence:         verdict.Evidence,
		DifficultyAtTime: s.Difficulty,
		CreatedAt:        c.now(),
	})
	c.adjustDifficulty(s, verdict.Score)

	s.LastVerdict = &verdict
	s.PendingHint = verdict.Hint
	s.PendingComplexity = verdict.Complexity
	s.PendingDataReveal = verdict.DataReveal

	directive := verdict.Directive
	if directive.AdvancesUnit() {
		s.AdvanceUnit()
	}

	// Hard constraints. Sequence exhaustion closes at the top of the
	// next turn; time and unit-count limits interrupt immediately,
	// overriding whatever the assessor decided.
	dec := director.Check(s, c.effectiveLimits(s), c.now())
	if !dec.Continue && dec.Reason != director.ReasonExhausted {
		c.log.Info("hard constraint forced session end",
			zap.String("session_id", s.SessionID),
			zap.String("reason", string(dec.Reason)))
		c.recorder.Event(s.SessionID, EventForcedEnd, string(dec.Reason))
		return interview.DirectiveEndInterview, director.UrgencyMustEnd
	}
	return directive, dec.Urgency
}

// #endregion process-turn

// #region assessment

// runAssessment invokes the assessment function and enforces its
// contract. Any failure — error, timeout, out-of-range score, unknown
// directive — substitutes the neutral default verdict. Fail-open:
// logged as a quality signal, never fatal to the turn.
func (c *Controller) runAssessment(ctx context.Context, s *interview.State, req assess.Request) interview.Verdict {
	actx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	v, err := c.assessor.Assess(actx, req)
	if err == nil && v.Valid() {
		return v
	}

	detail := "out-of-contract verdict"
	if err != nil {
		detail = err.Error()
	}
	c.log.Warn("assessment failed, substituting neutral verdict",
		zap.String("session_id", s.SessionID),
		zap.String("unit_id", req.Unit.ID),
		zap.String("detail", detail))
	c.recorder.Event(s.SessionID, EventFailOpen, detail)
	return interview.NeutralVerdict()
}

// adjustDifficulty applies the monotone, bounded, single-step rule.
func (c *Controller) adjustDifficulty(s *interview.State, score int) {
	switch {
	case score >= 4:
		if s.Difficulty < interview.MaxDifficulty {
			s.Difficulty++
		}
	case score <= 2:
		if s.Difficulty > interview.MinDifficulty {
			s.Difficulty--
		}
	}
}

// #endregion assessment

// #region response

// respond invokes the response function, retrying at most once with
// the same directive before giving up.
func (c *Controller) respond(ctx context.Context, s *interview.State, req assess.ResponderRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		rctx, cancel := context.WithTimeout(ctx, c.callTimeout)
		msg, err := c.responder.Respond(rctx, req)
		cancel()
		if err == nil {
			return msg, nil
		}
		lastErr = err
		c.log.Warn("response generation failed",
			zap.String("session_id", s.SessionID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return "", fmt.Errorf("response function: %w", lastErr)
}

// interrupt degrades the session to the terminal interrupted state.
// Fatal to the session, not to the process; the candidate sees only a
// generic closing message.
func (c *Controller) interrupt(s *interview.State, cause error) {
	s.Interrupted = true
	c.finalize(s)
	s.AppendInterviewer(InterruptedMessage, c.now())
	s.FinalSummary = "session interrupted: response generation failed"
	c.recorder.Event(s.SessionID, EventInterrupted, cause.Error())
	c.log.Error("session interrupted", zap.String("session_id", s.SessionID), zap.Error(cause))
}

// #endregion response

// #region finalize

// finalize sets the terminal fields exactly once and freezes the
// session. An empty ledger yields an absent aggregate, not zero.
func (c *Controller) finalize(s *interview.State) {
	if s.Completed {
		return
	}
	if agg, ok := s.Aggregate(); ok {
		s.FinalScore = &agg
	}
	s.FinalSummary = fmt.Sprintf("assessed %d of %d units, final difficulty %d",
		s.UnitsScored(), len(s.Case.Units), s.Difficulty)
	if s.FinalScore != nil {
		s.FinalSummary += fmt.Sprintf(", aggregate score %.2f", *s.FinalScore)
	}
	s.Phase = interview.PhaseComplete
	s.Completed = true
	c.recorder.Event(s.SessionID, EventCompleted, s.FinalSummary)
}

// #endregion finalize

// #region helpers

func lastCandidate(s *interview.State) string {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Role == interview.RoleCandidate {
			return s.Transcript[i].Content
		}
	}
	return ""
}

// #endregion helpers
