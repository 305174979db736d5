// Package runner maintains the mapping from session ids to live
// sessions and serializes turn processing per session. Orchestration
// only; all state-machine logic lives in the controller.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/casemill/interview-controller/internal/casespec"
	"github.com/casemill/interview-controller/internal/controller"
	"github.com/casemill/interview-controller/internal/interview"
	"github.com/casemill/interview-controller/internal/ledger"
)

// #region errors

var (
	// ErrSessionNotFound marks an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTurnInFlight rejects a second concurrent turn for the same
	// session. Turns are never interleaved; the caller may retry once
	// the in-flight turn returns.
	ErrTurnInFlight = errors.New("turn already in flight for session")

	// ErrNotStarted rejects respond calls before start.
	ErrNotStarted = errors.New("session not started")
)

// #endregion errors

// #region session

// session pairs a state aggregate with its serialization lock.
type session struct {
	mu              sync.Mutex
	state           *interview.State
	started         bool
	persistedTurns  int
	persistedScores int
}

// #endregion session

// #region runner

// Config wires a runner. Store may be nil for in-memory-only runs.
type Config struct {
	Controller *controller.Controller
	Library    *casespec.Library
	Store      *ledger.Store
	Log        *zap.Logger
	Now        func() time.Time
}

// Runner owns the session registry. Sessions are fully independent;
// only the registry map itself is shared.
type Runner struct {
	mu       sync.RWMutex
	sessions map[string]*session

	ctrl    *controller.Controller
	library *casespec.Library
	store   *ledger.Store
	log     *zap.Logger
	now     func() time.Time
}

// New creates a runner from the given config.
func New(cfg Config) (*Runner, error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("runner: controller required")
	}
	if cfg.Library == nil {
		return nil, fmt.Errorf("runner: case library required")
	}
	r := &Runner{
		sessions: make(map[string]*session),
		ctrl:     cfg.Controller,
		library:  cfg.Library,
		store:    cfg.Store,
		log:      cfg.Log,
		now:      cfg.Now,
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// #endregion runner

// #region create

// Create loads a case, builds a fresh session state, and registers it.
// Malformed case definitions fail here, never mid-session.
func (r *Runner) Create(caseID, candidateID string) (string, error) {
	c, err := r.library.Get(caseID)
	if err != nil {
		return "", err
	}
	state, err := interview.New(c, candidateID, r.now())
	if err != nil {
		return "", err
	}

	if r.store != nil {
		if err := r.store.CreateSession(state.SessionID, state.CaseID, candidateID, state.StartedAt); err != nil {
			return "", err
		}
	}

	r.mu.Lock()
	r.sessions[state.SessionID] = &session{state: state}
	r.mu.Unlock()

	r.log.Info("session created",
		zap.String("session_id", state.SessionID),
		zap.String("case_id", caseID))
	return state.SessionID, nil
}

// #endregion create

// #region start

// Start produces the opening message. Callable exactly once per
// session, before any Respond call.
func (r *Runner) Start(ctx context.Context, sessionID string) (string, error) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return "", err
	}
	if !sess.mu.TryLock() {
		return "", ErrTurnInFlight
	}
	defer sess.mu.Unlock()

	if sess.started {
		return "", controller.ErrAlreadyStarted
	}
	msg, err := r.ctrl.Start(ctx, sess.state)
	if err != nil {
		return "", err
	}
	sess.started = true
	r.persist(sess)
	return msg, nil
}

// #endregion start

// #region respond

// Respond feeds one candidate turn to the controller. Completed
// sessions reject the call; a concurrent turn for the same session is
// rejected rather than interleaved.
func (r *Runner) Respond(ctx context.Context, sessionID, candidateInput string) (string, error) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return "", err
	}
	if !sess.mu.TryLock() {
		return "", ErrTurnInFlight
	}
	defer sess.mu.Unlock()

	if !sess.started {
		return "", ErrNotStarted
	}
	if sess.state.Completed {
		return "", controller.ErrSessionComplete
	}

	msg, err := r.ctrl.ProcessTurn(ctx, sess.state, candidateInput)
	if err != nil {
		return "", err
	}
	r.persist(sess)
	return msg, nil
}

// #endregion respond

// #region queries

// IsComplete reports the session's completion flag.
func (r *Runner) IsComplete(sessionID string) (bool, error) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Completed, nil
}

// Ledger returns a copy of the session's score records.
func (r *Runner) Ledger(sessionID string) ([]interview.ScoreRecord, error) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]interview.ScoreRecord, len(sess.state.Ledger))
	copy(out, sess.state.Ledger)
	return out, nil
}

// Snapshot returns an immutable view of the session.
func (r *Runner) Snapshot(sessionID string) (interview.Snapshot, error) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return interview.Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Snapshot(), nil
}

// Cases lists the case ids the runner can create sessions from.
func (r *Runner) Cases() ([]string, error) {
	return r.library.List()
}

// #endregion queries

// #region persistence

// persist writes transcript and ledger entries appended since the last
// call. Audit persistence is best-effort: failures are logged, never
// surfaced into the turn.
func (r *Runner) persist(sess *session) {
	if r.store == nil {
		return
	}
	st := sess.state

	for ; sess.persistedTurns < len(st.Transcript); sess.persistedTurns++ {
		seq := sess.persistedTurns
		if err := r.store.AppendTurn(st.SessionID, seq, st.Transcript[seq]); err != nil {
			r.log.Warn("persist turn failed", zap.String("session_id", st.SessionID), zap.Error(err))
		}
	}
	for ; sess.persistedScores < len(st.Ledger); sess.persistedScores++ {
		seq := sess.persistedScores
		if err := r.store.AppendScore(st.SessionID, seq, st.Ledger[seq]); err != nil {
			r.log.Warn("persist score failed", zap.String("session_id", st.SessionID), zap.Error(err))
		}
	}
	if st.Completed {
		if err := r.store.FinalizeSession(st.SessionID, st.FinalScore, st.FinalSummary, st.Interrupted); err != nil {
			r.log.Warn("finalize session failed", zap.String("session_id", st.SessionID), zap.Error(err))
		}
	}
}

// #endregion persistence

// #region helpers

func (r *Runner) lookup(sessionID string) (*session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// #endregion helpers
