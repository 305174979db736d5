package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/casemill/interview-controller/internal/assess"
	"github.com/casemill/interview-controller/internal/casespec"
	"github.com/casemill/interview-controller/internal/controller"
	"github.com/casemill/interview-controller/internal/interview"
	"github.com/casemill/interview-controller/internal/ledger"
)

// #region fixtures

const caseYAML = `
id: demo
opening: A demo case.
units:
  - id: u1
    phase: STRUCTURING
    prompt: First question?
    rubric: {1: a, 2: b, 3: c, 4: d, 5: e}
  - id: u2
    phase: ANALYSIS
    prompt: Second question?
    rubric: {1: a, 2: b, 3: c, 4: d, 5: e}
`

func testLibrary(t *testing.T) *casespec.Library {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "demo.yaml"), []byte(caseYAML), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return casespec.NewLibrary(dir)
}

func testRunner(t *testing.T, verdicts []interview.Verdict, store *ledger.Store) *Runner {
	t.Helper()
	ctrl, err := controller.New(controller.Config{
		Assessor:  assess.NewScriptAssessor(verdicts),
		Responder: assess.NewTemplateResponder(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := New(Config{Controller: ctrl, Library: testLibrary(t), Store: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func proceed(score int) interview.Verdict {
	return interview.Verdict{Score: score, Directive: interview.DirectiveProceedStandard}
}

// #endregion fixtures

// #region lifecycle-tests

func TestRunner_Lifecycle(t *testing.T) {
	r := testRunner(t, []interview.Verdict{proceed(4), proceed(3)}, nil)
	ctx := context.Background()

	sessionID, err := r.Create("demo", "cand-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Respond before start is rejected.
	if _, err := r.Respond(ctx, sessionID, "hello"); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted, got %v", err)
	}

	opening, err := r.Start(ctx, sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opening == "" {
		t.Fatal("expected non-empty opening")
	}
	if _, err := r.Start(ctx, sessionID); !errors.Is(err, controller.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}

	if _, err := r.Respond(ctx, sessionID, "first answer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Respond(ctx, sessionID, "second answer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both units consumed; the next turn closes the session.
	if _, err := r.Respond(ctx, sessionID, "anything"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done, err := r.IsComplete(sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Fatal("expected session complete")
	}
	if _, err := r.Respond(ctx, sessionID, "late"); !errors.Is(err, controller.ErrSessionComplete) {
		t.Fatalf("expected ErrSessionComplete, got %v", err)
	}

	records, err := r.Ledger(sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 score records, got %d", len(records))
	}

	snap, err := r.Snapshot(sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.FinalScore == nil || *snap.FinalScore != 3.5 {
		t.Fatalf("expected final score 3.5, got %v", snap.FinalScore)
	}
}

func TestRunner_UnknownIDs(t *testing.T) {
	r := testRunner(t, nil, nil)
	ctx := context.Background()

	if _, err := r.Create("no-such-case", ""); err == nil {
		t.Fatal("expected error for unknown case id")
	}
	if _, err := r.Start(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := r.Respond(ctx, "missing", "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRunner_Cases(t *testing.T) {
	r := testRunner(t, nil, nil)
	ids, err := r.Cases()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "demo" {
		t.Fatalf("expected [demo], got %v", ids)
	}
}

// #endregion lifecycle-tests

// #region concurrency-tests

// Concurrent turns for one session are serialized: exactly one wins,
// the rest are rejected rather than interleaved.
func TestRunner_ConcurrentRespondRejected(t *testing.T) {
	blocker := make(chan struct{})
	started := make(chan struct{})

	ctrl, err := controller.New(controller.Config{
		Assessor: assess.AssessorFunc(func(context.Context, assess.Request) (interview.Verdict, error) {
			close(started)
			<-blocker
			return proceed(3), nil
		}),
		Responder: assess.NewTemplateResponder(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := New(Config{Controller: ctrl, Library: testLibrary(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	sessionID, err := r.Create("demo", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Start(ctx, sessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := r.Respond(ctx, sessionID, "slow answer"); err != nil {
			t.Errorf("unexpected error from in-flight turn: %v", err)
		}
	}()

	<-started
	if _, err := r.Respond(ctx, sessionID, "competing answer"); !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("expected ErrTurnInFlight, got %v", err)
	}
	close(blocker)
	wg.Wait()

	records, err := r.Ledger(sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly one score record, got %d", len(records))
	}
}

// #endregion concurrency-tests

// #region persistence-tests

func TestRunner_PersistsToStore(t *testing.T) {
	store, err := ledger.NewStore(filepath.Join(t.TempDir(), "runner.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	r := testRunner(t, []interview.Verdict{proceed(4), proceed(4)}, store)
	ctx := context.Background()

	sessionID, err := r.Create("demo", "cand-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Start(ctx, sessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Respond(ctx, sessionID, "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Respond(ctx, sessionID, "second"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Respond(ctx, sessionID, "closing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta, err := store.Session(sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !meta.Completed {
		t.Fatal("expected completed persisted")
	}
	if meta.FinalScore == nil || *meta.FinalScore != 4.0 {
		t.Fatalf("expected final score 4.0 persisted, got %v", meta.FinalScore)
	}

	turns, err := store.Transcript(sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Opening + three exchange pairs.
	if len(turns) != 7 {
		t.Fatalf("expected 7 persisted turns, got %d", len(turns))
	}

	records, err := store.ScoreRecords(sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 persisted score records, got %d", len(records))
	}
}

// #endregion persistence-tests
