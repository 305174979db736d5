package interview

import (
	"testing"
	"time"

	"github.com/casemill/interview-controller/internal/casespec"
)

// #region fixtures

func testCase() *casespec.Case {
	rubric := map[int]string{
		1: "no structure", 2: "partial structure", 3: "adequate structure",
		4: "good structure", 5: "excellent structure",
	}
	return &casespec.Case{
		ID:      "acme-profit",
		Title:   "Acme profitability decline",
		Opening: "Our client Acme has seen profits fall 20% in two years.",
		Facts:   map[string]string{"revenue": "flat at $500M"},
		Units: []casespec.Unit{
			{ID: "u1", Phase: "STRUCTURING", Prompt: "How would you structure this?", Rubric: rubric, Evidence: []string{"revenue", "cost"}},
			{ID: "u2", Phase: "ANALYSIS", Prompt: "Which driver matters most?", Rubric: rubric},
			{ID: "u3", Phase: "SYNTHESIS", Prompt: "What do you recommend?", Rubric: rubric},
		},
	}
}

// #endregion fixtures

// #region constructor-tests

func TestNew_Defaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s, err := New(testCase(), "cand-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SessionID == "" {
		t.Fatal("expected generated session id")
	}
	if s.Difficulty != DefaultDifficulty {
		t.Fatalf("expected difficulty %d, got %d", DefaultDifficulty, s.Difficulty)
	}
	if s.Phase != PhaseStructuring {
		t.Fatalf("expected phase from first unit, got %s", s.Phase)
	}
	if s.UnitIndex != 0 {
		t.Fatalf("expected unit index 0, got %d", s.UnitIndex)
	}
}

func TestNew_StartingDifficulty(t *testing.T) {
	c := testCase()
	c.StartingDifficulty = 2
	s, err := New(c, "cand-1", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Difficulty != 2 {
		t.Fatalf("expected starting difficulty 2, got %d", s.Difficulty)
	}
}

func TestNew_UnknownPhaseFailsCreation(t *testing.T) {
	c := testCase()
	c.Units[1].Phase = "BRAINSTORM"
	if _, err := New(c, "cand-1", time.Now()); err == nil {
		t.Fatal("expected error for unknown phase tag")
	}
}

func TestNew_InvalidCaseFailsCreation(t *testing.T) {
	c := testCase()
	c.Units = nil
	if _, err := New(c, "cand-1", time.Now()); err == nil {
		t.Fatal("expected error for case without units")
	}
	if _, err := New(nil, "cand-1", time.Now()); err == nil {
		t.Fatal("expected error for nil case")
	}
}

// #endregion constructor-tests

// #region position-tests

func TestAdvanceUnit_AdoptsPhaseAndStops(t *testing.T) {
	s, _ := New(testCase(), "cand-1", time.Now())

	s.AdvanceUnit()
	if s.UnitIndex != 1 || s.Phase != PhaseAnalysis {
		t.Fatalf("expected index 1 phase ANALYSIS, got %d %s", s.UnitIndex, s.Phase)
	}

	s.AdvanceUnit()
	s.AdvanceUnit()
	if !s.Exhausted() {
		t.Fatal("expected exhausted after advancing past last unit")
	}
	if s.Phase != PhaseComplete {
		t.Fatalf("expected COMPLETE past the end, got %s", s.Phase)
	}

	// Index is clamped at the sequence length.
	s.AdvanceUnit()
	if s.UnitIndex != 3 {
		t.Fatalf("expected index clamped at 3, got %d", s.UnitIndex)
	}
}

func TestActiveUnit_Exhausted(t *testing.T) {
	s, _ := New(testCase(), "cand-1", time.Now())
	s.UnitIndex = len(s.Case.Units)
	if _, ok := s.ActiveUnit(); ok {
		t.Fatal("expected no active unit when exhausted")
	}
}

// #endregion position-tests

// #region ledger-tests

func TestAggregate_EmptyLedgerAbsent(t *testing.T) {
	s, _ := New(testCase(), "cand-1", time.Now())
	if _, ok := s.Aggregate(); ok {
		t.Fatal("expected absent aggregate for empty ledger")
	}
}

func TestAggregate_Mean(t *testing.T) {
	s, _ := New(testCase(), "cand-1", time.Now())
	for _, score := range []int{2, 4, 3} {
		s.Ledger = append(s.Ledger, ScoreRecord{UnitID: "u1", Score: score})
	}
	agg, ok := s.Aggregate()
	if !ok {
		t.Fatal("expected aggregate present")
	}
	if agg != 3.0 {
		t.Fatalf("expected mean 3.0, got %v", agg)
	}
}

func TestRecentScores_WindowAndCopy(t *testing.T) {
	s, _ := New(testCase(), "cand-1", time.Now())
	for i := 1; i <= 7; i++ {
		s.Ledger = append(s.Ledger, ScoreRecord{UnitID: "u1", Score: i%5 + 1})
	}

	recent := s.RecentScores(5)
	if len(recent) != 5 {
		t.Fatalf("expected 5 records, got %d", len(recent))
	}
	if recent[4].Score != s.Ledger[6].Score {
		t.Fatal("expected newest record last")
	}

	recent[0].Score = 99
	if s.Ledger[2].Score == 99 {
		t.Fatal("expected RecentScores to return a copy")
	}
}

func TestUnitsScored_Distinct(t *testing.T) {
	s, _ := New(testCase(), "cand-1", time.Now())
	s.Ledger = append(s.Ledger,
		ScoreRecord{UnitID: "u1", Score: 2},
		ScoreRecord{UnitID: "u1", Score: 3},
		ScoreRecord{UnitID: "u2", Score: 4},
	)
	if got := s.UnitsScored(); got != 2 {
		t.Fatalf("expected 2 distinct units, got %d", got)
	}
}

func TestWeightedAggregate(t *testing.T) {
	records := []ScoreRecord{
		{Phase: PhaseStructuring, Score: 2},
		{Phase: PhaseSynthesis, Score: 4},
	}
	agg, ok := WeightedAggregate(records, map[Phase]float64{PhaseSynthesis: 3})
	if !ok {
		t.Fatal("expected aggregate present")
	}
	want := (2.0 + 4.0*3) / 4.0
	if agg != want {
		t.Fatalf("expected %v, got %v", want, agg)
	}

	if _, ok := WeightedAggregate(nil, nil); ok {
		t.Fatal("expected absent aggregate for empty records")
	}
}

// #endregion ledger-tests

// #region snapshot-tests

func TestSnapshot_Isolation(t *testing.T) {
	s, _ := New(testCase(), "cand-1", time.Now())
	s.AppendCandidate("first answer", time.Now())
	s.Ledger = append(s.Ledger, ScoreRecord{UnitID: "u1", Score: 3})

	snap := s.Snapshot()

	s.AppendCandidate("second answer", time.Now())
	s.Ledger = append(s.Ledger, ScoreRecord{UnitID: "u2", Score: 4})

	if len(snap.Transcript) != 1 {
		t.Fatalf("expected snapshot transcript frozen at 1, got %d", len(snap.Transcript))
	}
	if len(snap.Ledger) != 1 {
		t.Fatalf("expected snapshot ledger frozen at 1, got %d", len(snap.Ledger))
	}
}

// #endregion snapshot-tests

// #region verdict-tests

func TestVerdictValid(t *testing.T) {
	cases := []struct {
		name  string
		v     Verdict
		valid bool
	}{
		{"in range", Verdict{Score: 3, Directive: DirectiveProceedStandard}, true},
		{"score low", Verdict{Score: 0, Directive: DirectiveProceedStandard}, false},
		{"score high", Verdict{Score: 6, Directive: DirectiveProceedStandard}, false},
		{"unknown directive", Verdict{Score: 3, Directive: "ESCALATE"}, false},
		{"empty directive", Verdict{Score: 3}, false},
	}
	for _, tc := range cases {
		if got := tc.v.Valid(); got != tc.valid {
			t.Errorf("%s: expected valid=%v, got %v", tc.name, tc.valid, got)
		}
	}
}

func TestDirectiveAdvancesUnit(t *testing.T) {
	advancing := map[Directive]bool{
		DirectiveProceedStandard:  true,
		DirectiveAddComplexity:    true,
		DirectiveMoveToNextPhase:  true,
		DirectiveProvideHint:      false,
		DirectiveRepeatSimplified: false,
		DirectiveEndInterview:     false,
	}
	for d, want := range advancing {
		if got := d.AdvancesUnit(); got != want {
			t.Errorf("%s: expected AdvancesUnit=%v, got %v", d, want, got)
		}
	}
}

// #endregion verdict-tests
