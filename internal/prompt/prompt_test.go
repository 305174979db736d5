package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/casemill/interview-controller/internal/assess"
	"github.com/casemill/interview-controller/internal/casespec"
	"github.com/casemill/interview-controller/internal/interview"
)

func TestBuildAssessorContext(t *testing.T) {
	ctx := BuildAssessorContext(assess.Request{
		Phase:      interview.PhaseAnalysis,
		Difficulty: 4,
		Unit: casespec.Unit{
			ID:       "u1",
			Prompt:   "What drives the decline?",
			Rubric:   casespec.Rubric{1: "none", 2: "vague", 3: "one", 4: "ranked", 5: "quantified"},
			Evidence: []string{"cogs", "pricing"},
		},
		Facts:         map[string]string{"zeta": "last", "alpha": "first"},
		CandidateTurn: "It is mostly a cost story.",
		RecentScores: []interview.ScoreRecord{
			{UnitID: "u0", Phase: interview.PhaseStructuring, Score: 3, DifficultyAtTime: 3},
		},
	})

	for _, want := range []string{
		"difficulty 4",
		"What drives the decline?",
		"4: ranked",
		"cogs, pricing",
		"It is mostly a cost story.",
		"u0 (STRUCTURING): 3 at difficulty 3",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("expected context to contain %q", want)
		}
	}

	// Hidden facts render sorted by key.
	if strings.Index(ctx, "alpha") > strings.Index(ctx, "zeta") {
		t.Error("expected facts sorted by key")
	}
}

func TestBuildResponderContext_DirectivePayloads(t *testing.T) {
	c := &casespec.Case{
		ID:      "c1",
		Title:   "Demo",
		Opening: "The client is struggling.",
		Units: []casespec.Unit{
			{ID: "u1", Phase: "ANALYSIS", Prompt: "Why?",
				Rubric: casespec.Rubric{1: "a", 2: "b", 3: "c", 4: "d", 5: "e"}},
		},
	}
	s, err := interview.New(c, "cand", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.AppendInterviewer("Why?", time.Now())
	s.AppendCandidate("Because of costs.", time.Now())

	ctx := BuildResponderContext(assess.ResponderRequest{
		Snapshot:   s.Snapshot(),
		Directive:  interview.DirectiveAddComplexity,
		Complexity: "A competitor cuts prices.",
		DataReveal: "Costs are up 12%.",
		Urgency:    "wrap_up_soon",
	})

	for _, want := range []string{
		"ADD_COMPLEXITY (urgency: wrap_up_soon)",
		"A competitor cuts prices.",
		"Costs are up 12%.",
		"Candidate: Because of costs.",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("expected context to contain %q", want)
		}
	}
}

func TestConversationWindow_Truncates(t *testing.T) {
	var turns []interview.Turn
	for i := 0; i < 6; i++ {
		turns = append(turns, interview.Turn{Role: interview.RoleCandidate, Content: string(rune('a' + i))})
	}
	got := ConversationWindow(turns, 2)
	if strings.Contains(got, "Candidate: a") {
		t.Errorf("expected oldest turns dropped, got %q", got)
	}
	if !strings.Contains(got, "Candidate: f") {
		t.Errorf("expected newest turn kept, got %q", got)
	}
}
