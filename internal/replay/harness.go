package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/casemill/interview-controller/internal/assess"
	"github.com/casemill/interview-controller/internal/controller"
	"github.com/casemill/interview-controller/internal/interview"
)

// #region result-types

// TurnResult captures the observable state after one scripted turn.
type TurnResult struct {
	Index      int
	Message    string
	Directive  interview.Directive
	Difficulty int
	UnitIndex  int
	ScoreCount int
	Completed  bool
	Mismatches []string
}

// Summary aggregates a full scripted run.
type Summary struct {
	Description string
	Turns       []TurnResult
	Completed   bool
	Aggregate   *float64
	Mismatches  int
}

// #endregion result-types

// #region run

// Run replays a fixture through a real controller with a scripted
// assessor and the template responder, checking expectations per turn.
func Run(ctx context.Context, f *Fixture) (*Summary, error) {
	verdicts := make([]interview.Verdict, len(f.Turns))
	for i, t := range f.Turns {
		verdicts[i] = t.Verdict.ToVerdict()
	}

	ctrl, err := controller.New(controller.Config{
		Assessor:  assess.NewScriptAssessor(verdicts),
		Responder: assess.NewTemplateResponder(),
	})
	if err != nil {
		return nil, err
	}

	state, err := interview.New(&f.Case, f.CandidateID, time.Now())
	if err != nil {
		return nil, err
	}
	if _, err := ctrl.Start(ctx, state); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	summary := &Summary{Description: f.Description}
	for i, t := range f.Turns {
		msg, err := ctrl.ProcessTurn(ctx, state, t.CandidateInput)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		tr := TurnResult{
			Index:      i,
			Message:    msg,
			Directive:  state.NextDirective,
			Difficulty: state.Difficulty,
			UnitIndex:  state.UnitIndex,
			ScoreCount: len(state.Ledger),
			Completed:  state.Completed,
		}
		tr.Mismatches = checkExpect(t.Expect, tr)
		summary.Mismatches += len(tr.Mismatches)
		summary.Turns = append(summary.Turns, tr)

		if state.Completed {
			break
		}
	}

	summary.Completed = state.Completed
	if agg, ok := state.Aggregate(); ok {
		summary.Aggregate = &agg
	}
	if f.Final != nil {
		summary.Mismatches += len(checkFinal(f.Final, summary))
	}
	return summary, nil
}

// #endregion run

// #region expectations

func checkExpect(e *FixtureExpect, tr TurnResult) []string {
	if e == nil {
		return nil
	}
	var mismatches []string
	if e.Directive != nil && string(tr.Directive) != *e.Directive {
		mismatches = append(mismatches, fmt.Sprintf("directive: got %s, want %s", tr.Directive, *e.Directive))
	}
	if e.Difficulty != nil && tr.Difficulty != *e.Difficulty {
		mismatches = append(mismatches, fmt.Sprintf("difficulty: got %d, want %d", tr.Difficulty, *e.Difficulty))
	}
	if e.UnitIndex != nil && tr.UnitIndex != *e.UnitIndex {
		mismatches = append(mismatches, fmt.Sprintf("unit_index: got %d, want %d", tr.UnitIndex, *e.UnitIndex))
	}
	if e.ScoreCount != nil && tr.ScoreCount != *e.ScoreCount {
		mismatches = append(mismatches, fmt.Sprintf("score_count: got %d, want %d", tr.ScoreCount, *e.ScoreCount))
	}
	if e.Completed != nil && tr.Completed != *e.Completed {
		mismatches = append(mismatches, fmt.Sprintf("completed: got %v, want %v", tr.Completed, *e.Completed))
	}
	return mismatches
}

func checkFinal(f *FixtureFinal, s *Summary) []string {
	var mismatches []string
	if s.Completed != f.Completed {
		mismatches = append(mismatches, fmt.Sprintf("final completed: got %v, want %v", s.Completed, f.Completed))
	}
	if f.Aggregate != nil {
		if s.Aggregate == nil {
			mismatches = append(mismatches, fmt.Sprintf("final aggregate: absent, want %.2f", *f.Aggregate))
		} else if diff := *s.Aggregate - *f.Aggregate; diff > 1e-9 || diff < -1e-9 {
			mismatches = append(mismatches, fmt.Sprintf("final aggregate: got %.4f, want %.4f", *s.Aggregate, *f.Aggregate))
		}
	}
	return mismatches
}

// #endregion expectations
