// Package assess defines the outward contracts the session controller
// calls through: an Assessor that scores the latest candidate turn and
// a Responder that produces the next outward message. Implementations
// range from deterministic rules to remote model calls; the controller
// assumes nothing about them beyond "may fail or time out".
package assess

import (
	"context"

	"github.com/casemill/interview-controller/internal/casespec"
	"github.com/casemill/interview-controller/internal/interview"
)

// #region request

// Request carries everything an assessor may consider for one turn.
type Request struct {
	Phase         interview.Phase
	Difficulty    int
	Unit          casespec.Unit
	Facts         map[string]string
	CandidateTurn string
	RecentScores  []interview.ScoreRecord
}

// ResponderRequest carries the directive and pending payloads into the
// response function, together with an immutable state snapshot.
type ResponderRequest struct {
	Snapshot  interview.Snapshot
	Directive interview.Directive

	Hint       string
	Complexity string
	DataReveal string
	Urgency    string

	// Opening marks the special zero-input first call of a session.
	Opening bool
}

// #endregion request

// #region interfaces

// Assessor scores one candidate turn against the active unit's rubric.
type Assessor interface {
	Assess(ctx context.Context, req Request) (interview.Verdict, error)
}

// Responder produces the next outward interviewer message.
type Responder interface {
	Respond(ctx context.Context, req ResponderRequest) (string, error)
}

// AssessorFunc adapts a function to the Assessor interface.
type AssessorFunc func(ctx context.Context, req Request) (interview.Verdict, error)

// Assess implements Assessor.
func (f AssessorFunc) Assess(ctx context.Context, req Request) (interview.Verdict, error) {
	return f(ctx, req)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, req ResponderRequest) (string, error)

// Respond implements Responder.
func (f ResponderFunc) Respond(ctx context.Context, req ResponderRequest) (string, error) {
	return f(ctx, req)
}

// #endregion interfaces
