package llm

import (
	"context"

	"github.com/casemill/interview-controller/internal/assess"
	"github.com/casemill/interview-controller/internal/interview"
	"github.com/casemill/interview-controller/internal/prompt"
)

// Completer is the minimal surface both backends share. It is injected
// explicitly per agent so sessions stay independently testable; there
// is no ambient process-wide client.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Assessor scores candidate turns through a Completer.
type Assessor struct {
	C Completer
}

// Assess implements the assessment contract. A reply that fails to
// parse is returned as an error so the controller's fail-open policy
// applies; this function never invents a verdict.
func (a *Assessor) Assess(ctx context.Context, req assess.Request) (interview.Verdict, error) {
	reply, err := a.C.Complete(ctx, prompt.AssessorSystem, prompt.BuildAssessorContext(req))
	if err != nil {
		return interview.Verdict{}, err
	}
	return ParseVerdict(reply)
}

// Responder generates outward messages through a Completer.
type Responder struct {
	C Completer
}

// Respond implements the response contract.
func (r *Responder) Respond(ctx context.Context, req assess.ResponderRequest) (string, error) {
	return r.C.Complete(ctx, prompt.ResponderSystem, prompt.BuildResponderContext(req))
}
