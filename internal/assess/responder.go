package assess

import (
	"context"
	"fmt"
	"strings"

	"github.com/casemill/interview-controller/internal/casespec"
	"github.com/casemill/interview-controller/internal/interview"
)

// #region template-responder

// TemplateResponder composes the outward message from the directive and
// pending payloads without a model call. The wording is deliberately
// plain; persona and tone belong to model-backed responders.
type TemplateResponder struct{}

// NewTemplateResponder creates a template responder.
func NewTemplateResponder() *TemplateResponder {
	return &TemplateResponder{}
}

// Respond implements Responder.
func (r *TemplateResponder) Respond(_ context.Context, req ResponderRequest) (string, error) {
	if req.Opening {
		return r.opening(req), nil
	}

	var b strings.Builder

	switch req.Directive {
	case interview.DirectiveEndInterview:
		b.WriteString("That brings us to the end of our time. Thank you — we'll wrap up the interview here.")
		return b.String(), nil
	case interview.DirectiveProvideHint:
		if req.Hint != "" {
			fmt.Fprintf(&b, "Let me offer a nudge: %s\n\n", req.Hint)
		} else {
			b.WriteString("Take a step back and think about what's driving this.\n\n")
		}
		b.WriteString("Have another look at the question with that in mind.")
	case interview.DirectiveRepeatSimplified:
		b.WriteString("Let me put the question a simpler way.\n\n")
		if u, ok := activeUnit(req.Snapshot); ok {
			b.WriteString(u.Prompt)
		}
	case interview.DirectiveAddComplexity:
		b.WriteString("Good. Let's push on that.\n\n")
		if req.Complexity != "" {
			b.WriteString(req.Complexity + "\n\n")
		}
		if req.DataReveal != "" {
			fmt.Fprintf(&b, "Here's some additional data: %s\n\n", req.DataReveal)
		}
		if u, ok := activeUnit(req.Snapshot); ok {
			b.WriteString(u.Prompt)
		}
	default: // PROCEED_STANDARD, MOVE_TO_NEXT_PHASE
		b.WriteString("Understood. Let's move on.\n\n")
		if u, ok := activeUnit(req.Snapshot); ok {
			b.WriteString(u.Prompt)
		}
	}

	if req.Urgency == "wrap_up_soon" {
		b.WriteString("\n\nWe have a few minutes left, so keep it concise.")
	}
	return b.String(), nil
}

// opening builds the zero-input first message: the case prompt plus the
// first unit's question.
func (r *TemplateResponder) opening(req ResponderRequest) string {
	var b strings.Builder
	b.WriteString(req.Snapshot.Case.Opening)
	if u, ok := activeUnit(req.Snapshot); ok {
		b.WriteString("\n\n")
		b.WriteString(u.Prompt)
	}
	return b.String()
}

// #endregion template-responder

// #region helpers

func activeUnit(snap interview.Snapshot) (casespec.Unit, bool) {
	if snap.UnitIndex >= len(snap.Case.Units) {
		return casespec.Unit{}, false
	}
	return snap.Case.Units[snap.UnitIndex], true
}

// #endregion helpers
