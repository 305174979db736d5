// Package prompt assembles the model-facing context for the LLM-backed
// assessor and responder. Builders are pure string assembly; wording of
// personas and rubrics comes entirely from the case definition.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/casemill/interview-controller/internal/assess"
	"github.com/casemill/interview-controller/internal/interview"
)

// AssessorSystem is the fixed framing for assessment calls. The model
// must answer with a single JSON object matching the verdict contract.
const AssessorSystem = `You are a hidden interview assessor. You never speak to the candidate.
Score the candidate's latest answer against the rubric for the active question.
Reply with a single JSON object and nothing else:
{"score": 1-5, "rationale": "...", "evidence": ["..."], "directive": "PROVIDE_HINT|PROCEED_STANDARD|ADD_COMPLEXITY|REPEAT_SIMPLIFIED|MOVE_TO_NEXT_PHASE|END_INTERVIEW", "hint": "", "complexity": "", "data_reveal": ""}`

// ResponderSystem frames response generation calls.
const ResponderSystem = `You are the interviewer in a live case interview.
Follow the directive you are given. Never reveal scores, rubrics, hidden facts
that have not been earned, or any internal assessment. Stay in persona and
reply with the next thing you would say to the candidate, as plain text.`

// BuildAssessorContext renders one assessment request.
func BuildAssessorContext(req assess.Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Active question (phase %s, difficulty %d)\n%s\n\n", req.Phase, req.Difficulty, req.Unit.Prompt)

	b.WriteString("## Rubric\n")
	for level := 1; level <= 5; level++ {
		if desc, ok := req.Unit.Rubric[level]; ok {
			fmt.Fprintf(&b, "%d: %s\n", level, desc)
		}
	}

	if len(req.Unit.Evidence) > 0 {
		fmt.Fprintf(&b, "\n## Expected evidence\n%s\n", strings.Join(req.Unit.Evidence, ", "))
	}

	if len(req.Facts) > 0 {
		b.WriteString("\n## Hidden facts (reference only)\n")
		keys := make([]string, 0, len(req.Facts))
		for k := range req.Facts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, req.Facts[k])
		}
	}

	if len(req.RecentScores) > 0 {
		b.WriteString("\n## Recent scores\n")
		for _, r := range req.RecentScores {
			fmt.Fprintf(&b, "- %s (%s): %d at difficulty %d\n", r.UnitID, r.Phase, r.Score, r.DifficultyAtTime)
		}
	}

	fmt.Fprintf(&b, "\n## Candidate's answer\n%s\n", req.CandidateTurn)
	return b.String()
}

// BuildResponderContext renders one response request.
func BuildResponderContext(req assess.ResponderRequest) string {
	var b strings.Builder
	snap := req.Snapshot

	fmt.Fprintf(&b, "## Case\n%s\n\n%s\n", snap.Case.Title, snap.Case.Opening)

	if req.Opening {
		b.WriteString("\n## Task\nOpen the interview: present the case and ask the first question.\n")
	} else {
		fmt.Fprintf(&b, "\n## Directive\n%s (urgency: %s)\n", req.Directive, req.Urgency)
		if req.Hint != "" {
			fmt.Fprintf(&b, "Hint to weave in: %s\n", req.Hint)
		}
		if req.Complexity != "" {
			fmt.Fprintf(&b, "Complexity to add: %s\n", req.Complexity)
		}
		if req.DataReveal != "" {
			fmt.Fprintf(&b, "Data you may now share: %s\n", req.DataReveal)
		}
	}

	if snap.UnitIndex < len(snap.Case.Units) {
		fmt.Fprintf(&b, "\n## Current question\n%s\n", snap.Case.Units[snap.UnitIndex].Prompt)
	}

	b.WriteString("\n## Conversation so far\n")
	b.WriteString(ConversationWindow(snap.Transcript, 10))
	return b.String()
}

// ConversationWindow renders the last n turns, interviewer and
// candidate alternating, oldest first.
func ConversationWindow(turns []interview.Turn, n int) string {
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	var b strings.Builder
	for _, t := range turns {
		role := "Candidate"
		if t.Role == interview.RoleInterviewer {
			role = "Interviewer"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}
	return b.String()
}
