package retrieval

import (
	"fmt"
	"strings"
)

// Notice is the disclaimer line the model is instructed to open its
// answer with. The wording is fixed; downstream tests assert on it.
const Notice = "[Notice] Reference only. For accurate evaluation of potential cognitive distortions, please consult a mental health professional."

// promptCandidate is a retrieved candidate together with its reframing
// examples, ready for template assembly.
type promptCandidate struct {
	Candidate
	Reframes []ReframeExample
}

// buildPromptText assembles the fixed three-part prompt. Candidates are
// listed in retrieval order; the caller guarantees at least one.
func buildPromptText(situation, thought string, candidates []promptCandidate) string {
	var parts []string

	if situation == "" {
		situation = "(none provided)"
	}
	parts = append(parts, "[User Situation]\n"+situation+"\n")
	parts = append(parts, "[User Thought]\n"+thought+"\n")

	parts = append(parts, "1. Several possible cognitive distortions that may underlie the user's thoughts:\n")
	for idx, c := range candidates {
		parts = append(parts, fmt.Sprintf("Candidate %d: %s (Definition: %s)", idx+1, c.TrapName, c.Definition))
	}
	parts = append(parts, "")

	parts = append(parts, "2. Your task is to suggest alternative rational thoughts to address each of the identified cognitive distortions. Use the following tips and reframing examples:")
	for idx, c := range candidates {
		parts = append(parts, fmt.Sprintf("\n[Reframe %d]", idx+1))
		parts = append(parts, fmt.Sprintf("Tips to overcome %s: %s", c.TrapName, c.Tips))
		for ridx, ex := range c.Reframes {
			parts = append(parts, fmt.Sprintf("Example Situation %d: %s", ridx+1, ex.Situation))
			parts = append(parts, fmt.Sprintf("Example Original Thought   %d: %s", ridx+1, ex.Thought))
			parts = append(parts, fmt.Sprintf("Example Reframed Thought   %d: %s", ridx+1, ex.Reframe))
		}
		parts = append(parts, "")
	}

	parts = append(parts,
		"3. Now generate new reframed thoughts for the user's input (based on their Situation & Thought). Do not include the Example Situation and Example Thought in the output."+
			"Output in the following format:\n"+
			Notice+"\n")
	for idx := range candidates {
		parts = append(parts, fmt.Sprintf("Candidate Distortion %d:", idx+1))
		parts = append(parts, "Definition of the Distortion:")
		parts = append(parts, "Tips to Overcome the Distortion:")
		parts = append(parts, "Example Reframed Thoughts for the Distortion:\n")
	}

	return strings.Join(parts, "\n")
}
