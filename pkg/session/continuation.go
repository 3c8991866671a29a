package session

import (
	"regexp"
	"strings"
)

// DefaultMaxIterations bounds how many times a turn may auto-continue
// without fresh human input.
const DefaultMaxIterations = 1

// completionPhrases signal that the goal is finished. They take precedence
// over continuation phrases.
var completionPhrases = []string{
	"task completed",
	"task complete",
	"all done",
	"everything is done",
	"nothing more to do",
	"finished successfully",
	"all set",
	"that completes",
}

// continuationPhrases signal that the assistant intends further work.
var continuationPhrases = []string{
	"next step",
	"let's proceed",
	"lets proceed",
	"continuing with",
	"moving on to",
	"the next task",
	"i will now",
	"i'll now",
	"to continue",
	"proceeding to",
}

// numberedItemRe matches one numbered list item, "1. word" or "1: word".
var numberedItemRe = regexp.MustCompile(`\d+[.:]\s+\w+`)

// trailing markers checked against the whitespace-stripped end of the text.
var ellipsisMarkers = []string{"...", "…", "etc.", "and so on"}

// DetectIncompleteGoal decides from the assistant's final text whether the
// underlying goal looks unfinished. Rules are evaluated in order: completion
// phrases win, then continuation phrases, then a numbered list of three or
// more items, then a trailing ellipsis-like marker.
func DetectIncompleteGoal(responseText string, goalDetectionEnabled bool) bool {
	if !goalDetectionEnabled {
		return false
	}
	lower := strings.ToLower(responseText)
	for _, phrase := range completionPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	for _, phrase := range continuationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	if len(numberedItemRe.FindAllString(responseText, -1)) >= 3 {
		return true
	}
	trimmed := strings.TrimSpace(lower)
	for _, marker := range ellipsisMarkers {
		if strings.HasSuffix(trimmed, marker) {
			return true
		}
	}
	return false
}

// GenerateContinuationPrompt synthesizes the next user utterance from the
// most recent assistant turn. Heuristics apply in order; the first hit wins.
func GenerateContinuationPrompt(priorTurns []Turn) string {
	var last string
	for i := len(priorTurns) - 1; i >= 0; i-- {
		if priorTurns[i].Role == RoleAssistant {
			last = priorTurns[i].Content
			break
		}
	}
	lower := strings.ToLower(last)
	switch {
	case strings.Contains(lower, "step") || strings.Contains(lower, "next"):
		return "Please continue with the next step."
	case tailContainsQuestion(last):
		return "Yes, please proceed."
	case strings.Contains(lower, "plan") || strings.Contains(lower, "approach") || strings.Contains(lower, "process"):
		return "Please execute this plan."
	default:
		return "Please continue with the task."
	}
}

func tailContainsQuestion(text string) bool {
	text = strings.TrimSpace(text)
	tail := text
	if len(tail) > 50 {
		tail = tail[len(tail)-50:]
	}
	return strings.Contains(tail, "?")
}

// AutoContinuationState tracks the continuation loop for one session. It is
// a value type: Advance returns the updated state rather than mutating in
// place.
type AutoContinuationState struct {
	IterationCount       int
	MaxIterations        int
	GoalDetectionEnabled bool
}

func NewAutoContinuationState(maxIterations int, goalDetectionEnabled bool) AutoContinuationState {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return AutoContinuationState{
		MaxIterations:        maxIterations,
		GoalDetectionEnabled: goalDetectionEnabled,
	}
}

// ResetForHumanTurn zeroes the iteration count. Called only when a human
// provides the next input, never when the loop merely stops.
func (s AutoContinuationState) ResetForHumanTurn() AutoContinuationState {
	s.IterationCount = 0
	return s
}

// Advance runs one detection step against the final response text. When the
// loop should continue it returns the updated state, a synthesized
// continuation prompt, and true. The iteration cap is checked before the
// detector, so a capped state ignores the text entirely.
func (s AutoContinuationState) Advance(responseText string, priorTurns []Turn) (AutoContinuationState, string, bool) {
	if s.IterationCount >= s.MaxIterations {
		return s, "", false
	}
	if !DetectIncompleteGoal(responseText, s.GoalDetectionEnabled) {
		return s, "", false
	}
	s.IterationCount++
	return s, GenerateContinuationPrompt(priorTurns), true
}
