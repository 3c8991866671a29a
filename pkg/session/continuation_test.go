package session

import "testing"

func TestDetectIncompleteGoal(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		enabled bool
		want    bool
	}{
		{"disabled", "next step: do the thing", false, false},
		{"continuation phrase", "The next step is to create the file.", true, true},
		{"completion phrase", "All done, nothing more to do.", true, false},
		{"completion beats continuation", "Task completed. The next step would have been cleanup.", true, false},
		{"numbered list of three", "Step 1: do X. Step 2: do Y. Step 3: do Z.", true, true},
		{"numbered list of two", "1. first 2. second", true, false},
		{"trailing ellipsis", "Working through the files...", true, true},
		{"trailing etc", "I have handled the imports, exports, etc.", true, true},
		{"trailing and so on", "Then cleanup, validation, and so on", true, true},
		{"plain answer", "Paris is the capital of France.", true, false},
		{"empty", "", true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectIncompleteGoal(tc.text, tc.enabled); got != tc.want {
				t.Errorf("DetectIncompleteGoal(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestDetectIncompleteGoalIdempotent(t *testing.T) {
	text := "Moving on to the next step..."
	first := DetectIncompleteGoal(text, true)
	second := DetectIncompleteGoal(text, true)
	if first != second {
		t.Errorf("detector is not idempotent: %v then %v", first, second)
	}
}

func TestGenerateContinuationPrompt(t *testing.T) {
	cases := []struct {
		name string
		last string
		want string
	}{
		{"step wins", "I finished step one of the migration.", "Please continue with the next step."},
		{"question", "I found two options. Should I apply the first one?", "Yes, please proceed."},
		{"plan", "Here is my approach for the refactor.", "Please execute this plan."},
		{"fallback", "Some unrelated remark.", "Please continue with the task."},
		{"step beats question", "Next, should I delete it?", "Please continue with the next step."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			turns := []Turn{
				{Role: RoleUser, Content: "do the thing"},
				{Role: RoleAssistant, Content: tc.last},
			}
			if got := GenerateContinuationPrompt(turns); got != tc.want {
				t.Errorf("prompt = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerateContinuationPromptScansFromEnd(t *testing.T) {
	turns := []Turn{
		{Role: RoleAssistant, Content: "Here is my plan."},
		{Role: RoleUser, Content: "ok"},
		{Role: RoleAssistant, Content: "Unrelated closing remark."},
	}
	if got := GenerateContinuationPrompt(turns); got != "Please continue with the task." {
		t.Errorf("should use the most recent assistant turn, got %q", got)
	}
}

func TestAutoContinuationStateCap(t *testing.T) {
	state := NewAutoContinuationState(2, true)
	turns := []Turn{{Role: RoleAssistant, Content: "next step pending"}}
	text := "Moving on to the next step"

	var fired int
	for i := 0; i < 10; i++ {
		next, _, ok := state.Advance(text, turns)
		state = next
		if ok {
			fired++
		}
	}
	if fired != 2 {
		t.Errorf("continuation fired %d times, want 2", fired)
	}
	if state.IterationCount != 2 {
		t.Errorf("IterationCount = %d, want 2", state.IterationCount)
	}
}

func TestAutoContinuationStateResetOnHumanTurn(t *testing.T) {
	state := NewAutoContinuationState(1, true)
	state, _, ok := state.Advance("next step", nil)
	if !ok {
		t.Fatal("first advance should continue")
	}
	if _, _, ok := state.Advance("next step", nil); ok {
		t.Fatal("capped state must not continue")
	}
	state = state.ResetForHumanTurn()
	if _, _, ok := state.Advance("next step", nil); !ok {
		t.Error("reset state should continue again")
	}
}

func TestAutoContinuationStateDefaultMax(t *testing.T) {
	state := NewAutoContinuationState(0, true)
	if state.MaxIterations != DefaultMaxIterations {
		t.Errorf("MaxIterations = %d, want %d", state.MaxIterations, DefaultMaxIterations)
	}
}
