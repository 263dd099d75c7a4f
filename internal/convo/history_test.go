package convo_test

import (
	"testing"

	"github.com/MrWong99/voicetutor/internal/convo"
)

func TestIsFollowUp(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"also explain that", true},
		{"Also explain that", true},
		{"and what comes next", true},
		{"by the way, is that right?", true},
		{"what about integrals", true},
		{"please continue", true},
		{"what is a derivative", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := convo.IsFollowUp(tc.text); got != tc.want {
			t.Errorf("IsFollowUp(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestHistory_AppendAndOrder(t *testing.T) {
	var h convo.History

	prompt, merged := h.AppendUser("what is a derivative")
	if merged {
		t.Error("first utterance reported as merged")
	}
	if prompt != "what is a derivative" {
		t.Errorf("prompt = %q", prompt)
	}
	h.AppendAssistant("a derivative measures change")

	turns := h.Turns()
	if len(turns) != 2 {
		t.Fatalf("len = %d, want 2", len(turns))
	}
	if turns[0].Role != convo.RoleUser || turns[1].Role != convo.RoleAssistant {
		t.Errorf("roles = %v/%v", turns[0].Role, turns[1].Role)
	}
}

func TestHistory_FollowUpMergesIntoUnansweredTurn(t *testing.T) {
	var h convo.History

	h.AppendUser("what is a derivative")
	prompt, merged := h.AppendUser("and also explain limits")

	if !merged {
		t.Fatal("follow-up was not merged")
	}
	want := "what is a derivative and also explain limits"
	if prompt != want {
		t.Errorf("prompt = %q, want %q", prompt, want)
	}
	if h.Len() != 1 {
		t.Errorf("len = %d, want 1 merged turn", h.Len())
	}
	last, _ := h.Last()
	if last.Content != want {
		t.Errorf("merged content = %q, want %q", last.Content, want)
	}
}

func TestHistory_FollowUpAfterAnswerOpensNewTurn(t *testing.T) {
	var h convo.History

	h.AppendUser("what is a derivative")
	h.AppendAssistant("a rate of change")

	// The previous turn is answered, so even continuation phrasing starts
	// a new turn.
	_, merged := h.AppendUser("and what about integrals")
	if merged {
		t.Error("merged into an answered turn")
	}
	if h.Len() != 3 {
		t.Errorf("len = %d, want 3", h.Len())
	}
}

func TestHistory_NonFollowUpNeverMerges(t *testing.T) {
	var h convo.History

	h.AppendUser("what is a derivative")
	_, merged := h.AppendUser("explain matrices")
	if merged {
		t.Error("non-continuation utterance merged")
	}
	if h.Len() != 2 {
		t.Errorf("len = %d, want 2", h.Len())
	}
}

func TestHistory_Reset(t *testing.T) {
	var h convo.History
	h.AppendUser("hello")
	h.AppendAssistant("hi")
	h.Reset()

	if h.Len() != 0 {
		t.Errorf("len after reset = %d, want 0", h.Len())
	}
	if _, ok := h.Last(); ok {
		t.Error("Last returned a turn after reset")
	}
}

func TestHistory_TurnsReturnsCopy(t *testing.T) {
	var h convo.History
	h.AppendUser("hello")

	turns := h.Turns()
	turns[0].Content = "mutated"

	fresh := h.Turns()
	if fresh[0].Content != "hello" {
		t.Error("Turns exposed internal state")
	}
}
