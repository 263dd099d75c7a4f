// Package convo implements the conversational core of the voice tutor: the
// per-session turn state machine, the ordered conversation history with
// follow-up merging, and the session manager.
package convo

import "strings"

// Role identifies the author of a history turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the ordered conversation log.
type Turn struct {
	Role    Role
	Content string
}

// continuationKeywords mark a new transcript as a continuation of the
// previous, still-unanswered user turn rather than a fresh question.
var continuationKeywords = []string{
	"also",
	"and",
	"by the way",
	"what about",
	"continue",
}

// IsFollowUp reports whether text reads as a continuation of the previous
// utterance (case-insensitive substring match).
func IsFollowUp(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range continuationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// History is the ordered conversation log for one session. It is not safe
// for concurrent use; callers hold the session's turn lock.
type History struct {
	turns []Turn
}

// AppendUser records a user transcript. When the previous turn is an
// unanswered user turn and text is a follow-up, the transcript is merged
// into that turn instead of opening a new one. The returned prompt is the
// full text the assistant should answer.
func (h *History) AppendUser(text string) (prompt string, merged bool) {
	if n := len(h.turns); n > 0 && h.turns[n-1].Role == RoleUser && IsFollowUp(text) {
		h.turns[n-1].Content += " " + text
		return h.turns[n-1].Content, true
	}
	h.turns = append(h.turns, Turn{Role: RoleUser, Content: text})
	return text, false
}

// AppendAssistant records an assistant reply.
func (h *History) AppendAssistant(text string) {
	h.turns = append(h.turns, Turn{Role: RoleAssistant, Content: text})
}

// Turns returns a copy of the log in order.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int { return len(h.turns) }

// Last returns the most recent turn, if any.
func (h *History) Last() (Turn, bool) {
	if len(h.turns) == 0 {
		return Turn{}, false
	}
	return h.turns[len(h.turns)-1], true
}

// Reset clears the log.
func (h *History) Reset() {
	h.turns = nil
}
