// Package llm defines the Responder interface for language-model backends.
//
// The contract is deliberately narrow: the coordinator sends the (possibly
// merged) user prompt and receives the assistant's reply as plain text. The
// system prompt is part of the backend's configuration, not of each call.
//
// Implementations must be safe for concurrent use.
package llm

import "context"

// FallbackReply is substituted by the caller when a backend fails, so the
// conversation never stalls on an LLM outage.
const FallbackReply = "I'm sorry, I couldn't generate a response at the moment. Please try again later."

// DefaultSystemPrompt configures the assistant as a patient tutor for
// higher-education students.
const DefaultSystemPrompt = `You are a knowledgeable, patient AI tutor for higher-education students. Follow these rules:
1. Clarify vague questions before answering.
2. Teach step-by-step with clear goals and explanations.
3. Use examples and analogies for clarity.
4. Scaffold complex ideas by teaching subtopics first.
5. Confirm prerequisite knowledge.
6. Encourage students to attempt steps actively.
7. Maintain a supportive and non-judgmental tone.
8. Cite theorems or conventions when relevant.
9. Avoid guessing; ask for details when unsure.
10. End each response with a suggested next step.`

// Responder answers one user prompt with one assistant reply.
//
// Failures are returned as errors, never swallowed; a usable reply is
// always non-empty.
type Responder interface {
	Query(ctx context.Context, prompt string) (string, error)
}
