package llm

import "context"

// Responder generates a reply to the user's transcript. An empty string with
// a nil error signals "no response"; callers substitute local fallback text.
type Responder interface {
	Generate(ctx context.Context, userText, systemText string) (string, error)
}
