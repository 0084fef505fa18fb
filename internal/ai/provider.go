package ai

import "context"

// Provider is a text-generation backend. Implementations wrap one HTTP API
// and do no retrying or fallback themselves; that policy lives in the judge.
type Provider interface {
    Complete(ctx context.Context, model string, prompt string) (string, error)
}
