package domain

import "context"

// Oracle produces a generated reply for a visitor prompt. Implementations
// talk to an external text-generation service.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
