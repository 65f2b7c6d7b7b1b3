package ai

import "context"

// Generator describes an external model capable of turning a prompt into a
// free-text completion. Implementations own their sampling parameters; the
// caller only supplies the prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
