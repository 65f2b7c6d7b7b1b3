package service

import (
	"errors"
	"fmt"
)

// ErrGenerationFailed covers the whole AI ingestion error family: transport
// failures, unparseable responses, and schema violations. Callers may retry
// or abort; existing data is never corrupted because commit only runs after
// validation passes.
var ErrGenerationFailed = errors.New("roadmap generation failed")

func generationFailed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrGenerationFailed, fmt.Sprintf(format, args...))
}
