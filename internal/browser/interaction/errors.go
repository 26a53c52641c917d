package interaction

import (
	"errors"
	"fmt"
)

var (
	// ErrNotClickable means the element was found but failed the
	// actionability probe.
	ErrNotClickable = errors.New("element is not clickable")
	// ErrNotFocused means the element could not be focused for typing.
	ErrNotFocused = errors.New("element did not take focus")
	// ErrInteractionExhausted is matched by every *ExhaustedError.
	ErrInteractionExhausted = errors.New("interaction exhausted retries")
)

// ExhaustedError reports that every attempt failed. It unwraps to the error
// of the final attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("interaction exhausted retries after %d attempt(s), last error: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrInteractionExhausted }

func (e *ExhaustedError) Unwrap() error { return e.Last }
