// internal/browser/humanoid/interface.go
package humanoid

import (
	"context"
	"time"

	"github.com/xkilldash9x/mimic/api/schemas"
)

// Executor defines the low-level input device the Humanoid drives. All
// coordinates are in the top-level viewport's CSS pixel space.
type Executor interface {
	Sleep(ctx context.Context, d time.Duration) error
	DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error
	// SendKeys types the given text as individual keystrokes.
	SendKeys(ctx context.Context, keys string) error
	// DispatchStructuredKey presses a key combination such as ctrl+a. The
	// executor is responsible for the KeyDown and KeyUp sequence.
	DispatchStructuredKey(ctx context.Context, data schemas.KeyEventData) error
	Viewport(ctx context.Context) (schemas.Viewport, error)
}

// ControlKey defines constants for common control characters used in SendKeys.
type ControlKey string

const (
	KeyBackspace ControlKey = "\b"
	KeyEnter     ControlKey = "\r"
	KeyTab       ControlKey = "\t"
	KeyEscape    ControlKey = "\x1b"
)
