package dom

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/mimic/api/schemas"
)

// FrameContext identifies the frame holding a located element together with
// the chain of frames entered to reach it from the main document.
type FrameContext struct {
	Frame Frame
	// Stack lists the entered frames top-down. It is empty when Frame is the
	// main frame; otherwise its last entry is Frame.
	Stack []Frame
}

// Offset is a translation from frame-local to top-level viewport coordinates.
type Offset struct {
	X, Y float64
}

// Depth is the number of frame boundaries between the main document and the
// located element.
func (fc FrameContext) Depth() int { return len(fc.Stack) }

// Offset sums the owner rectangle origin of every frame in the stack.
func (fc FrameContext) Offset(ctx context.Context) (Offset, error) {
	var off Offset
	for _, f := range fc.Stack {
		r, err := f.OwnerRect(ctx)
		if err != nil {
			return Offset{}, fmt.Errorf("failed to read owner rect of frame %s: %w", f.ID(), err)
		}
		off.X += r.X
		off.Y += r.Y
	}
	return off, nil
}

// Path renders the frame ids of the stack for logging, e.g. "main>a>b".
func (fc FrameContext) Path() string {
	ids := []string{"main"}
	for _, f := range fc.Stack {
		ids = append(ids, f.ID())
	}
	return strings.Join(ids, ">")
}

// LocatedElement is the result of a cross-document search. It is valid only
// for the duration of the call that produced it.
type LocatedElement struct {
	Element Element
	Context FrameContext
	Visible bool
}

// ViewportBox returns the element's bounding box translated into top-level
// viewport coordinates.
func (le *LocatedElement) ViewportBox(ctx context.Context) (schemas.Rect, error) {
	box, err := le.Element.BoundingBox(ctx)
	if err != nil {
		return schemas.Rect{}, err
	}
	off, err := le.Context.Offset(ctx)
	if err != nil {
		return schemas.Rect{}, err
	}
	return box.Translate(off.X, off.Y), nil
}
