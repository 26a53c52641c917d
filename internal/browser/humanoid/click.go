// internal/browser/humanoid/click.go
package humanoid

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/mimic/api/schemas"
)

// Click presses and releases the left button at p, holding it for a
// randomized interval in between.
func (h *Humanoid) Click(ctx context.Context, p Point) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	press := schemas.MouseEventData{
		Type:       schemas.MousePress,
		X:          p.X,
		Y:          p.Y,
		Button:     schemas.ButtonLeft,
		Buttons:    1,
		ClickCount: 1,
	}
	if err := h.executor.DispatchMouseEvent(ctx, press); err != nil {
		return fmt.Errorf("humanoid: mouse press failed: %w", err)
	}
	h.currentPos = p

	holdErr := h.executor.Sleep(ctx, h.cfg.ClickHold.Sample())

	release := press
	release.Type = schemas.MouseRelease
	release.Buttons = 0
	// Release even when the hold was interrupted so the button is never left down.
	releaseCtx := ctx
	if holdErr != nil {
		releaseCtx = context.WithoutCancel(ctx)
	}
	if err := h.executor.DispatchMouseEvent(releaseCtx, release); err != nil {
		return fmt.Errorf("humanoid: mouse release failed: %w", err)
	}
	return holdErr
}
