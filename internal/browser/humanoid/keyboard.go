package humanoid

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/jitter"
)

// Type enters text into the focused element one keystroke at a time. It waits
// a focus settle first, spaces keystrokes by a randomized delay, sometimes
// inserts a longer thinking pause, and finishes with a short settle.
func (h *Humanoid) Type(ctx context.Context, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.executor.Sleep(ctx, h.cfg.FocusSettle.Sample()); err != nil {
		return err
	}

	pauses := 0
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.executor.SendKeys(ctx, string(r)); err != nil {
			return fmt.Errorf("humanoid: failed to send key '%c': %w", r, err)
		}
		if err := h.executor.Sleep(ctx, h.cfg.KeyDelay.Sample()); err != nil {
			return err
		}
		if jitter.Chance(h.cfg.ThinkProbability) {
			pauses++
			if err := h.executor.Sleep(ctx, h.cfg.ThinkPause.Sample()); err != nil {
				return err
			}
		}
	}
	h.logger.Debug("Typed text", zap.Int("runes", len([]rune(text))), zap.Int("thinking_pauses", pauses))

	return h.executor.Sleep(ctx, h.cfg.TypingSettle.Sample())
}

// ClearField selects the focused field's content and deletes it.
func (h *Humanoid) ClearField(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.executor.DispatchStructuredKey(ctx, schemas.KeyEventData{Key: "a", Modifiers: selectAllModifier()}); err != nil {
		return fmt.Errorf("humanoid: select-all failed: %w", err)
	}
	if err := h.executor.Sleep(ctx, h.cfg.KeyDelay.Sample()); err != nil {
		return err
	}
	return h.executor.SendKeys(ctx, string(KeyBackspace))
}

// selectAllModifier is Cmd on macOS and Ctrl elsewhere.
func selectAllModifier() schemas.KeyModifier {
	if runtime.GOOS == "darwin" {
		return schemas.ModMeta
	}
	return schemas.ModCtrl
}
