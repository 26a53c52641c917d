package humanoid

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/jitter"
)

// BehaviorOptions tunes one burst of ambient warm-up activity.
type BehaviorOptions struct {
	// Duration caps the total settle time spent between moves. Zero means
	// no cap.
	Duration time.Duration
	// Movements is the number of random pointer moves. Zero draws from the
	// configured warm-up range.
	Movements int
}

// SimulateBehavior wanders the pointer across the viewport, pausing after
// each move and occasionally scrolling the page with the wheel.
func (h *Humanoid) SimulateBehavior(ctx context.Context, opts BehaviorOptions) error {
	vp, err := h.executor.Viewport(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	movements := opts.Movements
	if movements <= 0 {
		movements = h.cfg.WarmupMovements.Sample()
	}
	budget := newSettleBudget(opts.Duration)
	h.logger.Debug("Simulating ambient behavior",
		zap.Int("movements", movements),
		zap.Duration("budget", opts.Duration))

	glide := config.IntRange{Min: max(1, h.cfg.PathSteps.Min/4), Max: max(1, h.cfg.PathSteps.Max/4)}
	for i := 0; i < movements; i++ {
		target := Point{X: jitter.Float(0, vp.Width), Y: jitter.Float(0, vp.Height)}
		plan := PlanTrajectory(h.currentPos, target, glide.Sample(), h.cfg).ClampTo(vp.Width, vp.Height)
		if err := h.play(ctx, plan); err != nil {
			return err
		}

		if err := h.executor.Sleep(ctx, budget.take(h.cfg.WarmupSettle.Sample())); err != nil {
			return err
		}

		if jitter.Chance(h.cfg.ScrollProbability) {
			if err := h.wheel(ctx, float64(jitter.Int(-h.cfg.ScrollDistance, h.cfg.ScrollDistance))); err != nil {
				return err
			}
		}
		if budget.spent() {
			h.logger.Debug("Behavior budget exhausted", zap.Int("completed", i+1))
			return nil
		}
	}
	return h.executor.Sleep(ctx, budget.take(h.cfg.WarmupSettle.Sample()))
}

// Drift glides the pointer to a random point within radius of its current
// position, as a hand does after a click.
func (h *Humanoid) Drift(ctx context.Context, radius float64, steps config.IntRange) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	target := h.currentPos.Add(Point{X: jitter.Float(-radius, radius), Y: jitter.Float(-radius, radius)})
	return h.play(ctx, PlanTrajectory(h.currentPos, target, steps.Sample(), h.cfg))
}

func (h *Humanoid) wheel(ctx context.Context, deltaY float64) error {
	h.logger.Debug("Wheel scroll", zap.Float64("deltaY", deltaY))
	return h.executor.DispatchMouseEvent(ctx, schemas.MouseEventData{
		Type:   schemas.MouseWheel,
		X:      h.currentPos.X,
		Y:      h.currentPos.Y,
		Button: schemas.ButtonNone,
		DeltaY: deltaY,
	})
}

// settleBudget tracks the remaining settle allowance of a behavior burst.
type settleBudget struct {
	limited   bool
	remaining time.Duration
}

func newSettleBudget(total time.Duration) *settleBudget {
	return &settleBudget{limited: total > 0, remaining: total}
}

// take returns want, shortened to what is left of the budget.
func (b *settleBudget) take(want time.Duration) time.Duration {
	if !b.limited {
		return want
	}
	d := min(want, b.remaining)
	b.remaining -= d
	return d
}

func (b *settleBudget) spent() bool {
	return b.limited && b.remaining <= 0
}
