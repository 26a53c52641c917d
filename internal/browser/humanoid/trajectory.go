// internal/browser/humanoid/trajectory.go
package humanoid

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/jitter"
)

// Step is one sample of a trajectory and the pause that follows it.
type Step struct {
	Point Point
	Delay time.Duration
}

// TrajectoryPlan is an ordered pointer path. It is consumed once by Play.
type TrajectoryPlan struct {
	Path  CubicPath
	Steps []Step
}

// Start is the first sample of the plan.
func (p TrajectoryPlan) Start() Point { return p.Steps[0].Point }

// End is the last sample of the plan.
func (p TrajectoryPlan) End() Point { return p.Steps[len(p.Steps)-1].Point }

// ClampTo confines every sample to the viewport rectangle [0, w] x [0, h].
func (p TrajectoryPlan) ClampTo(w, h float64) TrajectoryPlan {
	steps := make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = Step{Point: s.Point.Clamp(w, h), Delay: s.Delay}
	}
	return TrajectoryPlan{Path: p.Path, Steps: steps}
}

// PlanTrajectory samples a freshly randomized cubic path from start to end at
// steps+1 evenly spaced parameters, so the first sample is start and the last
// is end. Steps below 1 are raised to 1.
func PlanTrajectory(start, end Point, steps int, cfg config.HumanoidConfig) TrajectoryPlan {
	if steps < 1 {
		steps = 1
	}
	c1, c2 := BuildControlPoints(start, end, cfg)
	path := CubicPath{P0: start, P1: c1, P2: c2, P3: end}

	plan := TrajectoryPlan{Path: path, Steps: make([]Step, steps+1)}
	for i := 0; i <= steps; i++ {
		plan.Steps[i] = Step{
			Point: path.At(float64(i) / float64(steps)),
			Delay: cfg.StepDelay.Sample(),
		}
	}
	return plan
}

// Play dispatches every sample of plan in order, sleeping the planned delay
// after each.
func (h *Humanoid) Play(ctx context.Context, plan TrajectoryPlan) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.play(ctx, plan)
}

func (h *Humanoid) play(ctx context.Context, plan TrajectoryPlan) error {
	for _, s := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.moveTo(ctx, s.Point); err != nil {
			return err
		}
		if err := h.executor.Sleep(ctx, s.Delay); err != nil {
			return err
		}
	}
	return nil
}

// Approach moves the pointer from a random point in the viewport to target
// along a Bezier trajectory and then hovers there with micro-tremor. Samples
// that bow out of the viewport are pulled back to its edge; the final sample
// is always target itself.
func (h *Humanoid) Approach(ctx context.Context, target Point) error {
	vp, err := h.viewport(ctx)
	if err != nil {
		return err
	}
	start := randomPointIn(vp)

	h.mu.Lock()
	defer h.mu.Unlock()

	plan := PlanTrajectory(start, target, h.cfg.PathSteps.Sample(), h.cfg).ClampTo(vp.Width, vp.Height)
	plan.Steps[len(plan.Steps)-1].Point = target
	h.logger.Debug("Playing approach trajectory",
		zap.Int("samples", len(plan.Steps)),
		zap.Float64("distance", start.Dist(target)))
	if err := h.play(ctx, plan); err != nil {
		return err
	}
	return h.hoverSettle(ctx, target)
}

// MoveTo glides from the current pointer position to target in a number of
// steps drawn from steps, without hovering afterwards.
func (h *Humanoid) MoveTo(ctx context.Context, target Point, steps config.IntRange) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.play(ctx, PlanTrajectory(h.currentPos, target, steps.Sample(), h.cfg))
}

// HoverSettle holds the pointer near around for a randomized window,
// nudging it with small tremor moves.
func (h *Humanoid) HoverSettle(ctx context.Context, around Point) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hoverSettle(ctx, around)
}

// hoverSettle accounts elapsed time by summing its own sleeps, so the window
// is honoured by any Executor, including ones that do not block.
func (h *Humanoid) hoverSettle(ctx context.Context, around Point) error {
	window := h.cfg.HoverSettle.Sample()
	var elapsed time.Duration
	for elapsed < window {
		if err := h.moveTo(ctx, around.Add(h.tremor())); err != nil {
			return err
		}
		pause := h.cfg.HoverInterval.Sample()
		if err := h.executor.Sleep(ctx, pause); err != nil {
			return err
		}
		elapsed += max(pause, time.Millisecond)
	}
	return nil
}

// tremor combines smooth Perlin drift with a little white noise, clamped to
// the configured radius on each axis.
func (h *Humanoid) tremor() Point {
	r := h.cfg.HoverRadius
	if r <= 0 {
		return Point{}
	}
	// Non-integer stride keeps samples off the lattice where Perlin is zero.
	h.noiseTime += 0.37
	clamp := func(v float64) float64 { return math.Max(-r, math.Min(r, v)) }
	return Point{
		X: clamp(h.noiseX.Noise1D(h.noiseTime)*r + jitter.Float(-r, r)/2),
		Y: clamp(h.noiseY.Noise1D(h.noiseTime)*r + jitter.Float(-r, r)/2),
	}
}
