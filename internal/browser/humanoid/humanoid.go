// internal/browser/humanoid/humanoid.go
package humanoid

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/jitter"
)

// Humanoid drives an Executor with pointer and keyboard input whose timing and
// geometry follow human motor patterns.
type Humanoid struct {
	// mu serializes public operations. Internal helpers assume it is held.
	mu       sync.Mutex
	cfg      config.HumanoidConfig
	logger   *zap.Logger
	executor Executor

	currentPos Point
	noiseX     *perlin.Perlin
	noiseY     *perlin.Perlin
	noiseTime  float64
}

// New creates a Humanoid. The pointer is assumed to start at the viewport origin.
func New(cfg config.HumanoidConfig, logger *zap.Logger, executor Executor) *Humanoid {
	return newWithSeed(cfg, logger, executor, time.Now().UnixNano())
}

func newWithSeed(cfg config.HumanoidConfig, logger *zap.Logger, executor Executor, seed int64) *Humanoid {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Standard Perlin parameters; the two axes get decorrelated seeds.
	alpha, beta, n := 2.0, 2.0, int32(3)
	return &Humanoid{
		cfg:      cfg,
		logger:   logger.Named("humanoid"),
		executor: executor,
		noiseX:   perlin.NewPerlin(alpha, beta, n, seed),
		noiseY:   perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// Config returns the parameters the Humanoid was built with.
func (h *Humanoid) Config() config.HumanoidConfig {
	return h.cfg
}

// Position is the last pointer location dispatched.
func (h *Humanoid) Position() Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentPos
}

// ClickablePoint picks a point inside box, inset by a random fraction of its
// width and height so it is never the exact center or an edge.
func (h *Humanoid) ClickablePoint(box schemas.Rect) Point {
	return Point{
		X: box.X + box.Width*h.cfg.ClickInset.Sample(),
		Y: box.Y + box.Height*h.cfg.ClickInset.Sample(),
	}
}

// RandomViewportPoint returns a uniformly random point inside the viewport.
func (h *Humanoid) RandomViewportPoint(ctx context.Context) (Point, error) {
	vp, err := h.viewport(ctx)
	if err != nil {
		return Point{}, err
	}
	return randomPointIn(vp), nil
}

func (h *Humanoid) viewport(ctx context.Context) (schemas.Viewport, error) {
	vp, err := h.executor.Viewport(ctx)
	if err != nil {
		return schemas.Viewport{}, fmt.Errorf("humanoid: failed to read viewport: %w", err)
	}
	return vp, nil
}

func randomPointIn(vp schemas.Viewport) Point {
	return Point{X: jitter.Float(0, vp.Width), Y: jitter.Float(0, vp.Height)}
}

// moveTo dispatches one pointer move and records the new position.
func (h *Humanoid) moveTo(ctx context.Context, p Point) error {
	err := h.executor.DispatchMouseEvent(ctx, schemas.MouseEventData{
		Type:   schemas.MouseMove,
		X:      p.X,
		Y:      p.Y,
		Button: schemas.ButtonNone,
	})
	if err != nil {
		if ctx.Err() == nil {
			h.logger.Warn("Failed to dispatch mouse move event", zap.Error(err))
		}
		return err
	}
	h.currentPos = p
	return nil
}
