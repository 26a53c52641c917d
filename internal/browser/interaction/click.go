package interaction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/mimic/internal/browser/dom"
	"github.com/xkilldash9x/mimic/internal/browser/humanoid"
)

var pressedStates = []string{":active", ":focus", ":focus-within"}

// clickOnce is a single attempt: settle, locate, check actionability, warm
// up, approach, scroll, dispatch the event sequence and press the button.
func (i *Interactor) clickOnce(ctx context.Context, page dom.Page, selector string, opts ClickOptions, logger *zap.Logger) error {
	if err := i.sleep(ctx, i.cfg.InitialSettle.Sample()); err != nil {
		return err
	}

	located, err := i.locate(ctx, page, selector, opts.Timeout, true)
	if err != nil {
		return err
	}
	el := located.Element
	logger = logger.With(zap.String("element", el.Description()), zap.String("frame_path", located.Context.Path()))

	state, err := el.Actionability(ctx)
	if err != nil {
		return fmt.Errorf("actionability probe failed: %w", err)
	}
	if !state.Clickable() {
		return fmt.Errorf("%w: %s is %s", ErrNotClickable, el.Description(), state.Reason())
	}

	off, point, err := i.target(ctx, located)
	if err != nil {
		return err
	}

	if err := i.human.SimulateBehavior(ctx, humanoid.BehaviorOptions{
		Duration:  i.cfg.WarmupDuration.Sample(),
		Movements: i.cfg.WarmupMovements.Sample(),
	}); err != nil {
		return fmt.Errorf("warm-up failed: %w", err)
	}
	if err := i.human.Approach(ctx, point); err != nil {
		return fmt.Errorf("approach failed: %w", err)
	}

	if off, point, err = i.scrollTo(ctx, located, point); err != nil {
		return err
	}
	if err := i.sleep(ctx, i.cfg.PreClickSettle.Sample()); err != nil {
		return err
	}

	local := point.Sub(humanoid.Point{X: off.X, Y: off.Y})
	if err := el.DispatchEvents(ctx, InteractionSequence(local.X, local.Y)); err != nil {
		return fmt.Errorf("event dispatch failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return i.human.Click(gctx, point)
	})
	g.Go(func() error {
		return i.awaitPressedState(gctx, el, logger)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := i.sleep(ctx, i.cfg.PostClickSettle.Sample()); err != nil {
		return err
	}
	if err := i.human.Drift(ctx, i.cfg.PostClickDrift, i.cfg.PostClickSteps); err != nil {
		return fmt.Errorf("post-click drift failed: %w", err)
	}
	logger.Debug("Clicked element.", zap.Float64("x", point.X), zap.Float64("y", point.Y))
	return nil
}

// scrollTo brings the element into view and waits out its transition. If the
// scroll moved the element away from the pointer, the pointer follows it.
func (i *Interactor) scrollTo(ctx context.Context, located *dom.LocatedElement, point humanoid.Point) (dom.Offset, humanoid.Point, error) {
	el := located.Element
	if err := el.ScrollIntoView(ctx); err != nil {
		return dom.Offset{}, point, fmt.Errorf("scroll into view failed: %w", err)
	}
	if d, err := el.TransitionDuration(ctx); err == nil {
		if err := i.sleep(ctx, d); err != nil {
			return dom.Offset{}, point, err
		}
	} else if isCancellation(ctx, err) {
		return dom.Offset{}, point, err
	}

	off, err := located.Context.Offset(ctx)
	if err != nil {
		return dom.Offset{}, point, err
	}
	box, err := el.BoundingBox(ctx)
	if err != nil {
		return dom.Offset{}, point, fmt.Errorf("could not read bounding box: %w", err)
	}
	box = box.Translate(off.X, off.Y)
	if box.Contains(point.X, point.Y) {
		return off, point, nil
	}
	corrected := i.human.ClickablePoint(box)
	if err := i.human.MoveTo(ctx, corrected, i.cfg.PostClickSteps); err != nil {
		return dom.Offset{}, point, fmt.Errorf("post-scroll correction failed: %w", err)
	}
	return off, corrected, nil
}

// awaitPressedState watches for the page to register the press. Not seeing
// it within the timeout is logged, not fatal.
func (i *Interactor) awaitPressedState(ctx context.Context, el dom.Element, logger *zap.Logger) error {
	if i.cfg.PseudostateTimeout <= 0 {
		return nil
	}
	wctx, cancel := context.WithTimeout(ctx, i.cfg.PseudostateTimeout)
	defer cancel()

	poll := i.cfg.PseudostatePoll
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if ok, err := el.MatchesAny(wctx, pressedStates...); err == nil && ok {
			return nil
		}
		select {
		case <-wctx.Done():
			if ctx.Err() == nil {
				logger.Debug("Pressed state not observed before timeout.", zap.Duration("timeout", i.cfg.PseudostateTimeout))
			}
			return nil
		case <-ticker.C:
		}
	}
}
