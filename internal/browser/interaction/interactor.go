// Package interaction performs element clicks and text entry with a person's
// pacing, retrying transient failures and reloading the page when they persist.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/internal/browser/dom"
	"github.com/xkilldash9x/mimic/internal/browser/humanoid"
	"github.com/xkilldash9x/mimic/internal/browser/shadowdom"
	"github.com/xkilldash9x/mimic/internal/config"
)

// Locator resolves selectors across frames and shadow roots.
// *shadowdom.Walker satisfies it.
type Locator interface {
	FindElementAcrossDocuments(ctx context.Context, page dom.Page, selector string, opts shadowdom.Options) (*dom.LocatedElement, error)
}

// Sleeper pauses in a cancellable way. The browser session implements it,
// as does any humanoid.Executor.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ClickOptions tunes a single HoverAndClick call. Zero values fall back to
// the configuration. Clicks only ever resolve visible elements, since a
// hidden match can never pass the actionability check.
type ClickOptions struct {
	MaxRetries int
	// Timeout bounds each element search.
	Timeout time.Duration
}

// TypeOptions tunes a single Type call.
type TypeOptions struct {
	Timeout time.Duration
	Visible bool
	// Clear selects and deletes any existing value before typing.
	Clear bool
}

// Interactor composes the locator and the humanoid into page interactions.
type Interactor struct {
	logger     *zap.Logger
	cfg        config.InteractionConfig
	locatorCfg config.LocatorConfig
	locator    Locator
	human      *humanoid.Humanoid
	sleeper    Sleeper
}

// NewInteractor wires an Interactor. A nil logger disables logging.
func NewInteractor(
	logger *zap.Logger,
	cfg config.InteractionConfig,
	locatorCfg config.LocatorConfig,
	locator Locator,
	human *humanoid.Humanoid,
	sleeper Sleeper,
) *Interactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{
		logger:     logger.Named("interactor"),
		cfg:        cfg,
		locatorCfg: locatorCfg,
		locator:    locator,
		human:      human,
		sleeper:    sleeper,
	}
}

// SimulateBehavior runs idle pointer activity on the page.
func (i *Interactor) SimulateBehavior(ctx context.Context, opts humanoid.BehaviorOptions) error {
	return i.human.SimulateBehavior(ctx, opts)
}

// HoverAndClick locates selector and clicks it the way a person would,
// retrying failed attempts with backoff and a page reload after every second
// failure. When every attempt fails the result is an *ExhaustedError.
// Cancellation of ctx is returned as is and never retried.
func (i *Interactor) HoverAndClick(ctx context.Context, page dom.Page, selector string, opts ClickOptions) error {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = i.cfg.MaxRetries
	}
	logger := i.logger.With(
		zap.String("op_id", uuid.NewString()),
		zap.String("selector", selector),
		zap.Int("max_retries", maxRetries),
	)
	rs := NewRetryState(maxRetries)

	for {
		switch rs.State {
		case StateAttempting:
			err := i.clickOnce(ctx, page, selector, opts, logger.With(zap.Int("attempt", rs.Attempt)))
			if err == nil {
				rs.Succeed()
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			logger.Warn("Click attempt failed.", zap.Int("attempt", rs.Attempt), zap.Error(err))
			rs.Fail(err)

		case StateBackoff:
			if err := i.sleep(ctx, i.cfg.Backoff.Sample()); err != nil {
				return err
			}
			rs.BackoffDone()

		case StateReloadPending:
			logger.Info("Reloading page before the next attempt.", zap.Int("failed_attempts", rs.Attempt))
			if err := i.reload(ctx, page); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				// The next attempt decides whether the page is usable.
				logger.Warn("Page reload failed.", zap.Error(err))
			}
			if err := i.sleep(ctx, i.cfg.ReloadSettle.Sample()); err != nil {
				return err
			}
			rs.ReloadDone()

		case StateSucceeded:
			logger.Debug("Click succeeded.", zap.Int("attempts", rs.Attempt))
			return nil

		case StateExhausted:
			err := rs.Err()
			logger.Error("Click retries exhausted.", zap.Error(err))
			return err
		}
	}
}

func (i *Interactor) reload(ctx context.Context, page dom.Page) error {
	rctx := ctx
	if i.cfg.ReloadTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, i.cfg.ReloadTimeout)
		defer cancel()
	}
	return page.Reload(rctx)
}

func (i *Interactor) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return i.sleeper.Sleep(ctx, d)
}

func (i *Interactor) locate(ctx context.Context, page dom.Page, selector string, timeout time.Duration, visible bool) (*dom.LocatedElement, error) {
	return i.locator.FindElementAcrossDocuments(ctx, page, selector, shadowdom.Options{
		Timeout: timeout,
		Visible: visible || i.locatorCfg.VisibleOnly,
	})
}

// target resolves the element's viewport box and a click point inside it.
func (i *Interactor) target(ctx context.Context, located *dom.LocatedElement) (dom.Offset, humanoid.Point, error) {
	off, err := located.Context.Offset(ctx)
	if err != nil {
		return dom.Offset{}, humanoid.Point{}, err
	}
	box, err := located.Element.BoundingBox(ctx)
	if err != nil {
		return dom.Offset{}, humanoid.Point{}, fmt.Errorf("could not read bounding box: %w", err)
	}
	return off, i.human.ClickablePoint(box.Translate(off.X, off.Y)), nil
}

// Type focuses the element matched by selector and types text into it.
func (i *Interactor) Type(ctx context.Context, page dom.Page, selector, text string, opts TypeOptions) error {
	logger := i.logger.With(zap.String("op_id", uuid.NewString()), zap.String("selector", selector))

	located, err := i.locate(ctx, page, selector, opts.Timeout, opts.Visible)
	if err != nil {
		return fmt.Errorf("could not locate input: %w", err)
	}
	el := located.Element

	if err := el.ScrollIntoView(ctx); err != nil {
		return fmt.Errorf("could not scroll input into view: %w", err)
	}
	_, point, err := i.target(ctx, located)
	if err != nil {
		return err
	}
	if err := i.human.MoveTo(ctx, point, i.human.Config().PathSteps); err != nil {
		return err
	}
	if err := i.human.Click(ctx, point); err != nil {
		return err
	}

	if err := i.ensureFocus(ctx, el); err != nil {
		return err
	}
	if opts.Clear {
		if err := i.human.ClearField(ctx); err != nil {
			return err
		}
	}
	if err := i.human.Type(ctx, text); err != nil {
		return err
	}
	logger.Debug("Typed into element.", zap.String("element", el.Description()), zap.Int("runes", len([]rune(text))))
	return nil
}

func (i *Interactor) ensureFocus(ctx context.Context, el dom.Element) error {
	focused, err := el.MatchesAny(ctx, ":focus", ":focus-within")
	if err == nil && focused {
		return nil
	}
	// The click may have landed on a label or an overlay. Focus directly.
	if ferr := el.Focus(ctx); ferr != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotFocused, el.Description(), ferr)
	}
	focused, err = el.MatchesAny(ctx, ":focus", ":focus-within")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotFocused, el.Description(), err)
	}
	if !focused {
		return fmt.Errorf("%w: %s", ErrNotFocused, el.Description())
	}
	return nil
}

// isCancellation reports whether err came from ctx itself.
func isCancellation(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
