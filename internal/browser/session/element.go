package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/browser/dom"
)

// cdpElement is a handle to a DOM element in a frame's isolated world.
type cdpElement struct {
	frame *cdpFrame
	obj   runtime.RemoteObjectID
	desc  string
}

var _ dom.Element = (*cdpElement)(nil)

func (e *cdpElement) call(ctx context.Context, fn string, out any) error {
	if err := e.frame.s.callValue(ctx, e.obj, e.frame.group, fn, out); err != nil {
		return fmt.Errorf("%s: %w", e.Description(), err)
	}
	return nil
}

func (e *cdpElement) IsVisible(ctx context.Context) (bool, error) {
	var ok bool
	err := e.call(ctx, visibleFn, &ok)
	return ok, err
}

func (e *cdpElement) Actionability(ctx context.Context) (dom.Actionability, error) {
	var a dom.Actionability
	err := e.call(ctx, actionabilityFn, &a)
	return a, err
}

func (e *cdpElement) BoundingBox(ctx context.Context) (schemas.Rect, error) {
	var r schemas.Rect
	err := e.call(ctx, boundingBoxFn, &r)
	return r, err
}

func (e *cdpElement) ScrollIntoView(ctx context.Context) error {
	var ok bool
	return e.call(ctx, scrollIntoViewFn, &ok)
}

func (e *cdpElement) TransitionDuration(ctx context.Context) (time.Duration, error) {
	var ms float64
	if err := e.call(ctx, transitionFn, &ms); err != nil {
		return 0, err
	}
	if ms <= 0 {
		return 0, nil
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

func (e *cdpElement) DispatchEvents(ctx context.Context, events []dom.SyntheticEvent) error {
	var n int
	return e.call(ctx, callFn(dispatchEventsFn, events), &n)
}

func (e *cdpElement) MatchesAny(ctx context.Context, selectors ...string) (bool, error) {
	var ok bool
	err := e.call(ctx, callFn(matchesAnyFn, selectors), &ok)
	return ok, err
}

func (e *cdpElement) Focus(ctx context.Context) error {
	var ok bool
	if err := e.call(ctx, focusFn, &ok); err != nil {
		return err
	}
	if !ok {
		return errors.New(e.Description() + " did not accept focus")
	}
	return nil
}

func (e *cdpElement) Description() string {
	if e.desc == "" {
		return "<element>"
	}
	return e.desc
}
