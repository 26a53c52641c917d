// Package shadowdom locates elements anywhere in a page: in the main
// document, inside open shadow roots, and inside nested frames at any depth.
package shadowdom

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/internal/browser/dom"
	"github.com/xkilldash9x/mimic/internal/config"
)

var (
	// ErrElementNotFound means at least one complete pass over the page found
	// no acceptable match before the search ended.
	ErrElementNotFound = errors.New("element not found")
	// ErrSearchTimeout means the deadline expired before any pass over the
	// page completed, so branches remained unexplored.
	ErrSearchTimeout = errors.New("element search timed out")
	// ErrIncompleteSearch is returned by single-pass searches that found no
	// match but had to skip part of the page. The element may still exist.
	ErrIncompleteSearch = errors.New("element search incomplete")
)

// Options tunes one search.
type Options struct {
	// Timeout bounds the whole search. Zero uses the configured default.
	Timeout time.Duration
	// Visible restricts matches to rendered elements.
	Visible bool
	// SinglePass stops after one full traversal instead of rescanning until
	// the deadline.
	SinglePass bool
}

// Walker performs depth-first searches across documents. It holds no
// per-search state and is safe for concurrent use.
type Walker struct {
	logger *zap.Logger
	cfg    config.LocatorConfig
}

// NewWalker creates a Walker.
func NewWalker(logger *zap.Logger, cfg config.LocatorConfig) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{logger: logger.Named("shadowdom"), cfg: cfg}
}

// found is a match plus the frames entered below the frame that reported it.
type found struct {
	el      dom.Element
	frame   dom.Frame
	stack   []dom.Frame
	visible bool
}

// FindElementAcrossDocuments searches page for the first element matching
// selector. At each frame, regular-tree matches win over shadow-root matches,
// which win over child frames; siblings are visited in document order.
//
// The search races a deadline. Errors confined to one branch, such as a frame
// detaching mid-search, are logged and the branch is skipped.
func (w *Walker) FindElementAcrossDocuments(ctx context.Context, page dom.Page, selector string, opts Options) (*dom.LocatedElement, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = w.cfg.Timeout
	}
	logger := w.logger.With(
		zap.String("search_id", uuid.NewString()),
		zap.String("selector", selector))

	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var passes atomic.Int32
	type outcome struct {
		located *dom.LocatedElement
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		located, err := w.scan(searchCtx, logger, page, selector, opts, &passes)
		done <- outcome{located, err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-searchCtx.Done():
		// A pass may have finished at the same instant.
		select {
		case res = <-done:
		default:
		}
	}

	switch {
	case res.located != nil:
		logger.Debug("Element located",
			zap.String("element", res.located.Element.Description()),
			zap.String("frames", res.located.Context.Path()),
			zap.Int32("passes", passes.Load()+1))
		return res.located, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(res.err, ErrIncompleteSearch):
		return nil, res.err
	case passes.Load() > 0:
		return nil, fmt.Errorf("%w: %q after %d pass(es)", ErrElementNotFound, selector, passes.Load())
	default:
		return nil, fmt.Errorf("%w: %q within %s", ErrSearchTimeout, selector, timeout)
	}
}

// scan runs passes until a match, the deadline, or (with SinglePass) the end
// of the first pass. Only passes that skipped nothing are counted.
func (w *Walker) scan(ctx context.Context, logger *zap.Logger, page dom.Page, selector string, opts Options, passes *atomic.Int32) (*dom.LocatedElement, error) {
	for {
		st := &passState{}
		located, err := w.pass(ctx, logger, st, page, selector, opts)
		if located != nil || err != nil {
			return located, err
		}
		if st.skipped == 0 {
			passes.Add(1)
		}
		if opts.SinglePass {
			if st.skipped > 0 {
				return nil, fmt.Errorf("%w: %q, %d branch(es) skipped: %w", ErrIncompleteSearch, selector, st.skipped, st.last)
			}
			return nil, ErrElementNotFound
		}

		t := time.NewTimer(w.rescanInterval())
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (w *Walker) rescanInterval() time.Duration {
	if w.cfg.RescanInterval > 0 {
		return w.cfg.RescanInterval
	}
	return 250 * time.Millisecond
}

// passState records the branches one pass could not search.
type passState struct {
	skipped int
	last    error
}

func (st *passState) skip(err error) {
	st.skipped++
	st.last = err
}

// pass is one traversal from the main frame. It returns an error only when
// ctx ends; skipped branches are recorded in st.
func (w *Walker) pass(ctx context.Context, logger *zap.Logger, st *passState, page dom.Page, selector string, opts Options) (*dom.LocatedElement, error) {
	main, err := page.MainFrame(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("Main frame unavailable", zap.Error(err))
		st.skip(err)
		return nil, nil
	}

	f, err := w.searchFrame(ctx, logger, st, main, selector, opts, 0)
	if err != nil || f == nil {
		return nil, err
	}
	return &dom.LocatedElement{
		Element: f.el,
		Context: dom.FrameContext{Frame: f.frame, Stack: f.stack},
		Visible: f.visible,
	}, nil
}

// searchFrame returns the first match within frame and its descendants. The
// stack of the returned match is relative to frame: the caller prepends the
// child it descended into, so each level composes its own contribution.
func (w *Walker) searchFrame(ctx context.Context, logger *zap.Logger, st *passState, frame dom.Frame, selector string, opts Options, depth int) (*found, error) {
	flog := logger.With(zap.String("frame", frame.ID()), zap.Int("depth", depth))

	// 1. Regular tree.
	els, err := frame.QueryAll(ctx, selector)
	if err := w.branchErr(ctx, flog, st, "query", err); err != nil {
		return nil, err
	}
	if m, err := w.accept(ctx, flog, st, els, opts); m != nil || err != nil {
		if m != nil {
			m.frame = frame
		}
		return m, err
	}

	// 2. Shadow roots, depth-first.
	roots, err := frame.ShadowRoots(ctx)
	if err := w.branchErr(ctx, flog, st, "shadow root enumeration", err); err != nil {
		return nil, err
	}
	for _, root := range roots {
		m, err := w.searchShadow(ctx, flog, st, root, selector, opts)
		if m != nil || err != nil {
			if m != nil {
				m.frame = frame
			}
			return m, err
		}
	}

	// 3. Child frames in document order.
	children, err := frame.ChildFrames(ctx)
	if err := w.branchErr(ctx, flog, st, "frame enumeration", err); err != nil {
		return nil, err
	}
	for _, child := range children {
		w.waitReady(ctx, flog, child)
		m, err := w.searchFrame(ctx, logger, st, child, selector, opts, depth+1)
		if err != nil {
			return nil, err
		}
		if m != nil {
			m.stack = append([]dom.Frame{child}, m.stack...)
			return m, nil
		}
	}
	return nil, nil
}

func (w *Walker) searchShadow(ctx context.Context, logger *zap.Logger, st *passState, root dom.Scope, selector string, opts Options) (*found, error) {
	els, err := root.QueryAll(ctx, selector)
	if err := w.branchErr(ctx, logger, st, "shadow query", err); err != nil {
		return nil, err
	}
	if m, err := w.accept(ctx, logger, st, els, opts); m != nil || err != nil {
		return m, err
	}

	nested, err := root.ShadowRoots(ctx)
	if err := w.branchErr(ctx, logger, st, "nested shadow root enumeration", err); err != nil {
		return nil, err
	}
	for _, n := range nested {
		if m, err := w.searchShadow(ctx, logger, st, n, selector, opts); m != nil || err != nil {
			return m, err
		}
	}
	return nil, nil
}

// accept returns the first candidate satisfying the visibility option. A
// candidate whose visibility cannot be read is skipped when it matters.
func (w *Walker) accept(ctx context.Context, logger *zap.Logger, st *passState, els []dom.Element, opts Options) (*found, error) {
	for _, el := range els {
		visible, err := el.IsVisible(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Debug("Visibility check failed", zap.String("element", el.Description()), zap.Error(err))
			visible = false
			if opts.Visible {
				st.skip(err)
			}
		}
		if opts.Visible && !visible {
			continue
		}
		return &found{el: el, visible: visible}, nil
	}
	return nil, nil
}

// branchErr logs a per-branch failure and records it as skipped, unless the
// search context itself has ended.
func (w *Walker) branchErr(ctx context.Context, logger *zap.Logger, st *passState, what string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger.Debug("Skipping branch after "+what+" failure", zap.Error(err))
	st.skip(err)
	return nil
}

// waitReady gives a child frame a bounded chance to finish loading. Failure
// is ignored; the frame is searched in whatever state it is in.
func (w *Walker) waitReady(ctx context.Context, logger *zap.Logger, frame dom.Frame) {
	limit := w.cfg.FrameReadyTimeout
	if limit <= 0 {
		return
	}
	readyCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	if err := frame.WaitReady(readyCtx); err != nil && ctx.Err() == nil {
		logger.Debug("Frame not ready, searching anyway", zap.String("child", frame.ID()), zap.Error(err))
	}
}
