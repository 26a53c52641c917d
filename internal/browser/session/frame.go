package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/browser/dom"
)

const readyPollInterval = 50 * time.Millisecond

// cdpFrame is a document in the tab's frame tree. Frame values are short
// lived: the walker asks for fresh ones on every pass. The isolated world
// outlives them, cached on the session per frame and document loader.
type cdpFrame struct {
	s      *Session
	parent *cdpFrame
	frame  *cdp.Frame
	// group is the object group every handle resolved through this frame
	// joins.
	group string
}

var _ dom.Frame = (*cdpFrame)(nil)

func newFrame(s *Session, parent *cdpFrame, f *cdp.Frame, group string) *cdpFrame {
	return &cdpFrame{s: s, parent: parent, frame: f, group: group}
}

func (f *cdpFrame) ID() string {
	if f.frame.Name != "" {
		return f.frame.Name
	}
	return string(f.frame.ID)
}

// worldID returns the isolated script world of the frame's current document,
// creating it on first use.
func (f *cdpFrame) worldID(ctx context.Context) (runtime.ExecutionContextID, error) {
	if id, ok := f.s.cachedWorld(f.frame.ID, f.frame.LoaderID); ok {
		return id, nil
	}
	f.s.worldMu.Lock()
	defer f.s.worldMu.Unlock()
	if id, ok := f.s.cachedWorld(f.frame.ID, f.frame.LoaderID); ok {
		return id, nil
	}

	var world runtime.ExecutionContextID
	err := f.s.do(ctx, func(ctx context.Context) error {
		var err error
		world, err = page.CreateIsolatedWorld(f.frame.ID).
			WithWorldName(isolatedWorldName).
			WithGrantUniveralAccess(true).
			Do(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("could not create script world in frame %s: %w", f.ID(), err)
	}
	f.s.storeWorld(f.frame.ID, f.frame.LoaderID, world)
	return world, nil
}

// evaluate runs expr in the frame's world.
func (f *cdpFrame) evaluate(ctx context.Context, expr string, byValue bool) (*runtime.RemoteObject, error) {
	world, err := f.worldID(ctx)
	if err != nil {
		return nil, err
	}
	var res *runtime.RemoteObject
	err = f.s.do(ctx, func(ctx context.Context) error {
		r, exc, err := runtime.Evaluate(expr).
			WithContextID(world).
			WithObjectGroup(f.group).
			WithReturnByValue(byValue).
			WithAwaitPromise(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exceptionError(exc)
		}
		res = r
		return nil
	})
	if err != nil {
		// The world dies with its document; the next call makes a new one.
		f.s.forgetWorld(f.frame.ID, world)
		return nil, err
	}
	return res, nil
}

func (f *cdpFrame) document(ctx context.Context) (*cdpScope, error) {
	obj, err := f.evaluate(ctx, "document", false)
	if err != nil {
		return nil, err
	}
	if obj.ObjectID == "" {
		return nil, fmt.Errorf("frame %s has no document", f.ID())
	}
	return &cdpScope{frame: f, obj: obj.ObjectID}, nil
}

func (f *cdpFrame) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	doc, err := f.document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.QueryAll(ctx, selector)
}

func (f *cdpFrame) ShadowRoots(ctx context.Context) ([]dom.Scope, error) {
	doc, err := f.document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.ShadowRoots(ctx)
}

func (f *cdpFrame) ChildFrames(ctx context.Context) ([]dom.Frame, error) {
	var tree *page.FrameTree
	err := f.s.do(ctx, func(ctx context.Context) error {
		var err error
		tree, err = page.GetFrameTree().Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not read frame tree: %w", err)
	}
	node := findFrame(tree, f.frame.ID)
	if node == nil {
		return nil, fmt.Errorf("frame %s is no longer attached", f.ID())
	}
	children := make([]dom.Frame, 0, len(node.ChildFrames))
	for _, child := range node.ChildFrames {
		if child == nil || child.Frame == nil {
			continue
		}
		children = append(children, newFrame(f.s, f, child.Frame, f.group))
	}
	return children, nil
}

func findFrame(tree *page.FrameTree, id cdp.FrameID) *page.FrameTree {
	if tree == nil || tree.Frame == nil {
		return nil
	}
	if tree.Frame.ID == id {
		return tree
	}
	for _, child := range tree.ChildFrames {
		if found := findFrame(child, id); found != nil {
			return found
		}
	}
	return nil
}

// OwnerRect reports the content box of the iframe element hosting this frame,
// in the parent document's coordinates. The main frame has no owner.
func (f *cdpFrame) OwnerRect(ctx context.Context) (schemas.Rect, error) {
	if f.parent == nil {
		return schemas.Rect{}, nil
	}
	world, err := f.parent.worldID(ctx)
	if err != nil {
		return schemas.Rect{}, err
	}

	var owner *runtime.RemoteObject
	err = f.s.do(ctx, func(ctx context.Context) error {
		backendID, _, err := cdpdom.GetFrameOwner(f.frame.ID).Do(ctx)
		if err != nil {
			return err
		}
		owner, err = cdpdom.ResolveNode().
			WithBackendNodeID(backendID).
			WithExecutionContextID(world).
			WithObjectGroup(f.group).
			Do(ctx)
		return err
	})
	if err != nil {
		return schemas.Rect{}, fmt.Errorf("could not resolve owner of frame %s: %w", f.ID(), err)
	}
	if owner == nil || owner.ObjectID == "" {
		return schemas.Rect{}, fmt.Errorf("frame %s has no owner element", f.ID())
	}
	defer f.s.release(ctx, owner.ObjectID)

	var rect schemas.Rect
	if err := f.s.callValue(ctx, owner.ObjectID, f.group, ownerContentFn, &rect); err != nil {
		return schemas.Rect{}, err
	}
	return rect, nil
}

// WaitReady polls the frame until its document has finished loading.
func (f *cdpFrame) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	var last error
	for {
		var state string
		obj, err := f.evaluate(ctx, readyStateScript, true)
		if err == nil {
			err = decodeValue(obj, &state)
		}
		if err == nil && state == "complete" {
			return nil
		}
		if err != nil {
			last = err
		}

		select {
		case <-ctx.Done():
			if last != nil {
				return fmt.Errorf("frame %s not ready: %w", f.ID(), errors.Join(ctx.Err(), last))
			}
			return fmt.Errorf("frame %s not ready (state %q): %w", f.ID(), state, ctx.Err())
		case <-ticker.C:
		}
	}
}

// cdpScope is a document or shadow root inside a frame's world.
type cdpScope struct {
	frame *cdpFrame
	obj   runtime.RemoteObjectID
}

var _ dom.Scope = (*cdpScope)(nil)

func (sc *cdpScope) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	arr, err := sc.frame.s.callOn(ctx, sc.obj, sc.frame.group, callFn(querySelectorAllFn, selector), false)
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", selector, err)
	}
	objs, err := sc.frame.s.unpackArray(ctx, arr, sc.frame.group)
	if err != nil {
		return nil, err
	}
	out := make([]dom.Element, len(objs))
	for i, o := range objs {
		out[i] = &cdpElement{frame: sc.frame, obj: o.ObjectID, desc: o.Description}
	}
	return out, nil
}

func (sc *cdpScope) ShadowRoots(ctx context.Context) ([]dom.Scope, error) {
	arr, err := sc.frame.s.callOn(ctx, sc.obj, sc.frame.group, shadowRootsFn, false)
	if err != nil {
		return nil, fmt.Errorf("shadow root scan failed: %w", err)
	}
	objs, err := sc.frame.s.unpackArray(ctx, arr, sc.frame.group)
	if err != nil {
		return nil, err
	}
	out := make([]dom.Scope, len(objs))
	for i, o := range objs {
		out[i] = &cdpScope{frame: sc.frame, obj: o.ObjectID}
	}
	return out, nil
}

// callOn invokes fn with `this` bound to obj. A returned object handle joins
// group.
func (s *Session) callOn(ctx context.Context, obj runtime.RemoteObjectID, group, fn string, byValue bool) (*runtime.RemoteObject, error) {
	var res *runtime.RemoteObject
	err := s.do(ctx, func(ctx context.Context) error {
		params := runtime.CallFunctionOn(fn).
			WithObjectID(obj).
			WithReturnByValue(byValue).
			WithAwaitPromise(true)
		if group != "" {
			params = params.WithObjectGroup(group)
		}
		r, exc, err := params.Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exceptionError(exc)
		}
		res = r
		return nil
	})
	return res, err
}

func (s *Session) callValue(ctx context.Context, obj runtime.RemoteObjectID, group, fn string, out any) error {
	res, err := s.callOn(ctx, obj, group, fn, true)
	if err != nil {
		return err
	}
	return decodeValue(res, out)
}

// unpackArray returns handles, in group, for each object in a remote array
// and releases the array itself.
func (s *Session) unpackArray(ctx context.Context, arr *runtime.RemoteObject, group string) ([]*runtime.RemoteObject, error) {
	if arr == nil || arr.ObjectID == "" {
		return nil, nil
	}
	defer s.release(ctx, arr.ObjectID)

	var n int
	if err := s.callValue(ctx, arr.ObjectID, group, arrayLengthFn, &n); err != nil {
		return nil, err
	}
	out := make([]*runtime.RemoteObject, 0, n)
	for i := 0; i < n; i++ {
		item, err := s.callOn(ctx, arr.ObjectID, group, callFn(arrayItemFn, i), false)
		if err != nil {
			return nil, err
		}
		if item != nil && item.ObjectID != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *Session) release(ctx context.Context, obj runtime.RemoteObjectID) {
	err := s.do(Detach(ctx), func(ctx context.Context) error {
		return runtime.ReleaseObject(obj).Do(ctx)
	})
	if err != nil {
		s.logger.Debug("Could not release remote object.", zap.Error(err))
	}
}
