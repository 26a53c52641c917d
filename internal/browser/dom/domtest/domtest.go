// Package domtest provides an in-memory document tree implementing the dom
// contract, for exercising locators and interaction logic without a browser.
//
// Selectors are matched by exact string membership in Element.Selectors; the
// fake does not parse CSS. Every call honours ctx and the owning frame's
// Latency so tests can model slow or hanging documents.
package domtest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/browser/dom"
)

// ErrDetached is returned by operations on a detached frame or element.
var ErrDetached = errors.New("domtest: node is detached")

// Page is a fake top-level document.
type Page struct {
	Main     *Frame
	View     schemas.Viewport
	MainErr  error
	ReloadFn func(ctx context.Context) error

	reloads atomic.Int32
}

var _ dom.Page = (*Page)(nil)

// NewPage returns a page with an empty main frame and a 1280x800 viewport.
func NewPage() *Page {
	return &Page{Main: NewFrame("main"), View: schemas.Viewport{Width: 1280, Height: 800}}
}

func (p *Page) MainFrame(ctx context.Context) (dom.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.MainErr != nil {
		return nil, p.MainErr
	}
	return p.Main, nil
}

func (p *Page) Viewport(ctx context.Context) (schemas.Viewport, error) {
	return p.View, ctx.Err()
}

func (p *Page) Reload(ctx context.Context) error {
	p.reloads.Add(1)
	if p.ReloadFn != nil {
		return p.ReloadFn(ctx)
	}
	return ctx.Err()
}

// Reloads counts Reload calls.
func (p *Page) Reloads() int { return int(p.reloads.Load()) }

// Frame is a fake document. Fields may be set before use; the mutating
// helpers are safe to call while a search is running.
type Frame struct {
	Name    string
	Owner   schemas.Rect
	Latency time.Duration

	QueryErr    error
	ShadowErr   error
	ChildrenErr error
	OwnerErr    error
	ReadyErr    error
	// OnQuery runs at the start of every QueryAll on this frame.
	OnQuery func(selector string)

	mu       sync.Mutex
	root     *ShadowRoot
	children []*Frame
	queries  atomic.Int32
	readies  atomic.Int32
}

var _ dom.Frame = (*Frame)(nil)

// NewFrame returns an empty frame.
func NewFrame(name string) *Frame {
	return &Frame{Name: name, root: &ShadowRoot{}}
}

// Add appends elements to the frame's regular tree.
func (f *Frame) Add(els ...*Element) *Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.root.Add(els...)
	return f
}

// AddShadow attaches open shadow roots hosted by the frame's regular tree.
func (f *Frame) AddShadow(roots ...*ShadowRoot) *Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.root.AddShadow(roots...)
	return f
}

// AddChild appends child frames in document order.
func (f *Frame) AddChild(children ...*Frame) *Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.children = append(f.children, children...)
	return f
}

// Queries counts QueryAll calls.
func (f *Frame) Queries() int { return int(f.queries.Load()) }

// ReadyWaits counts WaitReady calls.
func (f *Frame) ReadyWaits() int { return int(f.readies.Load()) }

func (f *Frame) ID() string { return f.Name }

func (f *Frame) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	f.queries.Add(1)
	if f.OnQuery != nil {
		f.OnQuery(selector)
	}
	if err := f.pause(ctx); err != nil {
		return nil, err
	}
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.root.match(selector), nil
}

func (f *Frame) ShadowRoots(ctx context.Context) ([]dom.Scope, error) {
	if err := f.pause(ctx); err != nil {
		return nil, err
	}
	if f.ShadowErr != nil {
		return nil, f.ShadowErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.root.scopes(), nil
}

func (f *Frame) ChildFrames(ctx context.Context) ([]dom.Frame, error) {
	if err := f.pause(ctx); err != nil {
		return nil, err
	}
	if f.ChildrenErr != nil {
		return nil, f.ChildrenErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dom.Frame, len(f.children))
	for i, c := range f.children {
		out[i] = c
	}
	return out, nil
}

func (f *Frame) OwnerRect(ctx context.Context) (schemas.Rect, error) {
	if err := f.pause(ctx); err != nil {
		return schemas.Rect{}, err
	}
	return f.Owner, f.OwnerErr
}

func (f *Frame) WaitReady(ctx context.Context) error {
	f.readies.Add(1)
	if err := f.pause(ctx); err != nil {
		return err
	}
	return f.ReadyErr
}

func (f *Frame) pause(ctx context.Context) error {
	return sleep(ctx, f.Latency)
}

// ShadowRoot is a fake open shadow root.
type ShadowRoot struct {
	QueryErr error

	elements []*Element
	shadows  []*ShadowRoot
}

var _ dom.Scope = (*ShadowRoot)(nil)

// NewShadowRoot returns a shadow root holding els.
func NewShadowRoot(els ...*Element) *ShadowRoot {
	return &ShadowRoot{elements: els}
}

func (s *ShadowRoot) Add(els ...*Element) *ShadowRoot {
	s.elements = append(s.elements, els...)
	return s
}

func (s *ShadowRoot) AddShadow(roots ...*ShadowRoot) *ShadowRoot {
	s.shadows = append(s.shadows, roots...)
	return s
}

func (s *ShadowRoot) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	return s.match(selector), nil
}

func (s *ShadowRoot) ShadowRoots(ctx context.Context) ([]dom.Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.scopes(), nil
}

func (s *ShadowRoot) match(selector string) []dom.Element {
	var out []dom.Element
	for _, el := range s.elements {
		if el.Matches(selector) {
			out = append(out, el)
		}
	}
	return out
}

func (s *ShadowRoot) scopes() []dom.Scope {
	out := make([]dom.Scope, len(s.shadows))
	for i, r := range s.shadows {
		out[i] = r
	}
	return out
}

// Element is a fake element handle.
type Element struct {
	Name      string
	Selectors []string
	Box       schemas.Rect
	Hidden    bool
	Disabled  bool
	// OccludedBy, when set, makes the center hit test land on that node.
	OccludedBy string
	Transition time.Duration
	// Pseudo lists the pseudo-classes the element matches after it is clicked.
	Pseudo []string

	VisibleErr  error
	ActionErr   error
	DispatchErr error
	FocusErr    error
	// ActionabilityFn, when set, replaces the computed actionability.
	ActionabilityFn func() dom.Actionability

	mu       sync.Mutex
	detached bool
	focused  bool
	events   []dom.SyntheticEvent
	scrolls  int
}

var _ dom.Element = (*Element)(nil)

// NewElement returns a visible, enabled element with a 100x40 box at (10, 10).
func NewElement(name string, selectors ...string) *Element {
	return &Element{
		Name:      name,
		Selectors: selectors,
		Box:       schemas.Rect{X: 10, Y: 10, Width: 100, Height: 40},
	}
}

// Matches reports whether the element is attached and carries selector.
func (e *Element) Matches(selector string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.detached && slices.Contains(e.Selectors, selector)
}

// Detach removes the element from query results and fails later calls.
func (e *Element) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detached = true
}

// Events returns a copy of the synthetic events dispatched so far.
func (e *Element) Events() []dom.SyntheticEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.events)
}

// Scrolls counts ScrollIntoView calls.
func (e *Element) Scrolls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scrolls
}

// Focused reports whether Focus succeeded or a focus event was dispatched.
func (e *Element) Focused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focused
}

func (e *Element) live(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.detached {
		return ErrDetached
	}
	return nil
}

func (e *Element) IsVisible(ctx context.Context) (bool, error) {
	if err := e.live(ctx); err != nil {
		return false, err
	}
	if e.VisibleErr != nil {
		return false, e.VisibleErr
	}
	return !e.Hidden, nil
}

func (e *Element) Actionability(ctx context.Context) (dom.Actionability, error) {
	if err := ctx.Err(); err != nil {
		return dom.Actionability{}, err
	}
	if e.ActionErr != nil {
		return dom.Actionability{}, e.ActionErr
	}
	if e.ActionabilityFn != nil {
		return e.ActionabilityFn(), nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return dom.Actionability{
		Attached: !e.detached,
		Visible:  !e.Hidden,
		HasArea:  !e.Box.Empty(),
		Occluded: e.OccludedBy != "",
		Disabled: e.Disabled,
		HitNode:  e.OccludedBy,
	}, nil
}

func (e *Element) BoundingBox(ctx context.Context) (schemas.Rect, error) {
	if err := e.live(ctx); err != nil {
		return schemas.Rect{}, err
	}
	return e.Box, nil
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	if err := e.live(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scrolls++
	return nil
}

func (e *Element) TransitionDuration(ctx context.Context) (time.Duration, error) {
	if err := e.live(ctx); err != nil {
		return 0, err
	}
	return e.Transition, nil
}

func (e *Element) DispatchEvents(ctx context.Context, events []dom.SyntheticEvent) error {
	if err := e.live(ctx); err != nil {
		return err
	}
	if e.DispatchErr != nil {
		return e.DispatchErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, events...)
	for _, ev := range events {
		if ev.Type == "focus" || ev.Type == "focusin" {
			e.focused = true
		}
	}
	return nil
}

// MatchesAny matches ":focus" once the element is focused and any entry of
// Pseudo once at least one event has been dispatched to it.
func (e *Element) MatchesAny(ctx context.Context, selectors ...string) (bool, error) {
	if err := e.live(ctx); err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range selectors {
		if s == ":focus" && e.focused {
			return true, nil
		}
		if len(e.events) > 0 && slices.Contains(e.Pseudo, s) {
			return true, nil
		}
	}
	return false, nil
}

func (e *Element) Focus(ctx context.Context) error {
	if err := e.live(ctx); err != nil {
		return err
	}
	if e.FocusErr != nil {
		return e.FocusErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.focused = true
	return nil
}

func (e *Element) Description() string {
	return fmt.Sprintf("<%s>", e.Name)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
