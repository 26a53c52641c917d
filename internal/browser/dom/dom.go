package dom

import (
	"context"
	"time"

	"github.com/xkilldash9x/mimic/api/schemas"
)

// Page is the top-level document of one browser tab.
type Page interface {
	MainFrame(ctx context.Context) (Frame, error)
	Viewport(ctx context.Context) (schemas.Viewport, error)
	// Reload reloads the page and returns once both the content-loaded and
	// network-idle signals have fired, or ctx expires.
	Reload(ctx context.Context) error
}

// Scope is a searchable subtree: a frame's document or an open shadow root.
type Scope interface {
	// QueryAll returns the elements matching a CSS selector in document order.
	// It does not pierce shadow roots or frames.
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// ShadowRoots returns the open shadow roots attached to elements of this
	// scope, in document order. Roots nested inside those roots are reached by
	// calling ShadowRoots on them.
	ShadowRoots(ctx context.Context) ([]Scope, error)
}

// Frame is one document in the frame tree.
type Frame interface {
	Scope
	ID() string
	ChildFrames(ctx context.Context) ([]Frame, error)
	// OwnerRect is the rectangle of the element embedding this frame, in the
	// parent frame's viewport coordinates. It is empty for the main frame.
	OwnerRect(ctx context.Context) (schemas.Rect, error)
	// WaitReady blocks until the frame's document reports readyState "complete".
	WaitReady(ctx context.Context) error
}

// Element is a handle to a node inside a specific frame. All geometry is in
// that frame's local viewport coordinates.
type Element interface {
	// IsVisible reports whether the effective computed style renders the
	// element: display is not none, visibility is not hidden, opacity is not
	// zero, and the element has an offset parent. Fixed-position elements and
	// the document's root elements count as having one.
	IsVisible(ctx context.Context) (bool, error)
	Actionability(ctx context.Context) (Actionability, error)
	BoundingBox(ctx context.Context) (schemas.Rect, error)
	ScrollIntoView(ctx context.Context) error
	// TransitionDuration is the longest CSS transition-duration in the
	// element's computed style.
	TransitionDuration(ctx context.Context) (time.Duration, error)
	// DispatchEvents fires synthetic DOM events on the element in order.
	DispatchEvents(ctx context.Context, events []SyntheticEvent) error
	// MatchesAny reports whether the element currently matches any of the
	// given selectors, typically pseudo-classes such as ":focus".
	MatchesAny(ctx context.Context, selectors ...string) (bool, error)
	Focus(ctx context.Context) error
	// Description is a short human readable label for logs.
	Description() string
}

// EventKind selects the DOM event constructor used for a SyntheticEvent.
type EventKind string

const (
	KindMouse   EventKind = "MouseEvent"
	KindPointer EventKind = "PointerEvent"
	KindFocus   EventKind = "FocusEvent"
)

// SyntheticEvent is one DOM event fired directly on an element.
type SyntheticEvent struct {
	Type    string    `json:"type"`
	Kind    EventKind `json:"kind"`
	Bubbles bool      `json:"bubbles"`
	// ClientX and ClientY are frame-local coordinates.
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
	Buttons int     `json:"buttons"`
}

// Actionability is the result of the clickability probe for one element.
type Actionability struct {
	Attached bool `json:"attached"`
	Visible  bool `json:"visible"`
	HasArea  bool `json:"hasArea"`
	// Occluded is set when the hit test at the element's center lands on a
	// node that is neither the element nor one of its descendants.
	Occluded bool   `json:"occluded"`
	Disabled bool   `json:"disabled"`
	HitNode  string `json:"hitNode,omitempty"`
}

// Clickable reports whether every actionability condition holds.
func (a Actionability) Clickable() bool {
	return a.Attached && a.Visible && a.HasArea && !a.Occluded && !a.Disabled
}

// Reason describes the first failed condition, or "" when clickable.
func (a Actionability) Reason() string {
	switch {
	case !a.Attached:
		return "detached from the document"
	case !a.Visible:
		return "not visible"
	case !a.HasArea:
		return "zero-area bounding box"
	case a.Disabled:
		return "disabled"
	case a.Occluded:
		if a.HitNode != "" {
			return "obscured by " + a.HitNode
		}
		return "obscured by another element"
	}
	return ""
}
