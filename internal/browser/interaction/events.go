package interaction

import "github.com/xkilldash9x/mimic/internal/browser/dom"

// InteractionSequence is the ordered set of DOM events a real pointer click
// produces on an element: hover, move, focus, press, release, click and focus.
// (x, y) is the click point in the element's frame coordinates.
func InteractionSequence(x, y float64) []dom.SyntheticEvent {
	ev := func(typ string, kind dom.EventKind, bubbles bool, buttons int) dom.SyntheticEvent {
		return dom.SyntheticEvent{Type: typ, Kind: kind, Bubbles: bubbles, ClientX: x, ClientY: y, Buttons: buttons}
	}
	return []dom.SyntheticEvent{
		ev("pointerover", dom.KindPointer, true, 0),
		ev("pointerenter", dom.KindPointer, false, 0),
		ev("mouseover", dom.KindMouse, true, 0),
		ev("mouseenter", dom.KindMouse, false, 0),
		ev("pointermove", dom.KindPointer, true, 0),
		ev("mousemove", dom.KindMouse, true, 0),
		ev("focusin", dom.KindFocus, true, 0),
		ev("pointerdown", dom.KindPointer, true, 1),
		ev("mousedown", dom.KindMouse, true, 1),
		ev("pointerup", dom.KindPointer, true, 0),
		ev("mouseup", dom.KindMouse, true, 0),
		ev("click", dom.KindMouse, true, 0),
		ev("focus", dom.KindFocus, false, 0),
	}
}
