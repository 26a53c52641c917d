package interaction

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/mimic/internal/browser/dom"
)

func eventTypes(events []dom.SyntheticEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Type
	}
	return out
}

func TestInteractionSequence(t *testing.T) {
	seq := InteractionSequence(12.5, 30)

	want := []string{
		"pointerover", "pointerenter", "mouseover", "mouseenter",
		"pointermove", "mousemove", "focusin",
		"pointerdown", "mousedown", "pointerup", "mouseup",
		"click", "focus",
	}
	if diff := cmp.Diff(want, eventTypes(seq)); diff != "" {
		t.Errorf("event order mismatch (-want +got):\n%s", diff)
	}

	for _, ev := range seq {
		assert.Equal(t, 12.5, ev.ClientX, ev.Type)
		assert.Equal(t, 30.0, ev.ClientY, ev.Type)
		switch ev.Type {
		case "pointerdown", "mousedown":
			assert.Equal(t, 1, ev.Buttons, ev.Type)
		default:
			assert.Zero(t, ev.Buttons, ev.Type)
		}
	}

	assert.Equal(t, dom.KindFocus, seq[6].Kind)
	assert.Equal(t, dom.KindPointer, seq[7].Kind)
	assert.Equal(t, dom.KindMouse, seq[11].Kind)
	assert.False(t, seq[1].Bubbles, "enter events do not bubble")
	assert.True(t, seq[11].Bubbles)
}
