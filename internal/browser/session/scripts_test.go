package session

import (
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/mimic/internal/browser/dom"
)

func TestJSONEncode(t *testing.T) {
	assert.Equal(t, `"a\"b"`, jsonEncode(`a"b`))
	assert.Equal(t, `["#a",":focus"]`, jsonEncode([]string{"#a", ":focus"}))
	assert.Equal(t, `3`, jsonEncode(3))
}

func TestCallFn(t *testing.T) {
	got := callFn(querySelectorAllFn, `button[name="go"]`)
	assert.Equal(t,
		`function() { return (`+querySelectorAllFn+`).call(this, "button[name=\"go\"]"); }`,
		got)

	events := callFn(dispatchEventsFn, []dom.SyntheticEvent{{Type: "click", Kind: dom.KindMouse, Bubbles: true, ClientX: 4, ClientY: 5}})
	assert.Contains(t, events, `"type":"click"`)
	assert.Contains(t, events, `"kind":"MouseEvent"`)
	assert.Contains(t, events, `"clientX":4`)
}

func TestDecodeValue(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		obj := &runtime.RemoteObject{
			Type:  runtime.TypeObject,
			Value: []byte(`{"attached":true,"visible":true,"hasArea":true,"occluded":true,"disabled":false,"hitNode":"div#cover"}`),
		}
		var a dom.Actionability
		require.NoError(t, decodeValue(obj, &a))
		want := dom.Actionability{Attached: true, Visible: true, HasArea: true, Occluded: true, HitNode: "div#cover"}
		if diff := cmp.Diff(want, a); diff != "" {
			t.Errorf("actionability mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, "obscured by div#cover", a.Reason())
	})

	t.Run("nothing", func(t *testing.T) {
		var v bool
		assert.ErrorContains(t, decodeValue(nil, &v), "nothing")
		assert.ErrorContains(t, decodeValue(&runtime.RemoteObject{Type: runtime.TypeUndefined}, &v), "undefined")
	})

	t.Run("mismatched", func(t *testing.T) {
		var v bool
		err := decodeValue(&runtime.RemoteObject{Type: runtime.TypeString, Value: []byte(`"yes"`)}, &v)
		assert.ErrorContains(t, err, `could not decode script result "yes"`)
	})
}

func TestExceptionError(t *testing.T) {
	err := exceptionError(&runtime.ExceptionDetails{
		Text:      "Uncaught",
		Exception: &runtime.RemoteObject{Description: "SyntaxError: ':bogus' is not a valid selector"},
	})
	assert.EqualError(t, err, "script exception: SyntaxError: ':bogus' is not a valid selector")

	assert.EqualError(t, exceptionError(&runtime.ExceptionDetails{Text: "Uncaught"}), "script exception: Uncaught")
}

func TestParseFlags(t *testing.T) {
	got := parseFlags([]string{"--lang=en-US", "mute-audio", " ", "--proxy-server=http://127.0.0.1:8080"})
	want := map[string]any{
		"lang":         "en-US",
		"mute-audio":   true,
		"proxy-server": "http://127.0.0.1:8080",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}
}

func TestFindFrame(t *testing.T) {
	leaf := &page.FrameTree{Frame: &cdp.Frame{ID: "leaf"}}
	tree := &page.FrameTree{
		Frame: &cdp.Frame{ID: "main"},
		ChildFrames: []*page.FrameTree{
			{Frame: &cdp.Frame{ID: "a"}},
			{Frame: &cdp.Frame{ID: "b"}, ChildFrames: []*page.FrameTree{leaf}},
		},
	}
	assert.Same(t, leaf, findFrame(tree, "leaf"))
	assert.Same(t, tree, findFrame(tree, "main"))
	assert.Nil(t, findFrame(tree, "gone"))
	assert.Nil(t, findFrame(nil, "main"))
}

func TestFrameID(t *testing.T) {
	named := newFrame(nil, nil, &cdp.Frame{ID: "F1", Name: "checkout"}, "")
	assert.Equal(t, "checkout", named.ID())
	anon := newFrame(nil, nil, &cdp.Frame{ID: "F2"}, "")
	assert.Equal(t, "F2", anon.ID())
}
