package session

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/chromedp/cdproto/runtime"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// isolatedWorldName names the script world created in every searched frame,
// keeping helper code out of the page's own globals.
const isolatedWorldName = "mimic"

const viewportScript = `({width: window.innerWidth, height: window.innerHeight})`

const readyStateScript = `document.readyState`

// Functions below run with `this` bound to an element, a shadow root or a
// document via Runtime.callFunctionOn.

const shadowRootsFn = `function() {
	const out = [];
	for (const el of this.querySelectorAll('*')) {
		if (el.shadowRoot) out.push(el.shadowRoot);
	}
	return out;
}`

const arrayLengthFn = `function() { return this.length; }`

// layoutBoxJS defines hasLayoutBox(el): whether el participates in layout.
// offsetParent is null for fixed-position elements and the root elements even
// when rendered, and SVG elements have no offsetParent at all.
const layoutBoxJS = `const hasLayoutBox = (el) => {
		if (!('offsetParent' in el) || el.offsetParent !== null) return true;
		if (el === document.body || el === document.documentElement) return true;
		return getComputedStyle(el).position === 'fixed';
	};`

const visibleFn = `function() {
	` + layoutBoxJS + `
	if (!this.isConnected) return false;
	const r = this.getBoundingClientRect();
	if (r.width <= 0 || r.height <= 0) return false;
	if (!hasLayoutBox(this)) return false;
	if (typeof this.checkVisibility === 'function') {
		return this.checkVisibility({checkOpacity: true, checkVisibilityCSS: true});
	}
	const s = getComputedStyle(this);
	return s.display !== 'none' && s.visibility !== 'hidden' && s.opacity !== '0';
}`

// actionabilityFn hit-tests the element's center through its own root node so
// that elements inside shadow trees are compared against shadow-aware hits.
const actionabilityFn = `function() {
	` + layoutBoxJS + `
	const out = {attached: this.isConnected, visible: false, hasArea: false, occluded: false, disabled: false, hitNode: ''};
	if (!out.attached) return out;
	const r = this.getBoundingClientRect();
	out.hasArea = r.width > 0 && r.height > 0;
	const s = getComputedStyle(this);
	out.visible = s.display !== 'none' && s.visibility !== 'hidden' && s.opacity !== '0' && hasLayoutBox(this);
	out.disabled = this.disabled === true || this.getAttribute('aria-disabled') === 'true';
	if (!out.hasArea) return out;
	const root = this.getRootNode();
	const from = typeof root.elementFromPoint === 'function' ? root : document;
	const hit = from.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
	if (hit && hit !== this && !this.contains(hit) && !(hit.shadowRoot && hit.shadowRoot.contains(this))) {
		out.occluded = true;
		let name = hit.tagName.toLowerCase();
		if (hit.id) name += '#' + hit.id;
		else if (typeof hit.className === 'string' && hit.className.trim()) name += '.' + hit.className.trim().split(/\s+/).join('.');
		out.hitNode = name;
	}
	return out;
}`

const boundingBoxFn = `function() {
	const r = this.getBoundingClientRect();
	return {x: r.left, y: r.top, width: r.width, height: r.height};
}`

// ownerContentFn returns the content-box origin of an iframe element, which is
// where the child document's coordinate space begins.
const ownerContentFn = `function() {
	const r = this.getBoundingClientRect();
	const s = getComputedStyle(this);
	const x = r.left + this.clientLeft + parseFloat(s.paddingLeft || '0');
	const y = r.top + this.clientTop + parseFloat(s.paddingTop || '0');
	return {x: x, y: y, width: this.clientWidth, height: this.clientHeight};
}`

const scrollIntoViewFn = `function() {
	this.scrollIntoView({block: 'center', inline: 'center', behavior: 'auto'});
	return true;
}`

// transitionFn returns the longest transition (duration plus delay) in ms.
const transitionFn = `function() {
	const s = getComputedStyle(this);
	const ms = (v) => v.trim().endsWith('ms') ? parseFloat(v) : parseFloat(v) * 1000;
	const durations = s.transitionDuration.split(',').map(ms);
	const delays = s.transitionDelay.split(',').map(ms);
	let longest = 0;
	durations.forEach((d, i) => {
		const total = (d || 0) + (delays[i % delays.length] || 0);
		if (total > longest) longest = total;
	});
	return longest;
}`

const focusFn = `function() {
	this.focus({preventScroll: true});
	const root = this.getRootNode();
	return root.activeElement === this || document.activeElement === this;
}`

// callFn wraps body in a function that receives the JSON-encoded args.
func callFn(fn string, args ...any) string {
	encoded := make([]string, len(args))
	for i, a := range args {
		encoded[i] = jsonEncode(a)
	}
	return fmt.Sprintf("function() { return (%s).call(this, %s); }", fn, strings.Join(encoded, ", "))
}

const querySelectorAllFn = `function(sel) { return Array.from(this.querySelectorAll(sel)); }`

const arrayItemFn = `function(i) { return this[i]; }`

const matchesAnyFn = `function(selectors) {
	for (const sel of selectors) {
		try {
			if (this.matches(sel)) return true;
		} catch (e) {}
	}
	return false;
}`

const dispatchEventsFn = `function(events) {
	for (const ev of events) {
		const init = {bubbles: ev.bubbles, cancelable: true, composed: true, view: window,
			clientX: ev.clientX, clientY: ev.clientY, buttons: ev.buttons, button: 0};
		let event;
		switch (ev.kind) {
		case 'PointerEvent':
			event = new PointerEvent(ev.type, Object.assign({pointerId: 1, pointerType: 'mouse', isPrimary: true}, init));
			break;
		case 'FocusEvent':
			event = new FocusEvent(ev.type, {bubbles: ev.bubbles, composed: true, view: window});
			break;
		default:
			event = new MouseEvent(ev.type, init);
		}
		this.dispatchEvent(event);
	}
	return events.length;
}`

// jsonEncode renders v as a JavaScript literal.
func jsonEncode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// decodeValue unmarshals a by-value remote object into out.
func decodeValue(obj *runtime.RemoteObject, out any) error {
	if obj == nil || len(obj.Value) == 0 {
		return fmt.Errorf("script returned %s", describeObject(obj))
	}
	if err := json.Unmarshal([]byte(obj.Value), out); err != nil {
		return fmt.Errorf("could not decode script result %s: %w", string(obj.Value), err)
	}
	return nil
}

func describeObject(obj *runtime.RemoteObject) string {
	if obj == nil {
		return "nothing"
	}
	if obj.Subtype != "" {
		return string(obj.Subtype)
	}
	return string(obj.Type)
}

// exceptionError turns a script exception into an error.
func exceptionError(exc *runtime.ExceptionDetails) error {
	msg := exc.Text
	if exc.Exception != nil && exc.Exception.Description != "" {
		msg = exc.Exception.Description
	}
	return fmt.Errorf("script exception: %s", msg)
}

// parseFlags turns "--name=value" and "--name" entries into launch flags.
func parseFlags(args []string) map[string]any {
	flags := make(map[string]any, len(args))
	for _, a := range args {
		a = strings.TrimLeft(strings.TrimSpace(a), "-")
		if a == "" {
			continue
		}
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			flags[name] = true
			continue
		}
		flags[name] = value
	}
	return flags
}
