package session

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/api/schemas"
)

// DispatchMouseEvent sends one low-level mouse event. Events are paced by the
// session's input rate limiter.
func (s *Session) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.RunActions(ctx, mouseParams(data)); err != nil {
		s.logger.Debug("Mouse event failed.", zap.String("type", string(data.Type)), zap.Error(err))
		return fmt.Errorf("dispatch %s failed: %w", data.Type, err)
	}
	return nil
}

func mouseParams(data schemas.MouseEventData) *input.DispatchMouseEventParams {
	button := data.Button
	if button == "" {
		button = schemas.ButtonNone
	}
	p := input.DispatchMouseEvent(input.MouseType(data.Type), data.X, data.Y).
		WithButton(input.MouseButton(button)).
		WithButtons(data.Buttons)
	if data.ClickCount > 0 {
		p = p.WithClickCount(int64(data.ClickCount))
	}
	if data.Type == schemas.MouseWheel {
		p = p.WithDeltaX(data.DeltaX).WithDeltaY(data.DeltaY)
	}
	return p
}

// SendKeys types keys one rune at a time.
func (s *Session) SendKeys(ctx context.Context, keys string) error {
	for _, r := range keys {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.RunActions(ctx, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("key event %q failed: %w", r, err)
		}
	}
	return nil
}

// DispatchStructuredKey presses and releases a key with modifiers held.
func (s *Session) DispatchStructuredKey(ctx context.Context, data schemas.KeyEventData) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	down, up := keyParams(data)
	if err := s.RunActions(ctx, down, up); err != nil {
		return fmt.Errorf("key combination %s failed: %w", describeKey(data), err)
	}
	return nil
}

func keyParams(data schemas.KeyEventData) (down, up *input.DispatchKeyEventParams) {
	mods := cdpModifiers(data.Modifiers)
	code, vk := keyCode(data.Key)

	down = input.DispatchKeyEvent(input.KeyDown).WithModifiers(mods).WithKey(data.Key)
	up = input.DispatchKeyEvent(input.KeyUp).WithModifiers(mods).WithKey(data.Key)
	if code != "" {
		down = down.WithCode(code).WithWindowsVirtualKeyCode(vk)
		up = up.WithCode(code).WithWindowsVirtualKeyCode(vk)
	}
	// Editing shortcuts do nothing on macOS without an explicit command.
	if cmd := editCommand(data); cmd != "" {
		down = down.WithCommands([]string{cmd})
	}
	return down, up
}

func cdpModifiers(m schemas.KeyModifier) input.Modifier {
	var out input.Modifier
	if m&schemas.ModAlt != 0 {
		out |= input.ModifierAlt
	}
	if m&schemas.ModCtrl != 0 {
		out |= input.ModifierCtrl
	}
	if m&schemas.ModMeta != 0 {
		out |= input.ModifierMeta
	}
	if m&schemas.ModShift != 0 {
		out |= input.ModifierShift
	}
	return out
}

// keyCode returns the physical key code and Windows virtual key code for a
// single letter or digit.
func keyCode(key string) (string, int64) {
	runes := []rune(key)
	if len(runes) != 1 {
		return "", 0
	}
	r := unicode.ToUpper(runes[0])
	switch {
	case r >= 'A' && r <= 'Z':
		return "Key" + string(r), int64(r)
	case r >= '0' && r <= '9':
		return "Digit" + string(r), int64(r)
	}
	return "", 0
}

func editCommand(data schemas.KeyEventData) string {
	if data.Modifiers&(schemas.ModCtrl|schemas.ModMeta) == 0 {
		return ""
	}
	switch strings.ToLower(data.Key) {
	case "a":
		return "selectAll"
	case "c":
		return "copy"
	case "v":
		return "paste"
	case "x":
		return "cut"
	}
	return ""
}

func describeKey(data schemas.KeyEventData) string {
	var parts []string
	for _, m := range []struct {
		bit  schemas.KeyModifier
		name string
	}{
		{schemas.ModCtrl, "ctrl"},
		{schemas.ModAlt, "alt"},
		{schemas.ModShift, "shift"},
		{schemas.ModMeta, "meta"},
	} {
		if data.Modifiers&m.bit != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, data.Key), "+")
}
