package interaction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/browser/dom"
	"github.com/xkilldash9x/mimic/internal/browser/dom/domtest"
	"github.com/xkilldash9x/mimic/internal/browser/humanoid"
	"github.com/xkilldash9x/mimic/internal/browser/shadowdom"
	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder captures the input the humanoid sends. Sleeps return at once.
type recorder struct {
	*mocks.MockExecutor

	mu     sync.Mutex
	mouse  []schemas.MouseEventData
	keys   []string
	combos []schemas.KeyEventData
}

func newRecorder() *recorder {
	r := &recorder{MockExecutor: new(mocks.MockExecutor)}
	r.On("Sleep", mock.Anything, mock.Anything).Return(nil)
	r.On("Viewport", mock.Anything).Return(schemas.Viewport{Width: 1280, Height: 800}, nil)
	r.On("DispatchMouseEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.mouse = append(r.mouse, args.Get(1).(schemas.MouseEventData))
	}).Return(nil)
	r.On("SendKeys", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.keys = append(r.keys, args.String(1))
	}).Return(nil)
	r.On("DispatchStructuredKey", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.combos = append(r.combos, args.Get(1).(schemas.KeyEventData))
	}).Return(nil)
	return r
}

func (r *recorder) presses() []schemas.MouseEventData {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []schemas.MouseEventData
	for _, ev := range r.mouse {
		if ev.Type == schemas.MousePress {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) typed() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.keys, "")
}

type fixture struct {
	interactor *Interactor
	exec       *recorder
	page       *domtest.Page
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.NewDefaultConfig()
	ic := cfg.Interaction()
	ic.PseudostateTimeout = 100 * time.Millisecond
	ic.PseudostatePoll = 5 * time.Millisecond
	lc := config.LocatorConfig{
		Timeout:           100 * time.Millisecond,
		RescanInterval:    10 * time.Millisecond,
		FrameReadyTimeout: 50 * time.Millisecond,
	}

	logger := zaptest.NewLogger(t)
	exec := newRecorder()
	human := humanoid.New(cfg.Humanoid(), logger, exec)
	walker := shadowdom.NewWalker(logger, lc)
	return &fixture{
		interactor: NewInteractor(logger, ic, lc, walker, human, exec),
		exec:       exec,
		page:       domtest.NewPage(),
	}
}

func clickable() dom.Actionability {
	return dom.Actionability{Attached: true, Visible: true, HasArea: true}
}

func TestHoverAndClick_SucceedsAfterTransientFailures(t *testing.T) {
	f := newFixture(t)
	var probes atomic.Int32
	button := domtest.NewElement("button", "#go")
	button.ActionabilityFn = func() dom.Actionability {
		if probes.Add(1) < 3 {
			a := clickable()
			a.Occluded, a.HitNode = true, "div.spinner"
			return a
		}
		return clickable()
	}
	f.page.Main.Add(button)

	err := f.interactor.HoverAndClick(context.Background(), f.page, "#go", ClickOptions{MaxRetries: 3})
	require.NoError(t, err)

	assert.EqualValues(t, 3, probes.Load())
	assert.Equal(t, 1, f.page.Reloads(), "one reload after the second failure")
	assert.Len(t, f.exec.presses(), 1)
}

func TestHoverAndClick_ExhaustsOnPermanentObstruction(t *testing.T) {
	f := newFixture(t)
	var probes atomic.Int32
	button := domtest.NewElement("button", "#go")
	button.OccludedBy = "div.overlay"
	f.page.Main.Add(button)
	f.page.Main.OnQuery = func(string) { probes.Add(1) }

	err := f.interactor.HoverAndClick(context.Background(), f.page, "#go", ClickOptions{MaxRetries: 2})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrInteractionExhausted)
	assert.ErrorIs(t, err, ErrNotClickable)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Contains(t, err.Error(), "obscured by div.overlay")

	assert.EqualValues(t, 2, probes.Load(), "one search per attempt")
	assert.Zero(t, f.page.Reloads())
	assert.Empty(t, button.Events())
	assert.Empty(t, f.exec.presses())
}

func TestHoverAndClick_ReloadsOnEveryEvenFailure(t *testing.T) {
	f := newFixture(t)
	button := domtest.NewElement("button", "#go")
	button.Disabled = true
	f.page.Main.Add(button)

	err := f.interactor.HoverAndClick(context.Background(), f.page, "#go", ClickOptions{MaxRetries: 5})
	require.ErrorIs(t, err, ErrInteractionExhausted)
	assert.Contains(t, err.Error(), "disabled")
	assert.Equal(t, 2, f.page.Reloads())
}

func TestHoverAndClick_SkipsHiddenDuplicates(t *testing.T) {
	f := newFixture(t)
	template := domtest.NewElement("template-button", "#go")
	template.Hidden = true
	button := domtest.NewElement("button", "#go")
	f.page.Main.Add(template, button)

	err := f.interactor.HoverAndClick(context.Background(), f.page, "#go", ClickOptions{MaxRetries: 2})
	require.NoError(t, err)

	assert.Empty(t, template.Events())
	assert.NotEmpty(t, button.Events())
	assert.Len(t, f.exec.presses(), 1)
	assert.Zero(t, f.page.Reloads())
}

func TestHoverAndClick_ReloadFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	var probes atomic.Int32
	button := domtest.NewElement("button", "#go")
	button.ActionabilityFn = func() dom.Actionability {
		if probes.Add(1) < 3 {
			return dom.Actionability{Attached: true}
		}
		return clickable()
	}
	f.page.Main.Add(button)
	f.page.ReloadFn = func(context.Context) error { return errors.New("net::ERR_ABORTED") }

	err := f.interactor.HoverAndClick(context.Background(), f.page, "#go", ClickOptions{MaxRetries: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, f.page.Reloads())
}

func TestHoverAndClick_DispatchesSequenceInFrameCoordinates(t *testing.T) {
	f := newFixture(t)
	button := domtest.NewElement("button", "#submit")
	button.Box = schemas.Rect{X: 20, Y: 30, Width: 120, Height: 40}
	frame := domtest.NewFrame("checkout").Add(button)
	frame.Owner = schemas.Rect{X: 200, Y: 100, Width: 600, Height: 400}
	f.page.Main.AddChild(frame)

	err := f.interactor.HoverAndClick(context.Background(), f.page, "#submit", ClickOptions{MaxRetries: 1})
	require.NoError(t, err)

	events := button.Events()
	if diff := cmp.Diff(eventTypes(InteractionSequence(0, 0)), eventTypes(events)); diff != "" {
		t.Fatalf("dispatched events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, button.Scrolls())

	presses := f.exec.presses()
	require.Len(t, presses, 1)
	press := presses[0]
	viewportBox := button.Box.Translate(200, 100)
	assert.True(t, viewportBox.Contains(press.X, press.Y), "press %v,%v outside %+v", press.X, press.Y, viewportBox)

	// Synthetic events carry the same point in the frame's own coordinates.
	assert.InDelta(t, press.X-200, events[0].ClientX, 1e-9)
	assert.InDelta(t, press.Y-100, events[0].ClientY, 1e-9)
	assert.True(t, button.Box.Contains(events[0].ClientX, events[0].ClientY))
}

func TestHoverAndClick_NotFoundExhausts(t *testing.T) {
	f := newFixture(t)

	err := f.interactor.HoverAndClick(context.Background(), f.page, "#missing", ClickOptions{
		MaxRetries: 1,
		Timeout:    30 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrInteractionExhausted)
	assert.ErrorIs(t, err, shadowdom.ErrElementNotFound)
}

func TestHoverAndClick_DispatchFailureIsRetried(t *testing.T) {
	f := newFixture(t)
	button := domtest.NewElement("button", "#go")
	button.DispatchErr = errors.New("node is detached")
	f.page.Main.Add(button)

	err := f.interactor.HoverAndClick(context.Background(), f.page, "#go", ClickOptions{MaxRetries: 2})
	require.ErrorIs(t, err, ErrInteractionExhausted)
	assert.Contains(t, err.Error(), "event dispatch failed")
	assert.Empty(t, f.exec.presses())
}

func TestHoverAndClick_CallerCancellationIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.page.Main.Add(domtest.NewElement("button", "#go"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.interactor.HoverAndClick(ctx, f.page, "#go", ClickOptions{MaxRetries: 5})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrInteractionExhausted)
	assert.Zero(t, f.page.Reloads())
}

func TestType_FocusesAndTypes(t *testing.T) {
	f := newFixture(t)
	input := domtest.NewElement("input", "#email")
	f.page.Main.Add(input)

	err := f.interactor.Type(context.Background(), f.page, "#email", "hi there", TypeOptions{})
	require.NoError(t, err)

	assert.True(t, input.Focused())
	assert.Equal(t, "hi there", f.exec.typed())
	assert.Len(t, f.exec.presses(), 1)
	assert.Empty(t, f.exec.combos)
}

func TestType_ClearsFirst(t *testing.T) {
	f := newFixture(t)
	f.page.Main.Add(domtest.NewElement("input", "#q"))

	err := f.interactor.Type(context.Background(), f.page, "#q", "go", TypeOptions{Clear: true})
	require.NoError(t, err)

	require.Len(t, f.exec.combos, 1)
	assert.Equal(t, "a", f.exec.combos[0].Key)
	assert.Equal(t, string(humanoid.KeyBackspace)+"go", f.exec.typed())
}

func TestType_NotFocusable(t *testing.T) {
	f := newFixture(t)
	input := domtest.NewElement("div", "#fake-input")
	input.FocusErr = errors.New("element is not focusable")
	f.page.Main.Add(input)

	err := f.interactor.Type(context.Background(), f.page, "#fake-input", "x", TypeOptions{})
	require.ErrorIs(t, err, ErrNotFocused)
	assert.Empty(t, f.exec.typed())
}

func TestType_NotFound(t *testing.T) {
	f := newFixture(t)

	err := f.interactor.Type(context.Background(), f.page, "#nope", "x", TypeOptions{Timeout: 20 * time.Millisecond})
	require.ErrorIs(t, err, shadowdom.ErrElementNotFound)
}
