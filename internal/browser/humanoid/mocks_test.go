package humanoid

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/config"
)

// mockExecutor implements Executor for testing. Sleeps are recorded, never
// slept, so tests run in virtual time.
//
// Overrides must not call back into the Humanoid: its public methods hold
// h.mu while calling the executor.
type mockExecutor struct {
	mu               sync.Mutex
	dispatchedEvents []schemas.MouseEventData
	sentKeys         []string
	structuredKeys   []schemas.KeyEventData
	sleepDurations   []time.Duration
	viewport         schemas.Viewport

	MockSleep              func(ctx context.Context, d time.Duration) error
	MockDispatchMouseEvent func(ctx context.Context, data schemas.MouseEventData) error
	MockSendKeys           func(ctx context.Context, keys string) error
	MockViewport           func(ctx context.Context) (schemas.Viewport, error)
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{viewport: schemas.Viewport{Width: 1280, Height: 800}}
}

func (m *mockExecutor) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	if m.MockDispatchMouseEvent != nil {
		return m.MockDispatchMouseEvent(ctx, data)
	}
	return m.DefaultDispatchMouseEvent(ctx, data)
}

// DefaultDispatchMouseEvent records the event. It is exposed so overrides can
// fall through to it.
func (m *mockExecutor) DefaultDispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchedEvents = append(m.dispatchedEvents, data)
	return ctx.Err()
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if m.MockSleep != nil {
		return m.MockSleep(ctx, d)
	}
	return m.DefaultSleep(ctx, d)
}

func (m *mockExecutor) DefaultSleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleepDurations = append(m.sleepDurations, d)
	return nil
}

func (m *mockExecutor) SendKeys(ctx context.Context, keys string) error {
	if m.MockSendKeys != nil {
		return m.MockSendKeys(ctx, keys)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentKeys = append(m.sentKeys, keys)
	return ctx.Err()
}

func (m *mockExecutor) DispatchStructuredKey(ctx context.Context, data schemas.KeyEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.structuredKeys = append(m.structuredKeys, data)
	return ctx.Err()
}

func (m *mockExecutor) Viewport(ctx context.Context) (schemas.Viewport, error) {
	if m.MockViewport != nil {
		return m.MockViewport(ctx)
	}
	return m.viewport, ctx.Err()
}

// -- Helpers --

func (m *mockExecutor) events() []schemas.MouseEventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]schemas.MouseEventData(nil), m.dispatchedEvents...)
}

func (m *mockExecutor) eventsOfType(t schemas.MouseEventType) []schemas.MouseEventData {
	var out []schemas.MouseEventData
	for _, e := range m.events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockExecutor) sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.sleepDurations...)
}

func (m *mockExecutor) totalSleep() time.Duration {
	var total time.Duration
	for _, d := range m.sleeps() {
		total += d
	}
	return total
}

func (m *mockExecutor) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sentKeys...)
}

// testConfig returns the default humanoid parameters.
func testConfig() config.HumanoidConfig {
	return config.NewDefaultConfig().Humanoid()
}

func newTestHumanoid(t *testing.T, cfg config.HumanoidConfig, exec Executor) *Humanoid {
	t.Helper()
	return newWithSeed(cfg, zaptest.NewLogger(t), exec, 42)
}
