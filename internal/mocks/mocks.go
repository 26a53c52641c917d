// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/browser/dom"
	"github.com/xkilldash9x/mimic/internal/browser/shadowdom"
	"github.com/xkilldash9x/mimic/internal/config"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Humanoid() config.HumanoidConfig {
	args := m.Called()
	return args.Get(0).(config.HumanoidConfig)
}

func (m *MockConfig) Locator() config.LocatorConfig {
	args := m.Called()
	return args.Get(0).(config.LocatorConfig)
}

func (m *MockConfig) Interaction() config.InteractionConfig {
	args := m.Called()
	return args.Get(0).(config.InteractionConfig)
}

func (m *MockConfig) Poller() config.PollerConfig {
	args := m.Called()
	return args.Get(0).(config.PollerConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserHeadless(b bool)         { m.Called(b) }
func (m *MockConfig) SetLocatorTimeout(d time.Duration) { m.Called(d) }
func (m *MockConfig) SetLocatorVisibleOnly(b bool)      { m.Called(b) }
func (m *MockConfig) SetInteractionMaxRetries(n int)    { m.Called(n) }
func (m *MockConfig) SetPollerDeadline(d time.Duration) { m.Called(d) }
func (m *MockConfig) SetPollerInterval(d time.Duration) { m.Called(d) }

// -- Input Executor Mock --

// MockExecutor mocks humanoid.Executor.
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockExecutor) DispatchMouseEvent(ctx context.Context, data schemas.MouseEventData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockExecutor) SendKeys(ctx context.Context, keys string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockExecutor) DispatchStructuredKey(ctx context.Context, data schemas.KeyEventData) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockExecutor) Viewport(ctx context.Context) (schemas.Viewport, error) {
	args := m.Called(ctx)
	return args.Get(0).(schemas.Viewport), args.Error(1)
}

// -- Locator Mock --

// MockLocator mocks the cross-document element search.
type MockLocator struct {
	mock.Mock
}

func (m *MockLocator) FindElementAcrossDocuments(ctx context.Context, page dom.Page, selector string, opts shadowdom.Options) (*dom.LocatedElement, error) {
	args := m.Called(ctx, page, selector, opts)
	var located *dom.LocatedElement
	if v := args.Get(0); v != nil {
		located = v.(*dom.LocatedElement)
	}
	return located, args.Error(1)
}
