package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/browser/dom/domtest"
	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/mocks"
)

// fakeBrowser is an in-memory page with an input device that records calls
// and never sleeps.
type fakeBrowser struct {
	*domtest.Page
	*mocks.MockExecutor

	url    string
	closed atomic.Bool
}

func newFakeBrowser() *fakeBrowser {
	exec := new(mocks.MockExecutor)
	exec.On("Sleep", mock.Anything, mock.Anything).Return(nil)
	exec.On("DispatchMouseEvent", mock.Anything, mock.Anything).Return(nil)
	exec.On("SendKeys", mock.Anything, mock.Anything).Return(nil)
	exec.On("DispatchStructuredKey", mock.Anything, mock.Anything).Return(nil)
	return &fakeBrowser{Page: domtest.NewPage(), MockExecutor: exec}
}

// Viewport resolves the ambiguity between the page and the executor.
func (f *fakeBrowser) Viewport(ctx context.Context) (schemas.Viewport, error) {
	return f.Page.Viewport(ctx)
}

func (f *fakeBrowser) Close() error {
	f.closed.Store(true)
	return nil
}

// useBrowser routes openPage to fb for the duration of the test.
func useBrowser(t *testing.T, fb *fakeBrowser) {
	t.Helper()
	orig := openPage
	openPage = func(_ context.Context, _ config.Interface, _ *zap.Logger, url string) (browserPage, error) {
		fb.url = url
		return fb, nil
	}
	t.Cleanup(func() { openPage = orig })
}

func failBrowser(t *testing.T, err error) {
	t.Helper()
	orig := openPage
	openPage = func(context.Context, config.Interface, *zap.Logger, string) (browserPage, error) {
		return nil, err
	}
	t.Cleanup(func() { openPage = orig })
}

var errNoBrowser = errors.New("chrome not found")

// run executes a fresh command tree and returns its standard output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Keep a stray mimic.yaml in the package directory from leaking in.
	t.Chdir(t.TempDir())

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mimic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
