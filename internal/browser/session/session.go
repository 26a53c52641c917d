// Package session drives a Chromium tab over the DevTools protocol and exposes
// it as a dom.Page for element search and as a humanoid.Executor for input.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/browser/dom"
	"github.com/xkilldash9x/mimic/internal/browser/humanoid"
	"github.com/xkilldash9x/mimic/internal/config"
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("browser session is closed")

// Session is one browser tab.
type Session struct {
	id      string
	logger  *zap.Logger
	cfg     config.BrowserConfig
	limiter *rate.Limiter

	// ctx carries the chromedp target and lives as long as the tab.
	ctx    context.Context
	cancel context.CancelFunc
	// allocCancel stops the browser process when the session owns it.
	allocCancel context.CancelFunc

	mu      sync.Mutex
	handles handles
	// worldMu serializes isolated world creation.
	worldMu sync.Mutex

	closeOnce sync.Once
}

var (
	_ dom.Page          = (*Session)(nil)
	_ humanoid.Executor = (*Session)(nil)
)

// Launch starts a browser process configured by cfg and opens a tab in it.
// The returned session owns the process; Close terminates it.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the process and attaches to the initial tab.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	s := newSession(tabCtx, tabCancel, cfg, logger)
	s.allocCancel = allocCancel
	s.logger.Info("Browser session started.",
		zap.Bool("headless", cfg.Headless),
		zap.Int("width", cfg.Viewport.Width),
		zap.Int("height", cfg.Viewport.Height),
	)
	return s, nil
}

// Attach wraps an existing chromedp tab context. Closing the session closes
// the tab but leaves the browser process to its owner.
func Attach(tabCtx context.Context, cfg config.BrowserConfig, logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(tabCtx)
	return newSession(ctx, cancel, cfg, logger)
}

func newSession(ctx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	limit, burst := rate.Inf, 1
	if cfg.InputRateLimit > 0 {
		limit = rate.Limit(cfg.InputRateLimit)
	}
	if cfg.InputBurst > 0 {
		burst = cfg.InputBurst
	}
	return &Session{
		id:      id,
		logger:  logger.Named("session").With(zap.String("session_id", id)),
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, burst),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// allocatorOptions builds the browser command line from the configuration.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.Viewport.Width, cfg.Viewport.Height))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	for name, value := range parseFlags(cfg.Args) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Close closes the tab and, for launched sessions, the browser.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if cerr := chromedp.Cancel(s.ctx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = fmt.Errorf("failed to close tab: %w", cerr)
		}
		s.cancel()
		if s.allocCancel != nil {
			s.allocCancel()
		}
		s.logger.Info("Browser session closed.")
	})
	return err
}

// RunActions runs actions against the tab. The call ends when ctx is done,
// when the session closes, or after the configured action timeout.
func (s *Session) RunActions(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	if s.cfg.ActionTimeout > 0 {
		var tcancel context.CancelFunc
		runCtx, tcancel = context.WithTimeout(runCtx, s.cfg.ActionTimeout)
		defer tcancel()
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		// Report the caller's own cancellation rather than the derived one.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// do runs a single protocol function against the tab.
func (s *Session) do(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunActions(ctx, chromedp.ActionFunc(fn))
}

// Navigate loads url and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := s.navigationContext(ctx)
	defer cancel()
	s.logger.Info("Navigating.", zap.String("url", url))
	if err := s.runUnbounded(navCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigation to %q failed: %w", url, err)
	}
	return nil
}

// Reload reloads the page and waits for the new document body.
func (s *Session) Reload(ctx context.Context) error {
	navCtx, cancel := s.navigationContext(ctx)
	defer cancel()
	if err := s.runUnbounded(navCtx, chromedp.Reload(), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

func (s *Session) navigationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.NavigationTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	}
	return context.WithCancel(ctx)
}

// runUnbounded is RunActions without the per-action timeout, for page loads.
func (s *Session) runUnbounded(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Viewport reports the layout viewport in CSS pixels.
func (s *Session) Viewport(ctx context.Context) (schemas.Viewport, error) {
	var vp schemas.Viewport
	if err := s.RunActions(ctx, chromedp.Evaluate(viewportScript, &vp)); err != nil {
		return schemas.Viewport{}, fmt.Errorf("could not read viewport: %w", err)
	}
	return vp, nil
}

// MainFrame returns the tab's top-level document. Handles obtained through
// frames from an earlier MainFrame call are released.
func (s *Session) MainFrame(ctx context.Context) (dom.Frame, error) {
	var tree *page.FrameTree
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		tree, err = page.GetFrameTree().Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not read frame tree: %w", err)
	}
	if tree == nil || tree.Frame == nil {
		return nil, errors.New("frame tree has no main frame")
	}
	group, previous := s.nextGroup()
	s.releaseGroup(ctx, previous)
	return newFrame(s, nil, tree.Frame, group), nil
}

// Sleep pauses for d unless ctx is done or the session closes first.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}
