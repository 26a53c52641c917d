// Package poller blocks until an element disappears from a page, typically
// because a person completed an out-of-band step such as a verification
// widget, or until a hard deadline elapses.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/internal/browser/dom"
	"github.com/xkilldash9x/mimic/internal/browser/shadowdom"
	"github.com/xkilldash9x/mimic/internal/config"
)

// ErrConditionTimeout means the watched element was still present when the
// deadline elapsed.
var ErrConditionTimeout = errors.New("condition did not clear before the deadline")

// Locator is the element search used by probes. *shadowdom.Walker satisfies it.
type Locator interface {
	FindElementAcrossDocuments(ctx context.Context, page dom.Page, selector string, opts shadowdom.Options) (*dom.LocatedElement, error)
}

// Options overrides the configured timings for one wait. Zero fields fall
// back to the configuration.
type Options struct {
	Deadline     time.Duration
	Interval     time.Duration
	ProbeTimeout time.Duration
	// Visible treats a present but hidden element as gone.
	Visible bool
}

// Poller waits for elements to disappear.
type Poller struct {
	logger  *zap.Logger
	locator Locator
	cfg     config.PollerConfig
}

// New creates a Poller.
func New(logger *zap.Logger, locator Locator, cfg config.PollerConfig) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{logger: logger.Named("poller"), locator: locator, cfg: cfg}
}

func (p *Poller) resolve(opts Options) Options {
	if opts.Deadline <= 0 {
		opts.Deadline = p.cfg.Deadline
	}
	if opts.Interval <= 0 {
		opts.Interval = p.cfg.Interval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = p.cfg.ProbeTimeout
	}
	return opts
}

// WaitUntilGone probes for selector every interval and returns nil as soon as
// a probe reports it absent. Probe failures of any kind count as "still
// present". It returns ErrConditionTimeout once the deadline elapses. The
// probing goroutine has always exited by the time WaitUntilGone returns.
func (p *Poller) WaitUntilGone(ctx context.Context, page dom.Page, selector string, opts Options) error {
	opts = p.resolve(opts)
	logger := p.logger.With(zap.String("wait_id", uuid.NewString()), zap.String("selector", selector))
	logger.Info("Waiting for element to disappear",
		zap.Duration("deadline", opts.Deadline),
		zap.Duration("interval", opts.Interval))

	waitCtx, cancel := context.WithTimeout(ctx, opts.Deadline)
	defer cancel()

	gone := make(chan int, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.probeLoop(waitCtx, logger, page, selector, opts, gone)
	}()

	var err error
	select {
	case probes := <-gone:
		logger.Info("Element gone, condition cleared", zap.Int("probes", probes))
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			err = ctx.Err()
		} else {
			err = fmt.Errorf("%w: %q still present after %s", ErrConditionTimeout, selector, opts.Deadline)
			logger.Warn("Condition did not clear", zap.Duration("deadline", opts.Deadline))
		}
	}

	cancel()
	wg.Wait()
	return err
}

func (p *Poller) probeLoop(ctx context.Context, logger *zap.Logger, page dom.Page, selector string, opts Options, gone chan<- int) {
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for probes := 1; ; probes++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// A probe that overruns the interval drops the ticks it missed; the
		// next probe runs at the following tick.
		if p.absent(ctx, logger, page, selector, opts, probes) {
			gone <- probes
			return
		}
	}
}

// absent runs one bounded, single-pass search. Only a not-found from a pass
// that searched every branch counts as absent.
func (p *Poller) absent(ctx context.Context, logger *zap.Logger, page dom.Page, selector string, opts Options, n int) bool {
	probeCtx, cancel := context.WithTimeout(ctx, opts.ProbeTimeout)
	defer cancel()

	_, err := p.locator.FindElementAcrossDocuments(probeCtx, page, selector, shadowdom.Options{
		Timeout:    opts.ProbeTimeout,
		Visible:    opts.Visible,
		SinglePass: true,
	})
	switch {
	case err == nil:
		logger.Debug("Element still present", zap.Int("probe", n))
		return false
	case errors.Is(err, shadowdom.ErrElementNotFound):
		return ctx.Err() == nil
	default:
		logger.Debug("Probe failed, treating element as present", zap.Int("probe", n), zap.Error(err))
		return false
	}
}
