package cmd

import (
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mimic/internal/browser/dom"
	"github.com/xkilldash9x/mimic/internal/browser/humanoid"
	"github.com/xkilldash9x/mimic/internal/browser/interaction"
	"github.com/xkilldash9x/mimic/internal/browser/poller"
	"github.com/xkilldash9x/mimic/internal/browser/session"
	"github.com/xkilldash9x/mimic/internal/browser/shadowdom"
	"github.com/xkilldash9x/mimic/internal/config"
	"github.com/xkilldash9x/mimic/internal/observability"
)

// browserPage is a loaded page plus the input device that drives it.
type browserPage interface {
	dom.Page
	humanoid.Executor
	Close() error
}

// openPage launches a browser and loads url. Tests swap it for a fake.
var openPage = func(ctx context.Context, cfg config.Interface, logger *zap.Logger, url string) (browserPage, error) {
	s, err := session.Launch(ctx, cfg.Browser(), logger)
	if err != nil {
		return nil, err
	}
	if err := s.Navigate(ctx, url); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// environment wires the components every browser command uses.
type environment struct {
	logger     *zap.Logger
	page       browserPage
	walker     *shadowdom.Walker
	human      *humanoid.Humanoid
	interactor *interaction.Interactor
	poller     *poller.Poller
}

func newEnvironment(cfg config.Interface, logger *zap.Logger, page browserPage) *environment {
	walker := shadowdom.NewWalker(logger, cfg.Locator())
	human := humanoid.New(cfg.Humanoid(), logger, page)
	return &environment{
		logger:     logger,
		page:       page,
		walker:     walker,
		human:      human,
		interactor: interaction.NewInteractor(logger, cfg.Interaction(), cfg.Locator(), walker, human, page),
		poller:     poller.New(logger, walker, cfg.Poller()),
	}
}

// withPage opens url, runs fn against it and closes the browser.
func withPage(cmd *cobra.Command, cfg config.Interface, url string, fn func(ctx context.Context, env *environment) error) error {
	logger := observability.Named("cli").With(zap.String("command", cmd.Name()), zap.String("url", url))
	ctx := cmd.Context()

	page, err := openPage(ctx, cfg, logger, url)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", url, err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			logger.Warn("Failed to close browser.", zap.Error(cerr))
		}
	}()

	return fn(ctx, newEnvironment(cfg, logger, page))
}

func writeJSON(w io.Writer, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
