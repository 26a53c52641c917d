package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/mimic/internal/browser/poller"
)

func newWaitGoneCmd() *cobra.Command {
	var (
		deadline time.Duration
		interval time.Duration
		visible  bool
	)
	cmd := &cobra.Command{
		Use:   "wait-gone <url> <selector>",
		Short: "Block until an element disappears or a deadline passes",
		Long: `Polls the page until no element matches the selector. Useful when a
person has to complete a step in the browser window, such as dismissing a
dialog, before automation continues.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("deadline") {
				cfg.SetPollerDeadline(deadline)
			}
			if cmd.Flags().Changed("interval") {
				cfg.SetPollerInterval(interval)
			}

			url, selector := args[0], args[1]
			return withPage(cmd, cfg, url, func(ctx context.Context, env *environment) error {
				start := time.Now()
				if err := env.poller.WaitUntilGone(ctx, env.page, selector, poller.Options{Visible: visible}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s gone after %s\n", selector, time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "give up after this long (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between checks (default from config)")
	cmd.Flags().BoolVar(&visible, "visible", false, "treat a hidden element as gone")
	return cmd
}
