package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/mimic/internal/browser/humanoid"
)

func newWarmupCmd() *cobra.Command {
	var (
		duration  time.Duration
		movements int
	)
	cmd := &cobra.Command{
		Use:   "warmup <url>",
		Short: "Move and scroll idly on a page for a while",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			opts := humanoid.BehaviorOptions{Duration: duration, Movements: movements}
			if opts.Duration <= 0 {
				opts.Duration = cfg.Interaction().WarmupDuration.Sample()
			}
			if opts.Movements <= 0 {
				opts.Movements = cfg.Interaction().WarmupMovements.Sample()
			}
			return withPage(cmd, cfg, args[0], func(ctx context.Context, env *environment) error {
				if err := env.interactor.SimulateBehavior(ctx, opts); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "warmed up for %s\n", opts.Duration)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 0, "total idle time (default sampled from config)")
	cmd.Flags().IntVar(&movements, "movements", 0, "number of pointer glides (default sampled from config)")
	return cmd
}
