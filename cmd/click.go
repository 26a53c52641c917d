package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/mimic/internal/browser/interaction"
)

func newClickCmd() *cobra.Command {
	var (
		retries int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "click <url> <selector>",
		Short: "Hover over and click an element",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("retries") {
				cfg.SetInteractionMaxRetries(retries)
			}
			if cmd.Flags().Changed("timeout") {
				cfg.SetLocatorTimeout(timeout)
			}

			url, selector := args[0], args[1]
			return withPage(cmd, cfg, url, func(ctx context.Context, env *environment) error {
				err := env.interactor.HoverAndClick(ctx, env.page, selector, interaction.ClickOptions{
					MaxRetries: cfg.Interaction().MaxRetries,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "clicked %s\n", selector)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&retries, "retries", 0, "maximum attempts (default from config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "element search timeout per attempt")
	return cmd
}
