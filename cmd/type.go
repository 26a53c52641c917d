package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/mimic/internal/browser/interaction"
)

func newTypeCmd() *cobra.Command {
	var (
		clearFirst bool
		timeout    time.Duration
		visible    bool
	)
	cmd := &cobra.Command{
		Use:   "type <url> <selector> <text>",
		Short: "Focus an input and type text into it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			url, selector, text := args[0], args[1], args[2]
			return withPage(cmd, cfg, url, func(ctx context.Context, env *environment) error {
				err := env.interactor.Type(ctx, env.page, selector, text, interaction.TypeOptions{
					Timeout: timeout,
					Visible: visible,
					Clear:   clearFirst,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "typed %d characters into %s\n", len([]rune(text)), selector)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete the field's current value first")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "element search timeout (default from config)")
	cmd.Flags().BoolVar(&visible, "visible", false, "only accept visible elements")
	return cmd
}
