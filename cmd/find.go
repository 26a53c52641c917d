package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/mimic/api/schemas"
	"github.com/xkilldash9x/mimic/internal/browser/shadowdom"
)

type findResult struct {
	Selector  string       `json:"selector"`
	Element   string       `json:"element"`
	FramePath string       `json:"frame_path"`
	Depth     int          `json:"depth"`
	Visible   bool         `json:"visible"`
	Box       schemas.Rect `json:"box"`
}

func newFindCmd() *cobra.Command {
	var (
		timeout time.Duration
		visible bool
	)
	cmd := &cobra.Command{
		Use:   "find <url> <selector>",
		Short: "Locate an element across frames and shadow roots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timeout") {
				cfg.SetLocatorTimeout(timeout)
			}
			if visible {
				cfg.SetLocatorVisibleOnly(true)
			}

			url, selector := args[0], args[1]
			return withPage(cmd, cfg, url, func(ctx context.Context, env *environment) error {
				located, err := env.walker.FindElementAcrossDocuments(ctx, env.page, selector, shadowdom.Options{
					Visible: cfg.Locator().VisibleOnly,
				})
				if err != nil {
					return err
				}
				box, err := located.ViewportBox(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), findResult{
					Selector:  selector,
					Element:   located.Element.Description(),
					FramePath: located.Context.Path(),
					Depth:     located.Context.Depth(),
					Visible:   located.Visible,
					Box:       box,
				})
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "how long to keep searching (default from config)")
	cmd.Flags().BoolVar(&visible, "visible", false, "only accept visible elements")
	return cmd
}
