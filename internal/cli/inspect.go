package cli

import (
	"github.com/spf13/cobra"
)

func newInspectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print layout, strides and traversal plan of each profile array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := opts.loadProfile(ctx)
			if err != nil {
				return err
			}
			p := printer{w: cmd.OutOrStdout()}
			first := true
			return opts.forEachJob(ctx, cfg, func(j job) error {
				if !first {
					p.newline()
				}
				first = false
				j.inspect(p)
				return nil
			})
		},
	}
}
