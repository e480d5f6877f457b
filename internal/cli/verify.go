package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chncwang/arraym/internal/verify"
)

// errChecksFailed is returned by the verify command when any check fails.
var errChecksFailed = errors.New("checks failed")

func newVerifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check traversal coverage, round trips and joint iteration",
		Long: `verify walks every profile array in memory-locality and declared order and
checks that each element is produced exactly once, writes and reads back every
element, and pairs row-major, column-major and multislice arrays of the same
shape through joint iteration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg, err := opts.loadProfile(ctx)
			if err != nil {
				return err
			}

			p := printer{w: cmd.OutOrStdout()}
			total, failed := 0, 0
			record := func(array string, r checkResult) {
				total++
				if r.err != nil {
					failed++
					p.failure("%s: %s", array, r.name)
					p.detail("%v", r.err)
					return
				}
				p.success("%s: %s", array, r.name)
			}

			prog := newProgress(logger)
			err = opts.forEachJob(ctx, cfg, func(j job) error {
				for _, r := range j.verify() {
					record(j.name(), r)
				}
				return nil
			})
			if err != nil {
				return err
			}

			specs, err := opts.selectArrays(cfg)
			if err != nil {
				return err
			}
			for _, spec := range specs {
				record(spec.Name, checkResult{"joint iteration", verify.CheckJoint(spec.ShapeOf())})
			}
			prog.done("verified", "checks", total, "failed", failed)

			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errChecksFailed, failed, total)
			}
			return nil
		},
	}
}
