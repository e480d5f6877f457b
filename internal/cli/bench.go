package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBenchCmd(opts *options) *cobra.Command {
	var iterations int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time declared-order, locality and parallel traversals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if iterations < 1 {
				return fmt.Errorf("iterations must be at least 1, got %d", iterations)
			}
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg, err := opts.loadProfile(ctx)
			if err != nil {
				return err
			}
			pcfg := cfg.Parallel.ParallelConfig()
			logger.Debug("parallel", "enabled", pcfg.Enabled, "workers", pcfg.NumWorkers, "min_runs", pcfg.MinRuns)

			p := printer{w: cmd.OutOrStdout()}
			return opts.forEachJob(ctx, cfg, func(j job) error {
				prog := newProgress(logger)
				res, err := j.bench(ctx, iterations, pcfg)
				if err != nil {
					return err
				}
				prog.done("benchmarked", "array", j.name(), "iterations", iterations)

				p.title("%s", j.name())
				p.keyValue("elements", res.elements)
				p.keyValue("declared", perElement(res.declared, res.elements, iterations))
				p.keyValue("locality", perElement(res.locality, res.elements, iterations))
				p.keyValue("parallel", perElement(res.parallel, res.elements, iterations))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 3, "traversals per measurement")
	return cmd
}

// perElement formats the average duration of one traversal and of one element.
func perElement(total time.Duration, elements, iterations int) string {
	if elements == 0 || iterations <= 0 {
		return "n/a"
	}
	traversal := total / time.Duration(iterations)
	ns := float64(traversal.Nanoseconds()) / float64(elements)
	return fmt.Sprintf("%s per traversal, %.2fns per element", traversal, ns)
}
