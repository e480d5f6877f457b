package cli

import (
	"context"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chncwang/arraym/internal/config"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version and the
// version command. It is typically called from main with values injected via
// ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// options are the flags shared by every command.
type options struct {
	verbose bool
	profile string
	arrays  []string
}

// Execute runs the arraym CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "arraym",
		Short:        "arraym inspects and exercises multi-layout N-d arrays",
		Long:         `arraym builds the arrays described by a TOML profile and reports on their memory layout, checks traversal invariants and times traversals.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.SetVersionTemplate(versionText())
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "TOML profile (default: built-in profile)")
	root.PersistentFlags().StringSliceVarP(&opts.arrays, "array", "a", nil, "only use the named profile arrays")

	root.AddCommand(newInspectCmd(opts))
	root.AddCommand(newVerifyCmd(opts))
	root.AddCommand(newBenchCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

func versionText() string {
	return fmt.Sprintf("arraym %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), versionText())
		},
	}
}

// loadProfile returns the profile named by opts, or the built-in one.
func (o *options) loadProfile(ctx context.Context) (*config.Config, error) {
	logger := loggerFromContext(ctx)
	if o.profile == "" {
		logger.Debug("using built-in profile")
		return config.Default(), nil
	}
	cfg, err := config.Load(o.profile)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded profile", "path", o.profile, "arrays", len(cfg.Arrays))
	return cfg, nil
}

// selectArrays returns the profile arrays named by opts, all of them if none
// were named.
func (o *options) selectArrays(cfg *config.Config) ([]config.ArraySpec, error) {
	if len(o.arrays) == 0 {
		return cfg.Arrays, nil
	}
	byName := make(map[string]config.ArraySpec, len(cfg.Arrays))
	for _, a := range cfg.Arrays {
		byName[a.Name] = a
	}
	specs := make([]config.ArraySpec, 0, len(o.arrays))
	for _, name := range o.arrays {
		spec, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("profile has no array %q", name)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// forEachJob builds every selected array in turn, calls fn and releases it.
func (o *options) forEachJob(ctx context.Context, cfg *config.Config, fn func(j job) error) error {
	specs, err := o.selectArrays(cfg)
	if err != nil {
		return err
	}
	logger := loggerFromContext(ctx)
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return err
		}
		j, err := newJob(spec)
		if err != nil {
			return err
		}
		logger.Debug("built array", "name", spec.Name, "shape", spec.Shape, "layout", spec.Layout)
		err = fn(j)
		j.release()
		if err != nil {
			return fmt.Errorf("%s: %w", spec.Name, err)
		}
	}
	return nil
}
