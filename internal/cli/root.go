// Package cli implements tripmatectl, the operator and terminal front end
// of the recommendation engine.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tripmate/internal/app"
	"github.com/kailas-cloud/tripmate/internal/config"
	logpkg "github.com/kailas-cloud/tripmate/internal/logger"
	"github.com/kailas-cloud/tripmate/internal/version"
)

// state is shared by the subcommands of one invocation.
type state struct {
	env      string
	cfgFile  string
	logLevel string

	cfg    config.Config
	logger *zap.Logger
}

// NewRootCmd builds the tripmatectl command tree.
func NewRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "tripmatectl",
		Short: "Query, like and warm the tripmate recommendation engine",
		Long: `tripmatectl runs the recommendation engine against the configured workbooks
without the HTTP server.

Example usage:
  tripmatectl datasets                                   # List configured sheets
  tripmatectl query -c restaurants --city kl "vegan chinese"
  tripmatectl like -c hotels --city penang "Eastern & Oriental Hotel"
  tripmatectl warm --workers 4                           # Pre-fill the embedding cache`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return st.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if st.logger != nil {
				_ = st.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&st.env, "env", config.GetEnv(), "environment whose config/<env>.yaml is loaded")
	root.PersistentFlags().StringVar(&st.cfgFile, "config", "", "explicit config file (overrides --env)")
	root.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newDatasetsCmd(st),
		newQueryCmd(st),
		newLikeCmd(st),
		newWarmCmd(st),
	)
	return root
}

// Execute runs tripmatectl and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (st *state) load() error {
	var err error
	if st.cfgFile != "" {
		st.cfg, err = config.LoadFile(st.cfgFile)
	} else {
		st.cfg, err = config.Load(st.env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := st.logLevel
	if level == "" {
		level = st.cfg.Logging.Level
	}
	st.logger, err = logpkg.NewLogger("cli", level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	return nil
}

func (st *state) engine(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, st.cfg, st.logger)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return a, nil
}
