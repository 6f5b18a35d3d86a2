// Package cli is the cffinder command-line front end. It drives the same
// FinderService as the HTTP API and prints results as tables or JSON.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cf_finder/internal/app/engine"
	"cf_finder/internal/app/service"
	"cf_finder/internal/domain/repository"
	"cf_finder/internal/platform/cache"
	"cf_finder/internal/platform/codeforces"
	"cf_finder/internal/platform/config"
	"cf_finder/internal/platform/database"
	"cf_finder/internal/platform/telemetry"

	"github.com/spf13/cobra"
)

// cliSession is the sequencer session every CLI invocation runs under.
const cliSession = "cli"

// Builder wires a FinderService. The returned cleanup releases whatever the
// service holds open.
type Builder func(ctx context.Context) (*service.FinderService, func(), error)

type app struct {
	build      Builder
	out        io.Writer
	jsonOutput bool
}

// NewRootCmd returns the cffinder command tree. A nil build wires the
// service from the environment.
func NewRootCmd(build Builder, out io.Writer) *cobra.Command {
	if build == nil {
		build = buildFromEnv
	}
	if out == nil {
		out = os.Stdout
	}
	a := &app{build: build, out: out}

	root := &cobra.Command{
		Use:   "cffinder",
		Short: "Find unsolved Codeforces practice problems and plan revision",
		Long: `cffinder aggregates accepted Codeforces submissions across handles.

  find     problems solved by target users that practice users have not solved
  revise   a user's own solved problems, stalest first
  history  recently saved finder queries`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(a.newFindCmd(), a.newReviseCmd(), a.newHistoryCmd())
	return root
}

// Execute runs the root command against the process environment.
func Execute() error {
	return NewRootCmd(nil, nil).Execute()
}

func buildFromEnv(ctx context.Context) (*service.FinderService, func(), error) {
	if err := config.Load(); err != nil {
		return nil, nil, err
	}
	cfg := config.AppConfig

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	metrics := telemetry.NewMetrics(nil)

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		database.Close(db)
		return nil, nil, err
	}
	cleanup := func() { database.Close(db) }

	var fetcher engine.Fetcher = codeforces.NewClient(cfg.CFAPIBaseURL, cfg.CFHTTPTimeout, metrics, logger)
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// The cache is an accelerator; run without it.
			logger.Warn("redis unavailable, continuing without cache", "error", err)
		} else {
			fetcher = cache.NewCachingFetcher(fetcher, cache.NewSubmissionCache(rdb, cfg.SubmissionCacheTTL, metrics, logger))
			cleanup = func() {
				cache.Close(rdb)
				database.Close(db)
			}
		}
	}

	policy, err := engine.ParseSelectorPolicy(cfg.DefaultSelectorPolicy, engine.DefaultFinderPolicy)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc := service.NewFinderService(
		fetcher,
		repository.NewSQLSavedQueryRepository(db, cfg.SavedQueryLimit),
		service.NewSequencer(1),
		metrics,
		logger,
		policy,
	)
	return svc, cleanup, nil
}

func (a *app) withService(ctx context.Context, fn func(*service.FinderService) error) error {
	svc, cleanup, err := a.build(ctx)
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	return fn(svc)
}
