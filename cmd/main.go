package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/surfelo/internal/adapters/loader"
	app "github.com/okian/surfelo/internal/app"
	"github.com/okian/surfelo/internal/config"
	"github.com/okian/surfelo/internal/domain/params"
	"github.com/okian/surfelo/internal/domain/rating"
	"github.com/okian/surfelo/internal/engine"
	"github.com/okian/surfelo/pkg/logger"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(2)
	}

	// Logs go to stderr so the summary on stdout stays clean.
	if err := logger.Init(
		logger.WithWriter(os.Stderr),
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
	); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	if err := run(ctx, cfg, os.Stdout); err != nil {
		logger.Get().Error(ctx, "batch failed", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run executes one batch described by cfg and prints the summary to w.
func run(ctx context.Context, cfg *config.Config, w io.Writer) error {
	svc, err := newService(cfg, w)
	if err != nil {
		return err
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	logger.Get().Info(ctx, "batch finished",
		logger.String("run_id", res.Table.RunID),
		logger.Int("best_index", res.Best.Index),
		logger.Duration("took", res.Took),
	)
	return nil
}

// newService translates the configuration into service options.
func newService(cfg *config.Config, w io.Writer) (*app.Service, error) {
	metric, err := engine.ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}

	bounds, err := params.NewBounds(cfg.LowerBounds, cfg.UpperBounds)
	if err != nil {
		return nil, err
	}

	selected, ok := rating.MatrixFromSlice(cfg.SelectedMatrix)
	if !ok {
		return nil, fmt.Errorf("%w: selected_matrix needs %d entries, got %d",
			config.ErrInvalidConfig, config.NumMatrixEntries, len(cfg.SelectedMatrix))
	}

	log := logger.Get()
	src := loader.New(
		loader.WithDataDir(cfg.DataDir),
		loader.WithFilePattern(cfg.FilePattern),
		loader.WithSeasons(cfg.StartSeason, cfg.EndSeason),
		loader.WithLogger(log.Named("loader")),
	)
	runner := engine.NewRunner(
		engine.WithWorkers(cfg.Workers),
		engine.WithLogger(log.Named("engine")),
	)

	return app.New(
		app.WithSource(src),
		app.WithRunner(runner),
		app.WithLogger(log.Named("service")),
		app.WithCandidates(cfg.Candidates),
		app.WithSeed(cfg.Seed),
		app.WithKFactor(rating.KFactor{A: cfg.KA, B: cfg.KB, C: cfg.KC}),
		app.WithBounds(bounds),
		app.WithSelectedMatrix(selected),
		app.WithEvalSeason(cfg.EvalSeason),
		app.WithMetric(metric),
		app.WithTop(cfg.Top),
		app.WithLeaderboardSize(cfg.LeaderboardSize),
		app.WithOutput(cfg.Output),
		app.WithMetricsTextfile(cfg.MetricsTextfile),
		app.WithWriter(w),
	), nil
}
