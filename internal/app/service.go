// Package service wires loading, search, scoring and reporting into one batch.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/surfelo/internal/adapters/loader"
	"github.com/okian/surfelo/internal/adapters/report"
	"github.com/okian/surfelo/internal/adapters/repository"
	"github.com/okian/surfelo/internal/domain/model"
	"github.com/okian/surfelo/internal/domain/params"
	"github.com/okian/surfelo/internal/domain/rating"
	"github.com/okian/surfelo/internal/engine"
	"github.com/okian/surfelo/pkg/logger"
	"github.com/okian/surfelo/pkg/metrics"
)

// ErrNoMatches is returned when the source yields an empty history.
var ErrNoMatches = errors.New("no matches loaded")

// MatchSource supplies the chronological match history.
type MatchSource interface {
	Load(ctx context.Context) ([]model.Match, error)
}

// Result is everything a batch produced.
type Result struct {
	Table       *engine.Table // sorted best-first on the configured metric
	Best        engine.Row
	Baselines   []report.Baseline
	Leaderboard map[model.Surface][]repository.Entry
	Took        time.Duration
}

// Service runs one estimation batch.
type Service struct {
	source MatchSource
	runner *engine.Runner

	// Search space
	candidates int
	seed       int64
	kFactor    rating.KFactor
	bounds     params.Bounds
	selected   rating.Matrix
	evalSeason int

	// Presentation
	metric          engine.Metric
	top             int
	leaderboardSize int
	output          string
	metricsTextfile string
	out             io.Writer

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where matches come from.
func WithSource(src MatchSource) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithRunner sets the simulation runner.
func WithRunner(r *engine.Runner) Option {
	return func(s *Service) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithCandidates sets the number of random candidates searched.
func WithCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.candidates = n
		}
	}
}

// WithSeed sets the candidate bank seed.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithKFactor sets the K-factor shared by every candidate.
func WithKFactor(k rating.KFactor) Option {
	return func(s *Service) {
		s.kFactor = k
	}
}

// WithBounds sets the matrix entry bounds.
func WithBounds(b params.Bounds) Option {
	return func(s *Service) {
		s.bounds = b
	}
}

// WithSelectedMatrix sets the hand-picked matrix scored next to the search.
func WithSelectedMatrix(m rating.Matrix) Option {
	return func(s *Service) {
		s.selected = m
	}
}

// WithEvalSeason sets the first evaluated season.
func WithEvalSeason(season int) Option {
	return func(s *Service) {
		s.evalSeason = season
	}
}

// WithMetric sets the ranking metric.
func WithMetric(m engine.Metric) Option {
	return func(s *Service) {
		s.metric = m
	}
}

// WithTop sets how many rows the summary prints.
func WithTop(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.top = n
		}
	}
}

// WithLeaderboardSize sets how many players are listed per surface. Zero disables the leaderboard.
func WithLeaderboardSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.leaderboardSize = n
		}
	}
}

// WithOutput sets the statistics CSV path. Empty disables it.
func WithOutput(path string) Option {
	return func(s *Service) {
		s.output = path
	}
}

// WithMetricsTextfile sets the prometheus textfile path. Empty disables it.
func WithMetricsTextfile(path string) Option {
	return func(s *Service) {
		s.metricsTextfile = path
	}
}

// WithWriter sets where the summary is printed.
func WithWriter(w io.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.out = w
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		candidates:      1000,
		seed:            42,
		kFactor:         params.DefaultKFactor,
		bounds:          params.DefaultBounds(),
		selected:        rating.Matrix{{1, 0.5, 0.5}, {0.5, 1, 0.5}, {0.5, 0.5, 1}},
		evalSeason:      2015,
		metric:          engine.LogLoss,
		top:             10,
		leaderboardSize: 10,
		out:             os.Stdout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.source == nil {
		s.source = loader.New()
	}
	if s.runner == nil {
		s.runner = engine.NewRunner()
	}

	return s
}

// Run loads the history, searches the candidate bank, scores the baselines
// and writes the reports.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	matches, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}

	bank, err := params.Generate(s.candidates, s.kFactor, s.bounds, params.WithSeed(s.seed))
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}

	table, err := s.runner.Run(ctx, matches, bank, s.evalSeason)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	sorted := table.SortBy(s.metric)
	best := sorted.Rows[0]
	metrics.UpdateBestScore(s.metric.String(), best.Value(s.metric))
	s.logger.Info(ctx, "best candidate",
		logger.String("run_id", table.RunID),
		logger.Int("index", best.Index),
		logger.String("metric", s.metric.String()),
		logger.Float64("score", best.Value(s.metric)),
	)

	baselines, err := s.baselines(ctx, matches)
	if err != nil {
		return nil, err
	}

	leaders, err := s.leaderboard(ctx, matches, bank.Candidate(best.Index).Params)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Table:       sorted,
		Best:        best,
		Baselines:   baselines,
		Leaderboard: leaders,
		Took:        time.Since(start),
	}

	if err := s.writeOutputs(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// baselines scores the selected matrix and the two reference matrices.
func (s *Service) baselines(ctx context.Context, matches []model.Match) ([]report.Baseline, error) {
	named := []struct {
		name string
		m    rating.Matrix
	}{
		{"selected", s.selected},
		{"identity", params.Identity()},
		{"all-ones", params.AllOnes()},
	}

	out := make([]report.Baseline, 0, len(named))
	for _, b := range named {
		stats, _, err := s.runner.RunSelected(ctx, matches, []rating.Params{{A: b.m, K: s.kFactor}}, s.evalSeason)
		if err != nil {
			return nil, fmt.Errorf("baseline %s: %w", b.name, err)
		}
		out = append(out, report.Baseline{Name: b.name, Stats: stats})
	}
	return out, nil
}

// leaderboard replays the best candidate alone and ranks players per surface.
func (s *Service) leaderboard(ctx context.Context, matches []model.Match, p rating.Params) (map[model.Surface][]repository.Entry, error) {
	if s.leaderboardSize == 0 {
		return nil, nil
	}

	store := repository.NewPlayerStore(1)
	if _, _, err := s.runner.Pass(ctx, matches, []rating.Params{p}, s.evalSeason, store); err != nil {
		return nil, fmt.Errorf("leaderboard pass: %w", err)
	}

	out := make(map[model.Surface][]repository.Entry, model.NumSurfaces)
	for _, surface := range model.Surfaces {
		entries, err := store.TopN(ctx, 0, surface, s.leaderboardSize)
		if err != nil {
			return nil, fmt.Errorf("leaderboard %s: %w", surface, err)
		}
		out[surface] = entries
	}
	return out, nil
}

func (s *Service) writeOutputs(ctx context.Context, res *Result) error {
	if s.output != "" {
		if err := writeCSVFile(s.output, res.Table); err != nil {
			return err
		}
		s.logger.Info(ctx, "statistics written", logger.String("path", s.output))
	}

	err := report.WriteSummary(s.out, report.Summary{
		Table:       res.Table,
		Metric:      s.metric,
		Top:         s.top,
		Baselines:   res.Baselines,
		Leaderboard: res.Leaderboard,
		Took:        res.Took,
	})
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if s.metricsTextfile != "" {
		if err := metrics.WriteTextfile(s.metricsTextfile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		s.logger.Debug(ctx, "metrics written", logger.String("path", s.metricsTextfile))
	}
	return nil
}

func writeCSVFile(path string, t *engine.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := report.WriteCSV(f, t); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
