// Package engine runs the chronological rating simulation for a bank of
// candidate parameter settings and scores how well each one predicts the
// matches in an evaluation window.
package engine

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/surfelo/internal/adapters/repository"
	"github.com/okian/surfelo/internal/domain/model"
	"github.com/okian/surfelo/internal/domain/params"
	"github.com/okian/surfelo/internal/domain/rating"
	"github.com/okian/surfelo/pkg/logger"
	"github.com/okian/surfelo/pkg/metrics"
)

const (
	defaultCheckEvery = 4096

	modeSearch   = "search"
	modeSelected = "selected"
)

// Runner drives full passes over a match history.
type Runner struct {
	workers    int
	checkEvery int
	logger     logger.Logger
}

// NewRunner creates a runner with configuration options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		workers:    runtime.NumCPU(),
		checkEvery: defaultCheckEvery,
		logger:     logger.Get().Named("engine"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// accumulator collects the running evaluation sums for a pass.
type accumulator struct {
	logLoss []float64
	wins    []float64
	brier   []float64
	count   int
}

func newAccumulator(n int) *accumulator {
	return &accumulator{
		logLoss: make([]float64, n),
		wins:    make([]float64, n),
		brier:   make([]float64, n),
	}
}

func (a *accumulator) add(c int, p float64) {
	a.logLoss[c] -= math.Log(p)
	if p > 0.5 {
		a.wins[c]++
	}
	a.brier[c] += (1 - p) * (1 - p)
}

func (a *accumulator) means() ([]Stats, error) {
	if a.count == 0 {
		return nil, ErrEmptyEvaluationWindow
	}
	n := float64(a.count)
	out := make([]Stats, len(a.logLoss))
	for c := range out {
		out[c] = Stats{
			LogLoss: a.logLoss[c] / n,
			WinPct:  a.wins[c] / n,
			Brier:   a.brier[c] / n,
		}
	}
	return out, nil
}

// simulate walks matches once in order, applying the update rule for every
// candidate in ps and handing each match's win probabilities to observe when
// the match falls in the evaluation window. The store is reset first and
// holds the final ratings afterwards.
func (r *Runner) simulate(ctx context.Context, matches []model.Match, ps []rating.Params, evalSeason int,
	store *repository.PlayerStore, observe func(prob []float64)) error {
	store.ResetAll()
	step := rating.NewStep(len(ps))

	for i := range matches {
		if i%r.checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("simulation stopped at match %d: %w", i, err)
			}
		}
		m := &matches[i]
		w := store.Load(m.Winner)
		l := store.Load(m.Loser)

		// Deltas come from pre-update ratings of both players.
		rating.Update(w.Ratings, l.Ratings, w.Count, l.Count, m.Surface, ps, step)
		for c := range ps {
			for d := range w.Ratings[c] {
				w.Ratings[c][d] += step.Winner[c][d]
				l.Ratings[c][d] += step.Loser[c][d]
			}
		}
		w.Count++
		l.Count++

		if m.Season >= evalSeason {
			observe(step.Prob)
		}
	}

	metrics.RecordMatchesProcessed(len(matches))
	metrics.UpdatePlayersTracked(store.Len())
	return nil
}

// Pass runs one full simulation of ps over matches using store and returns
// per-candidate mean statistics plus the evaluation-window match count.
func (r *Runner) Pass(ctx context.Context, matches []model.Match, ps []rating.Params, evalSeason int,
	store *repository.PlayerStore) ([]Stats, int, error) {
	if len(ps) == 0 {
		return nil, 0, ErrNoCandidates
	}
	if store.Candidates() != len(ps) {
		return nil, 0, fmt.Errorf("%w: store has %d, pass has %d", repository.ErrRatingsLength, store.Candidates(), len(ps))
	}

	acc := newAccumulator(len(ps))
	err := r.simulate(ctx, matches, ps, evalSeason, store, func(prob []float64) {
		acc.count++
		for c, p := range prob {
			acc.add(c, p)
		}
	})
	if err != nil {
		return nil, 0, err
	}

	stats, err := acc.means()
	if err != nil {
		metrics.RecordErrorByComponent("engine", "empty_evaluation_window")
		return nil, 0, fmt.Errorf("evaluation season %d: %w", evalSeason, err)
	}
	return stats, acc.count, nil
}

// Run evaluates every candidate in bank over matches. Candidates are split
// into contiguous shards simulated concurrently, each with its own player
// store; per-candidate results do not depend on the sharding.
func (r *Runner) Run(ctx context.Context, matches []model.Match, bank *params.Bank, evalSeason int) (*Table, error) {
	if bank == nil || bank.Len() == 0 {
		return nil, ErrNoCandidates
	}
	start := time.Now()
	runID := uuid.NewString()
	ps := bank.Params()
	shards := min(r.workers, len(ps))
	log := r.logger.With(logger.String("run_id", runID))

	log.Info(ctx, "simulation started",
		logger.Int("candidates", len(ps)),
		logger.Int("matches", len(matches)),
		logger.Int("eval_season", evalSeason),
		logger.Int("shards", shards),
	)
	metrics.UpdateCandidates(len(ps))

	stats := make([]Stats, len(ps))
	evalCounts := make([]int, shards)
	g, gctx := errgroup.WithContext(ctx)
	for s := 0; s < shards; s++ {
		s := s
		lo := s * len(ps) / shards
		hi := (s + 1) * len(ps) / shards
		g.Go(func() error {
			metrics.IncActiveShards()
			defer metrics.DecActiveShards()

			store := repository.NewPlayerStore(hi - lo)
			part, n, err := r.Pass(gctx, matches, ps[lo:hi], evalSeason, store)
			if err != nil {
				return err
			}
			copy(stats[lo:hi], part)
			evalCounts[s] = n
			log.Debug(gctx, "shard finished", logger.Int("from", lo), logger.Int("to", hi))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error(ctx, "simulation failed", logger.Error(err))
		return nil, err
	}

	table := &Table{
		RunID:       runID,
		Matches:     len(matches),
		EvalMatches: evalCounts[0],
		EvalSeason:  evalSeason,
		Rows:        make([]Row, len(ps)),
	}
	for c, cand := range bank.Candidates() {
		table.Rows[c] = Row{Index: cand.Index, Matrix: cand.A.Flatten(), K: cand.K, Stats: stats[c]}
	}

	took := time.Since(start)
	metrics.RecordRun(modeSearch, took.Seconds())
	metrics.RecordMatchesEvaluated(table.EvalMatches)
	log.Info(ctx, "simulation finished",
		logger.Int("eval_matches", table.EvalMatches),
		logger.Duration("took", took),
	)
	return table, nil
}

// RunSelected scores a fixed set of candidates as one predictor: at every
// evaluated match the candidates' win probabilities are averaged first and
// the statistics are computed from that mean probability. With a single
// candidate this equals Run with a one-candidate bank.
func (r *Runner) RunSelected(ctx context.Context, matches []model.Match, ps []rating.Params, evalSeason int) (Stats, int, error) {
	if len(ps) == 0 {
		return Stats{}, 0, ErrNoCandidates
	}
	start := time.Now()
	store := repository.NewPlayerStore(len(ps))
	acc := newAccumulator(1)

	err := r.simulate(ctx, matches, ps, evalSeason, store, func(prob []float64) {
		acc.count++
		mean := 0.0
		for _, p := range prob {
			mean += p
		}
		acc.add(0, rating.ClampProbability(mean/float64(len(prob))))
	})
	if err != nil {
		return Stats{}, 0, err
	}

	stats, err := acc.means()
	if err != nil {
		metrics.RecordErrorByComponent("engine", "empty_evaluation_window")
		return Stats{}, 0, fmt.Errorf("evaluation season %d: %w", evalSeason, err)
	}

	metrics.RecordRun(modeSelected, time.Since(start).Seconds())
	r.logger.Debug(ctx, "selected evaluation finished",
		logger.Int("candidates", len(ps)),
		logger.Int("eval_matches", acc.count),
		logger.Float64("log_loss", stats[0].LogLoss),
	)
	return stats[0], acc.count, nil
}
