package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/surfelo/internal/domain/params"
	"github.com/okian/surfelo/internal/domain/rating"
)

// Metric selects an evaluation statistic for ranking.
type Metric int

// Supported metrics. Log-loss and Brier rank ascending, win percentage descending.
const (
	LogLoss Metric = iota
	WinPct
	Brier
)

// ParseMetric maps a column name to a Metric.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "log_loss", "logloss":
		return LogLoss, nil
	case "win_pct", "winpct":
		return WinPct, nil
	case "brier":
		return Brier, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

// String returns the column name of the metric.
func (m Metric) String() string {
	switch m {
	case LogLoss:
		return "log_loss"
	case WinPct:
		return "win_pct"
	case Brier:
		return "brier"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// Stats are per-match averages over the evaluation window.
type Stats struct {
	LogLoss float64 // mean -log(p)
	WinPct  float64 // share of matches where the winner was the favorite (p > 0.5)
	Brier   float64 // mean (1-p)^2
}

// Value returns the statistic selected by m.
func (s Stats) Value(m Metric) float64 {
	switch m {
	case WinPct:
		return s.WinPct
	case Brier:
		return s.Brier
	default:
		return s.LogLoss
	}
}

// better reports whether a ranks strictly ahead of b on m.
func better(a, b Stats, m Metric) bool {
	if m == WinPct {
		return a.WinPct > b.WinPct
	}
	return a.Value(m) < b.Value(m)
}

// Row is one line of the statistics table.
type Row struct {
	Index  int
	Matrix [params.NumEntries]float64
	K      rating.KFactor
	Stats
}

// Table is the output of a run, keyed by candidate index.
type Table struct {
	RunID       string
	Matches     int // matches simulated
	EvalMatches int // matches inside the evaluation window
	EvalSeason  int
	Rows        []Row
}

// Rank returns candidate indices best-first on m, ties broken by index.
func Rank(stats []Stats, m Metric) []int {
	idx := make([]int, len(stats))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := stats[idx[i]], stats[idx[j]]
		if better(a, b, m) {
			return true
		}
		if better(b, a, m) {
			return false
		}
		return idx[i] < idx[j]
	})
	return idx
}

// SortBy returns a copy of the table with rows ordered best-first on m.
func (t *Table) SortBy(m Metric) *Table {
	out := *t
	out.Rows = append([]Row(nil), t.Rows...)
	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		if better(a.Stats, b.Stats, m) {
			return true
		}
		if better(b.Stats, a.Stats, m) {
			return false
		}
		return a.Index < b.Index
	})
	return &out
}

// Best returns the best row on m, or false for an empty table.
func (t *Table) Best(m Metric) (Row, bool) {
	if len(t.Rows) == 0 {
		return Row{}, false
	}
	best := t.Rows[0]
	for _, r := range t.Rows[1:] {
		if better(r.Stats, best.Stats, m) || (!better(best.Stats, r.Stats, m) && r.Index < best.Index) {
			best = r
		}
	}
	return best, true
}

// Stats returns the statistics column in row order.
func (t *Table) Stats() []Stats {
	out := make([]Stats, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Stats
	}
	return out
}
