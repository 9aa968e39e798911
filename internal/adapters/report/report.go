// Package report renders run results for people and spreadsheets.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/surfelo/internal/adapters/repository"
	"github.com/okian/surfelo/internal/domain/model"
	"github.com/okian/surfelo/internal/engine"
)

// Header is the first line of the statistics CSV.
var Header = []string{ //nolint:gochecknoglobals // fixed column layout
	"index",
	"a00", "a01", "a02", "a10", "a11", "a12", "a20", "a21", "a22",
	"k_a", "k_b", "k_c",
	"log_loss", "win_pct", "brier",
}

// WriteCSV writes one line per row of the table, in table order.
func WriteCSV(w io.Writer, t *engine.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(Header))
	for _, r := range t.Rows {
		rec = rec[:0]
		rec = append(rec, strconv.Itoa(r.Index))
		for _, v := range r.Matrix {
			rec = append(rec, formatFloat(v))
		}
		rec = append(rec,
			formatFloat(r.K.A), formatFloat(r.K.B), formatFloat(r.K.C),
			formatFloat(r.LogLoss), formatFloat(r.WinPct), formatFloat(r.Brier),
		)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r.Index, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Baseline is a named single-predictor result shown next to the search.
type Baseline struct {
	Name  string
	Stats engine.Stats
}

// Summary describes a finished batch for the console.
type Summary struct {
	Table       *engine.Table // sorted best-first
	Metric      engine.Metric
	Top         int
	Baselines   []Baseline
	Leaderboard map[model.Surface][]repository.Entry
	Took        time.Duration
}

// WriteSummary prints the run header, the top rows, baselines and the
// per-surface leaderboards of the best candidate.
func WriteSummary(w io.Writer, s Summary) error {
	p := &printer{w: w}
	t := s.Table

	p.printf("run %s: %s matches simulated, %s evaluated from season %d, %s candidates in %s\n",
		t.RunID,
		humanize.Comma(int64(t.Matches)),
		humanize.Comma(int64(t.EvalMatches)),
		t.EvalSeason,
		humanize.Comma(int64(len(t.Rows))),
		s.Took.Round(time.Millisecond),
	)

	top := min(s.Top, len(t.Rows))
	p.printf("\ntop %d by %s\n", top, s.Metric)
	p.printf("%-4s %6s  %-58s %9s %8s %8s\n", "#", "index", "matrix", "log_loss", "win_pct", "brier")
	for i, r := range t.Rows[:top] {
		p.printf("%-4s %6d  %-58s %9.5f %8.4f %8.5f\n",
			humanize.Ordinal(i+1), r.Index, matrixString(r.Matrix), r.LogLoss, r.WinPct, r.Brier)
	}

	if len(s.Baselines) > 0 {
		p.printf("\nbaselines\n")
		for _, b := range s.Baselines {
			p.printf("%-16s %9.5f %8.4f %8.5f\n", b.Name, b.Stats.LogLoss, b.Stats.WinPct, b.Stats.Brier)
		}
	}

	for _, surface := range model.Surfaces {
		entries, ok := s.Leaderboard[surface]
		if !ok || len(entries) == 0 {
			continue
		}
		p.printf("\n%s leaders\n", surface)
		for _, e := range entries {
			p.printf("%3d  %-28s %8.4f  %s matches\n", e.Rank, e.Player, e.Rating, humanize.Comma(int64(e.Matches)))
		}
	}

	return p.err
}

func matrixString(m [9]float64) string {
	out := make([]byte, 0, 64)
	for i, v := range m {
		if i > 0 {
			out = append(out, ' ')
		}
		out = strconv.AppendFloat(out, v, 'f', 3, 64)
	}
	return string(out)
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
