// Package loader reads per-season match files into a chronological match history.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/okian/surfelo/internal/domain/model"
	"github.com/okian/surfelo/pkg/logger"
	"github.com/okian/surfelo/pkg/metrics"
)

const (
	defaultDir     = "data"
	defaultPattern = "atp_matches_%d.csv"

	colWinner  = "winner_name"
	colLoser   = "loser_name"
	colSurface = "surface"
)

// Loader reads one CSV file per season.
type Loader struct {
	fsys    fs.FS
	dir     string
	pattern string
	first   int
	last    int
	logger  logger.Logger
}

// New creates a loader with configuration options.
func New(opts ...Option) *Loader {
	l := &Loader{
		fsys:    os.DirFS(defaultDir),
		dir:     defaultDir,
		pattern: defaultPattern,
		first:   2000,
		last:    2019,
		logger:  logger.Get().Named("loader"),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load returns every match from the first to the last season, in season
// order and file order within a season. Missing season files are skipped
// with a warning.
func (l *Loader) Load(ctx context.Context) ([]model.Match, error) {
	if l.first > l.last {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRange, l.first, l.last)
	}

	var (
		matches []model.Match
		loaded  int
	)
	for season := l.first; season <= l.last; season++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := fmt.Sprintf(l.pattern, season)
		f, err := l.fsys.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn(ctx, "season file missing", logger.Int("season", season), logger.String("file", name))
			metrics.RecordErrorByComponent("loader", "missing_season")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}

		before := len(matches)
		matches, err = readSeason(f, name, season, matches)
		_ = f.Close()
		if err != nil {
			metrics.RecordErrorByComponent("loader", "malformed_record")
			return nil, err
		}
		loaded++
		l.logger.Debug(ctx, "season loaded",
			logger.Int("season", season),
			logger.Int("matches", len(matches)-before),
		)
	}

	if loaded == 0 {
		return nil, fmt.Errorf("%w: %s, seasons %d-%d", ErrNoSeasons, l.dir, l.first, l.last)
	}

	metrics.RecordMatchesLoaded(len(matches))
	metrics.UpdateSeasonsLoaded(loaded)
	l.logger.Info(ctx, "match history loaded",
		logger.Int("seasons", loaded),
		logger.Int("matches", len(matches)),
	)
	return matches, nil
}

// readSeason appends the matches of one season file to dst.
func readSeason(r io.Reader, name string, season int, dst []model.Match) ([]model.Match, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return dst, fmt.Errorf("%s: read header: %w", name, err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, c := range []string{colWinner, colLoser} {
		if _, ok := colIdx[c]; !ok {
			return dst, fmt.Errorf("%s: %w: %s", name, ErrMissingColumn, c)
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			return dst, nil
		}
		if err != nil {
			return dst, fmt.Errorf("%s: %w: %v", name, ErrMalformedRecord, err)
		}
		line, _ := reader.FieldPos(0)

		winner := getCol(row, colIdx, colWinner)
		loser := getCol(row, colIdx, colLoser)
		if winner == "" || loser == "" {
			return dst, fmt.Errorf("%s:%d: %w: empty player name", name, line, ErrMalformedRecord)
		}

		raw := getCol(row, colIdx, colSurface)
		surface := model.ParseSurface(raw)
		if surface == model.Grass && !strings.EqualFold(raw, "grass") {
			metrics.RecordSurfaceFolded()
		}

		dst = append(dst, model.Match{
			Winner:  winner,
			Loser:   loser,
			Surface: surface,
			Season:  season,
		})
	}
}

func getCol(row []string, colIdx map[string]int, name string) string {
	i, ok := colIdx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
