package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	service "github.com/okian/surfelo/internal/app"
	"github.com/okian/surfelo/internal/domain/model"
	"github.com/okian/surfelo/internal/engine"
	"github.com/okian/surfelo/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init(logger.WithLevel("error"))
	if err != nil {
		panic(err)
	}
}

type sliceSource struct {
	matches []model.Match
	err     error
}

func (s sliceSource) Load(context.Context) ([]model.Match, error) { return s.matches, s.err }

// roundRobin plays every pair once per season on rotating surfaces; the
// lower-numbered player always wins.
func roundRobin(seasons []int, players int) []model.Match {
	var out []model.Match
	k := 0
	for _, season := range seasons {
		for a := 0; a < players; a++ {
			for b := a + 1; b < players; b++ {
				out = append(out, model.Match{
					Winner:  fmt.Sprintf("player-%d", a),
					Loser:   fmt.Sprintf("player-%d", b),
					Surface: model.Surfaces[k%model.NumSurfaces],
					Season:  season,
				})
				k++
			}
		}
	}
	return out
}

func TestService_Run(t *testing.T) {
	Convey("Given a service over an in-memory history", t, func() {
		dir := t.TempDir()
		var out bytes.Buffer
		matches := roundRobin([]int{2010, 2011, 2012}, 6)
		svc := service.New(
			service.WithSource(sliceSource{matches: matches}),
			service.WithRunner(engine.NewRunner(engine.WithWorkers(2))),
			service.WithCandidates(12),
			service.WithSeed(5),
			service.WithEvalSeason(2012),
			service.WithTop(3),
			service.WithLeaderboardSize(4),
			service.WithOutput(filepath.Join(dir, "results.csv")),
			service.WithMetricsTextfile(filepath.Join(dir, "surfelo.prom")),
			service.WithWriter(&out),
		)

		Convey("When the batch runs", func() {
			res, err := svc.Run(context.Background())

			Convey("Then every candidate is ranked best-first", func() {
				So(err, ShouldBeNil)
				So(res.Table.Rows, ShouldHaveLength, 12)
				So(res.Table.EvalMatches, ShouldEqual, 15)
				So(res.Best, ShouldResemble, res.Table.Rows[0])
				for i := 1; i < len(res.Table.Rows); i++ {
					So(res.Table.Rows[i-1].LogLoss, ShouldBeLessThanOrEqualTo, res.Table.Rows[i].LogLoss)
				}
			})

			Convey("Then the baselines are scored", func() {
				So(res.Baselines, ShouldHaveLength, 3)
				So(res.Baselines[0].Name, ShouldEqual, "selected")
				So(res.Baselines[1].Name, ShouldEqual, "identity")
				So(res.Baselines[2].Name, ShouldEqual, "all-ones")
			})

			Convey("Then the leaderboard lists the best players per surface", func() {
				for _, surface := range model.Surfaces {
					entries := res.Leaderboard[surface]
					So(entries, ShouldHaveLength, 4)
					// player-0 never loses, so someone is above the neutral rating.
					So(entries[0].Rating, ShouldBeGreaterThan, 1)
					for i := 1; i < len(entries); i++ {
						So(entries[i-1].Rating, ShouldBeGreaterThanOrEqualTo, entries[i].Rating)
					}
				}
			})

			Convey("Then the outputs are written", func() {
				csv, err := os.ReadFile(filepath.Join(dir, "results.csv"))
				So(err, ShouldBeNil)
				So(bytes.Count(csv, []byte("\n")), ShouldEqual, 13)

				prom, err := os.ReadFile(filepath.Join(dir, "surfelo.prom"))
				So(err, ShouldBeNil)
				So(string(prom), ShouldContainSubstring, "surfelo_engine_runs_total")

				So(out.String(), ShouldContainSubstring, "top 3 by log_loss")
			})
		})
	})
}

func TestService_RunErrors(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		var out bytes.Buffer

		Convey("When the source fails", func() {
			boom := errors.New("boom")
			_, err := service.New(service.WithSource(sliceSource{err: boom}), service.WithWriter(&out)).Run(ctx)
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("When the source is empty", func() {
			_, err := service.New(service.WithSource(sliceSource{}), service.WithWriter(&out)).Run(ctx)
			So(errors.Is(err, service.ErrNoMatches), ShouldBeTrue)
		})

		Convey("When no match reaches the evaluation season", func() {
			_, err := service.New(
				service.WithSource(sliceSource{matches: roundRobin([]int{2001}, 3)}),
				service.WithCandidates(2),
				service.WithEvalSeason(2002),
				service.WithOutput(""),
				service.WithWriter(&out),
			).Run(ctx)
			So(errors.Is(err, engine.ErrEmptyEvaluationWindow), ShouldBeTrue)
		})
	})
}
