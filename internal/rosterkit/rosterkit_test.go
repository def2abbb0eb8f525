package rosterkit_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/raffle/internal/adapters/http/api"
	"github.com/okian/raffle/internal/adapters/roster"
	service "github.com/okian/raffle/internal/app"
	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/internal/rosterkit"
	"github.com/okian/raffle/pkg/logger"
)

func init() {
	_ = logger.InitWithWriter(io.Discard, logger.FormatText)
}

func TestGenerate(t *testing.T) {
	Convey("Given a seed", t, func() {
		a := rosterkit.Generate(50, 42, nil)
		b := rosterkit.Generate(50, 42, nil)
		c := rosterkit.Generate(50, 43, nil)

		Convey("Then the same seed gives the same roster", func() {
			So(a, ShouldResemble, b)
			So(a[0].ID, ShouldNotEqual, c[0].ID)
		})

		Convey("Then ids are unique and departments rotate", func() {
			seen := map[string]bool{}
			for i, g := range a {
				So(seen[g.ID], ShouldBeFalse)
				seen[g.ID] = true
				So(g.Department, ShouldEqual, rosterkit.DefaultDepartments[i%len(rosterkit.DefaultDepartments)])
				So(g.NPS, ShouldBeBetweenOrEqual, 40.0, 100.0)
			}
		})

		Convey("Then a written roster loads back unchanged", func() {
			path := filepath.Join(t.TempDir(), "out", "roster.json")
			So(rosterkit.WriteRoster(context.Background(), path, a), ShouldBeNil)
			loaded, err := roster.Load(path)
			So(err, ShouldBeNil)
			So(loaded, ShouldResemble, a)
		})

		Convey("Then GenerateFile writes the configured roster", func() {
			cfg := &rosterkit.Config{
				Guides:      9,
				Seed:        42,
				Departments: []string{"North", "South"},
				RosterFile:  filepath.Join(t.TempDir(), "gen.json"),
			}
			So(rosterkit.GenerateFile(context.Background(), cfg), ShouldBeNil)
			loaded, err := roster.Load(cfg.RosterFile)
			So(err, ShouldBeNil)
			So(loaded, ShouldResemble, rosterkit.Generate(9, 42, []string{"North", "South"}))
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a roster and winners drawn from it", t, func() {
		guides := rosterkit.Generate(6, 1, []string{"Sales", "Billing"})
		at := time.Unix(1700000000, 0).UTC()
		winners := []model.Winner{
			model.NewWinner("w-1", guides[0], at),
			model.NewWinner("w-2", guides[1], at),
			model.NewWinner("w-3", guides[2], at),
		}

		Convey("A clean ledger verifies", func() {
			report, err := rosterkit.Verify(guides, winners)
			So(err, ShouldBeNil)
			So(report.Winners, ShouldEqual, 3)
			So(report.Stats.Departments, ShouldHaveLength, 2)
		})

		Convey("A repeated guide is reported", func() {
			winners = append(winners, model.NewWinner("w-4", guides[0], at))
			_, err := rosterkit.Verify(guides, winners)
			So(errors.Is(err, rosterkit.ErrDuplicateWinner), ShouldBeTrue)
		})

		Convey("A stranger and a stale snapshot are both reported", func() {
			stranger := guides[3]
			stranger.ID = "nobody"
			stale := model.NewWinner("w-5", guides[4], at)
			stale.TotalTickets++
			winners = append(winners, model.NewWinner("w-4", stranger, at), stale)

			_, err := rosterkit.Verify(guides, winners)
			So(errors.Is(err, rosterkit.ErrUnknownGuide), ShouldBeTrue)
			So(errors.Is(err, rosterkit.ErrSnapshotMismatch), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running raffle service", t, func() {
		ctx := context.Background()
		guides := rosterkit.Generate(23, 7, nil)
		rosterPath := filepath.Join(t.TempDir(), "roster.json")
		So(rosterkit.WriteRoster(ctx, rosterPath, guides), ShouldBeNil)

		svc := service.New(service.WithRoster(guides), service.WithSeed(5))
		So(svc.Start(ctx), ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc, svc, nil).Register(mux)
		srv := httptest.NewServer(mux)
		Reset(func() {
			srv.Close()
			svc.Stop()
		})

		cfg := &rosterkit.Config{BaseURL: srv.URL, Timeout: 5 * time.Second, RosterFile: rosterPath}

		Convey("When the pool is drained", func() {
			stats, err := rosterkit.Run(ctx, cfg)

			Convey("Then every guide won once, zero-ticket guides included", func() {
				So(err, ShouldBeNil)
				So(stats.LedgerSize, ShouldEqual, len(guides))
				So(stats.WinnersDrawn, ShouldEqual, stats.LedgerSize)
				So(stats.DrawsRun, ShouldEqual, 5)
			})
		})

		Convey("When the number of draws is capped", func() {
			cfg.Draws = 2
			cfg.RosterFile = ""
			stats, err := rosterkit.Run(ctx, cfg)

			Convey("Then only those draws run and the service roster is used", func() {
				So(err, ShouldBeNil)
				So(stats.DrawsRun, ShouldEqual, 2)
				So(stats.LedgerSize, ShouldEqual, 10)
			})
		})

		Convey("When the service is unreachable", func() {
			cfg.BaseURL = "http://127.0.0.1:1"
			_, err := rosterkit.Run(ctx, cfg)

			Convey("Then the health check fails", func() {
				So(errors.Is(err, rosterkit.ErrUnhealthy), ShouldBeTrue)
			})
		})
	})
}
