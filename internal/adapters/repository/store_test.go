package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/raffle/internal/adapters/repository"
	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var drawnAt = time.Date(2024, 5, 17, 9, 30, 0, 123456789, time.UTC)

func winner(guide string) model.Winner {
	return model.NewWinner("w-"+guide, model.Candidate{
		ID:            guide,
		Name:          "Name " + guide,
		Supervisor:    "Sue",
		Department:    "Sales",
		NPS:           87.5,
		NRPC:          11,
		RefundPercent: 2.25,
		TotalTickets:  42,
	}, drawnAt)
}

func guides(ws []model.Winner) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.GuideID
	}
	return out
}

type backend struct {
	name string
	open func(t *testing.T) repository.Store
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) repository.Store {
			return repository.NewMemoryStore(context.Background())
		}},
		{"sqlite", func(t *testing.T) repository.Store {
			path := filepath.Join(t.TempDir(), "ledger.db")
			s, err := repository.OpenSQL(context.Background(), repository.DriverSQLite, path)
			if err != nil {
				t.Fatalf("open sqlite ledger: %v", err)
			}
			return s
		}},
	}
}

func TestStore_Contract(t *testing.T) {
	for _, b := range backends() {
		Convey(fmt.Sprintf("Given an empty %s ledger", b.name), t, func() {
			ctx := context.Background()
			store := b.open(t)
			Reset(func() { _ = store.Close() })

			Convey("Then it lists nothing", func() {
				all, err := store.ListAll(ctx)
				So(err, ShouldBeNil)
				So(all, ShouldNotBeNil)
				So(all, ShouldBeEmpty)

				n, err := store.Count(ctx)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})

			Convey("When two batches are appended", func() {
				So(store.Append(ctx, []model.Winner{winner("g-3"), winner("g-1")}), ShouldBeNil)
				So(store.Append(ctx, []model.Winner{winner("g-2")}), ShouldBeNil)

				Convey("Then they come back in insertion order", func() {
					all, err := store.ListAll(ctx)
					So(err, ShouldBeNil)
					So(guides(all), ShouldResemble, []string{"g-3", "g-1", "g-2"})

					n, _ := store.Count(ctx)
					So(n, ShouldEqual, 3)
				})

				Convey("Then every field survives the round trip", func() {
					all, _ := store.ListAll(ctx)
					got, want := all[0], winner("g-3")
					So(got.ID, ShouldEqual, want.ID)
					So(got.Name, ShouldEqual, want.Name)
					So(got.Supervisor, ShouldEqual, want.Supervisor)
					So(got.Department, ShouldEqual, want.Department)
					So(got.NPS, ShouldEqual, want.NPS)
					So(got.NRPC, ShouldEqual, want.NRPC)
					So(got.RefundPercent, ShouldEqual, want.RefundPercent)
					So(got.TotalTickets, ShouldEqual, want.TotalTickets)
					So(got.WonAt.Equal(want.WonAt), ShouldBeTrue)
					So(got.RecordedAt.Equal(want.RecordedAt), ShouldBeTrue)
				})

				Convey("Then a batch repeating a past winner is rejected whole", func() {
					err := store.Append(ctx, []model.Winner{winner("g-9"), winner("g-1")})
					So(errors.Is(err, repository.ErrDuplicateGuide), ShouldBeTrue)

					all, _ := store.ListAll(ctx)
					So(guides(all), ShouldResemble, []string{"g-3", "g-1", "g-2"})
				})
			})

			Convey("When one batch names the same guide twice", func() {
				err := store.Append(ctx, []model.Winner{winner("g-1"), winner("g-1")})

				Convey("Then nothing is recorded", func() {
					So(errors.Is(err, repository.ErrDuplicateGuide), ShouldBeTrue)
					n, _ := store.Count(ctx)
					So(n, ShouldEqual, 0)
				})
			})

			Convey("When an empty batch is appended", func() {
				So(store.Append(ctx, nil), ShouldBeNil)
				n, _ := store.Count(ctx)
				So(n, ShouldEqual, 0)
			})

			Convey("Returned slices do not alias the ledger", func() {
				So(store.Append(ctx, []model.Winner{winner("g-1")}), ShouldBeNil)
				all, _ := store.ListAll(ctx)
				all[0].GuideID = "changed"
				again, _ := store.ListAll(ctx)
				So(again[0].GuideID, ShouldEqual, "g-1")
			})
		})
	}
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory ledger with an injected fault", t, func() {
		ctx := context.Background()
		fail := true
		store := repository.NewMemoryStore(ctx,
			repository.WithMetricsUpdateInterval(10*time.Millisecond),
			repository.WithFaultInjector(func([]model.Winner) error {
				if fail {
					return errors.New("injected")
				}
				return nil
			}),
		)
		Reset(func() { _ = store.Close() })

		Convey("Then appends fail until the fault clears", func() {
			So(store.Append(ctx, []model.Winner{winner("g-1")}), ShouldNotBeNil)
			n, _ := store.Count(ctx)
			So(n, ShouldEqual, 0)

			fail = false
			So(store.Append(ctx, []model.Winner{winner("g-1")}), ShouldBeNil)
			n, _ = store.Count(ctx)
			So(n, ShouldEqual, 1)
		})

		Convey("Then a closed store refuses work", func() {
			So(store.Close(), ShouldBeNil)
			So(store.Close(), ShouldBeNil)
			_, err := store.ListAll(ctx)
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given the ledger factory", t, func() {
		ctx := context.Background()

		Convey("The memory driver needs no dsn", func() {
			s, err := repository.Open(ctx, repository.DriverMemory, "", logger.NewNop())
			So(err, ShouldBeNil)
			So(s, ShouldHaveSameTypeAs, &repository.MemoryStore{})
			So(s.Close(), ShouldBeNil)
		})

		Convey("An in-memory sqlite database keeps its rows across calls", func() {
			s, err := repository.Open(ctx, repository.DriverSQLite, ":memory:", logger.NewNop())
			So(err, ShouldBeNil)
			defer s.Close()

			So(s.Append(ctx, []model.Winner{winner("g-1")}), ShouldBeNil)
			So(s.Append(ctx, []model.Winner{winner("g-2")}), ShouldBeNil)
			n, err := s.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})

		Convey("A sqlite ledger reopens with its winners", func() {
			path := filepath.Join(t.TempDir(), "ledger.db")
			s, err := repository.OpenSQL(ctx, repository.DriverSQLite, path)
			So(err, ShouldBeNil)
			So(s.Append(ctx, []model.Winner{winner("g-7")}), ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			s, err = repository.OpenSQL(ctx, repository.DriverSQLite, path)
			So(err, ShouldBeNil)
			defer s.Close()
			all, err := s.ListAll(ctx)
			So(err, ShouldBeNil)
			So(guides(all), ShouldResemble, []string{"g-7"})
		})

		Convey("Unknown drivers are rejected", func() {
			_, err := repository.Open(ctx, "mysql", "dsn", logger.NewNop())
			So(errors.Is(err, repository.ErrUnknownDriver), ShouldBeTrue)
		})

		Convey("SQL drivers require a dsn", func() {
			_, err := repository.OpenSQL(ctx, repository.DriverPostgres, " ")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSQLStore_CloseWhileAppending(t *testing.T) {
	Convey("Given a sqlite ledger receiving appends", t, func() {
		ctx := context.Background()
		s, err := repository.OpenSQL(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "race.db"))
		So(err, ShouldBeNil)

		errs := make(chan error, 50)
		go func() {
			defer close(errs)
			for i := 0; i < 50; i++ {
				errs <- s.Append(ctx, []model.Winner{winner(fmt.Sprintf("g-%d", i))})
			}
		}()

		Convey("When Close races the writer", func() {
			So(s.Close(), ShouldBeNil)

			Convey("Then every append either lands or reports ErrClosed", func() {
				for err := range errs {
					if err != nil {
						So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
					}
				}
				So(s.Close(), ShouldBeNil)
				_, err := s.Count(ctx)
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
			})
		})
	})
}
