package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/raffle/internal/domain/dedupe"
	"github.com/okian/raffle/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func winners(ids ...string) []model.Winner {
	out := make([]model.Winner, len(ids))
	for i, id := range ids {
		out[i] = model.Winner{ID: "w-" + id, GuideID: id}
	}
	return out
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is seen for the first time", func() {
			status, got := d.Begin(ctx, "k1")

			Convey("Then it is reserved", func() {
				So(status, ShouldEqual, dedupe.Fresh)
				So(got, ShouldBeNil)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a second request sees it pending", func() {
				status, _ := d.Begin(ctx, "k1")
				So(status, ShouldEqual, dedupe.Pending)
			})

			Convey("And it completes", func() {
				d.Complete(ctx, "k1", winners("g-1", "g-2"))

				Convey("Then later requests replay the winners", func() {
					status, got := d.Begin(ctx, "k1")
					So(status, ShouldEqual, dedupe.Done)
					So(got, ShouldResemble, winners("g-1", "g-2"))
				})

				Convey("Then abandoning it has no effect", func() {
					d.Abandon(ctx, "k1")
					status, _ := d.Begin(ctx, "k1")
					So(status, ShouldEqual, dedupe.Done)
				})
			})

			Convey("And it is abandoned", func() {
				d.Abandon(ctx, "k1")

				Convey("Then it can be reserved again", func() {
					So(d.Size(), ShouldEqual, 0)
					status, _ := d.Begin(ctx, "k1")
					So(status, ShouldEqual, dedupe.Fresh)
				})
			})
		})

		Convey("Replayed winners are copies", func() {
			d.Begin(ctx, "k")
			d.Complete(ctx, "k", winners("g-1"))
			_, got := d.Begin(ctx, "k")
			got[0].GuideID = "changed"
			_, again := d.Begin(ctx, "k")
			So(again[0].GuideID, ShouldEqual, "g-1")
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))

		Convey("When more keys complete than it can hold", func() {
			for _, k := range []string{"a", "b", "c"} {
				d.Begin(ctx, k)
				d.Complete(ctx, k, winners(k))
			}

			Convey("Then the oldest is forgotten", func() {
				So(d.Size(), ShouldEqual, 2)
				status, _ := d.Begin(ctx, "c")
				So(status, ShouldEqual, dedupe.Done)
				status, _ = d.Begin(ctx, "a")
				So(status, ShouldEqual, dedupe.Fresh)
			})
		})

		Convey("When every slot is pending", func() {
			d.Begin(ctx, "a")
			d.Begin(ctx, "b")
			status, _ := d.Begin(ctx, "c")

			Convey("Then pending keys are kept", func() {
				So(status, ShouldEqual, dedupe.Fresh)
				So(d.Size(), ShouldEqual, 3)
				status, _ = d.Begin(ctx, "a")
				So(status, ShouldEqual, dedupe.Pending)
			})
		})
	})

	Convey("Given concurrent requests for one key", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if status, _ := d.Begin(ctx, "shared"); status == dedupe.Fresh {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one wins the reservation", func() {
			So(fresh, ShouldEqual, 1)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))
		for i := 0; i < 100; i++ {
			key := fmt.Sprintf("k-%d", i)
			d.Begin(ctx, key)
			d.Complete(ctx, key, nil)
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
