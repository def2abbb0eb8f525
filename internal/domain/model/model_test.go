package model_test

import (
	"testing"
	"time"

	model "github.com/okian/raffle/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewWinner(t *testing.T) {
	convey.Convey("Given a candidate", t, func() {
		c := model.Candidate{
			ID:            "g-1",
			Name:          "Ada Lovelace",
			Department:    "Billing",
			Supervisor:    "Grace",
			NPS:           91,
			NRPC:          88.5,
			RefundPercent: 2.5,
			TotalTickets:  42,
		}
		at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

		convey.Convey("When it is snapshotted as a winner", func() {
			w := model.NewWinner("win-1", c, at)

			convey.Convey("Then the candidate fields are copied", func() {
				convey.So(w.ID, convey.ShouldEqual, "win-1")
				convey.So(w.GuideID, convey.ShouldEqual, "g-1")
				convey.So(w.Name, convey.ShouldEqual, c.Name)
				convey.So(w.Department, convey.ShouldEqual, c.Department)
				convey.So(w.Supervisor, convey.ShouldEqual, c.Supervisor)
				convey.So(w.NPS, convey.ShouldEqual, c.NPS)
				convey.So(w.NRPC, convey.ShouldEqual, c.NRPC)
				convey.So(w.RefundPercent, convey.ShouldEqual, c.RefundPercent)
				convey.So(w.TotalTickets, convey.ShouldEqual, uint64(42))
			})

			convey.Convey("And both timestamps are the draw time", func() {
				convey.So(w.WonAt, convey.ShouldEqual, at)
				convey.So(w.RecordedAt, convey.ShouldEqual, at)
			})
		})
	})
}

func TestSettings(t *testing.T) {
	convey.Convey("Given settings", t, func() {
		convey.Convey("When using the defaults", func() {
			s := model.DefaultSettings()

			convey.Convey("Then five winners are drawn from the whole roster", func() {
				convey.So(s.MaxWinners, convey.ShouldEqual, 5)
				convey.So(s.DrawFrom, convey.ShouldEqual, model.DrawFromAll)
				convey.So(s.Filtering(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When filtered with no categories", func() {
			s := model.Settings{MaxWinners: 3, DrawFrom: model.DrawFromFiltered}

			convey.Convey("Then it does not filter", func() {
				convey.So(s.Filtering(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When filtered with categories", func() {
			s := model.Settings{
				MaxWinners:         3,
				DrawFrom:           model.DrawFromFiltered,
				SelectedCategories: []string{"Sales", "Billing", "Sales"},
			}

			convey.Convey("Then it filters and normalizes duplicates away", func() {
				convey.So(s.Filtering(), convey.ShouldBeTrue)
				convey.So(s.Normalize().SelectedCategories, convey.ShouldResemble, []string{"Sales", "Billing"})
			})

			convey.Convey("And the clone does not share storage", func() {
				c := s.Clone()
				c.SelectedCategories[0] = "Changed"
				convey.So(s.SelectedCategories[0], convey.ShouldEqual, "Sales")
			})
		})

		convey.Convey("When drawing from all with leftover categories", func() {
			s := model.Settings{MaxWinners: 3, DrawFrom: model.DrawFromAll, SelectedCategories: []string{"Sales"}}

			convey.Convey("Then normalizing clears them", func() {
				convey.So(s.Normalize().SelectedCategories, convey.ShouldBeNil)
			})
		})
	})
}

func TestDrawFrom(t *testing.T) {
	convey.Convey("Given draw sources", t, func() {
		convey.So(model.DrawFromAll.Valid(), convey.ShouldBeTrue)
		convey.So(model.DrawFromFiltered.Valid(), convey.ShouldBeTrue)
		convey.So(model.DrawFrom("departments").Valid(), convey.ShouldBeFalse)
		convey.So(model.DrawFrom("").Valid(), convey.ShouldBeFalse)
	})
}

func TestClampMaxWinners(t *testing.T) {
	convey.Convey("Given out of range winner counts", t, func() {
		convey.So(model.ClampMaxWinners(0), convey.ShouldEqual, 1)
		convey.So(model.ClampMaxWinners(-7), convey.ShouldEqual, 1)
		convey.So(model.ClampMaxWinners(29), convey.ShouldEqual, 28)
		convey.So(model.ClampMaxWinners(12), convey.ShouldEqual, 12)
	})
}
