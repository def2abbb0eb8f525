package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with a nil writer", func() {
			err := InitWithWriter(nil, FormatText)

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := InitWithWriter(&bytes.Buffer{}, Format("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, FormatJSON), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "draw completed",
				String("drawId", "d-1"),
				Int("winners", 3),
				Bool("filtered", true),
				Duration("took", 2*time.Millisecond),
				Error(errors.New("boom")),
			)

			Convey("Then a structured record with a source is written", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "draw completed")
				So(rec["drawId"], ShouldEqual, "d-1")
				So(rec["winners"], ShouldEqual, float64(3))
				So(rec["filtered"], ShouldEqual, true)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")

			Convey("Then only warn records are written", func() {
				out := buf.String()
				So(out, ShouldNotContainSubstring, "hidden")
				So(out, ShouldContainSubstring, "shown")
			})
		})

		Convey("When using a named logger", func() {
			Named("raffle").Info(ctx, "grouped", String("k", "v"))

			Convey("Then fields are grouped under the name", func() {
				So(strings.Contains(buf.String(), `"raffle":{`), ShouldBeTrue)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(SetLevelString("debug"), ShouldBeNil)
		So(SetLevelString(" INFO "), ShouldBeNil)
		So(SetLevelString("warning"), ShouldBeNil)
		So(SetLevelString("error"), ShouldBeNil)
		So(SetLevelString(""), ShouldBeNil)
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := NewNop()

		Convey("Then logging does nothing and Named returns a nop", func() {
			So(func() {
				l.Info(context.Background(), "x")
				l.Named("y").Warn(context.Background(), "z")
			}, ShouldNotPanic)
		})
	})
}
