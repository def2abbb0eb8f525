package ws_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/raffle/internal/adapters/http/ws"
	"github.com/okian/raffle/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func dial(srvURL string) (*websocket.Conn, error) {
	url := "ws" + strings.TrimPrefix(srvURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

func TestHub(t *testing.T) {
	Convey("Given a running hub behind an HTTP server", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		hub := ws.NewHub(ws.WithPingInterval(time.Second))
		go hub.Run(ctx)
		srv := httptest.NewServer(hub)
		Reset(func() {
			cancel()
			srv.Close()
		})

		Convey("When a client connects", func() {
			conn, err := dial(srv.URL)
			So(err, ShouldBeNil)
			defer conn.Close()
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

			var hello ws.Message
			So(conn.ReadJSON(&hello), ShouldBeNil)
			So(hello.Type, ShouldEqual, ws.TypeHello)
			So(waitFor(func() bool { return hub.Clients() == 1 }), ShouldBeTrue)

			Convey("Then published draws reach it", func() {
				err := hub.Publish(ctx, model.DrawEvent{
					DrawID:  "d-1",
					Winners: []model.Winner{{ID: "w-1", GuideID: "g-1"}},
				})
				So(err, ShouldBeNil)

				var msg ws.Message
				So(conn.ReadJSON(&msg), ShouldBeNil)
				So(msg.Type, ShouldEqual, ws.TypeDraw)
				So(msg.Draw, ShouldNotBeNil)
				So(msg.Draw.DrawID, ShouldEqual, "d-1")
				So(msg.Draw.Winners[0].GuideID, ShouldEqual, "g-1")
			})

			Convey("Then disconnecting unregisters it", func() {
				So(conn.Close(), ShouldBeNil)
				So(waitFor(func() bool { return hub.Clients() == 0 }), ShouldBeTrue)
			})

			Convey("Then stopping the hub closes the connection", func() {
				hub.Stop()
				var msg ws.Message
				So(conn.ReadJSON(&msg), ShouldNotBeNil)
				So(hub.Name(), ShouldEqual, "websocket")
			})
		})

		Convey("When the hub is stopped", func() {
			hub.Stop()

			Convey("Then publishing fails", func() {
				err := hub.Publish(context.Background(), model.DrawEvent{DrawID: "d-2"})
				So(errors.Is(err, ws.ErrHubStopped), ShouldBeTrue)
			})
		})
	})
}
