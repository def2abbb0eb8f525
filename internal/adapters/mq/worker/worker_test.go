package worker_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/raffle/internal/adapters/mq/queue"
	"github.com/okian/raffle/internal/adapters/mq/worker"
	"github.com/okian/raffle/internal/domain/model"
	logging "github.com/okian/raffle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	eventChan chan queue.Event
	closeOnce sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{eventChan: make(chan queue.Event, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Event {
	return mq.eventChan
}

func (mq *mockQueue) Close() error {
	mq.closeOnce.Do(func() { close(mq.eventChan) })
	return nil
}

// recordingPublisher forwards what it receives on a channel.
type recordingPublisher struct {
	name string
	err  error
	got  chan worker.Event
}

func newRecordingPublisher(name string, err error) *recordingPublisher {
	return &recordingPublisher{name: name, err: err, got: make(chan worker.Event, 10)}
}

func (p *recordingPublisher) Name() string { return p.name }

func (p *recordingPublisher) Publish(_ context.Context, e worker.Event) error {
	p.got <- e
	return p.err
}

func receive(ch <-chan worker.Event) (worker.Event, bool) {
	select {
	case e := <-ch:
		return e, true
	case <-time.After(time.Second):
		return worker.Event{}, false
	}
}

func drawEvent(id string, guides ...string) model.DrawEvent {
	ws := make([]model.Winner, len(guides))
	for i, g := range guides {
		ws[i] = model.Winner{ID: "w-" + g, GuideID: g}
	}
	return model.DrawEvent{DrawID: id, Winners: ws, PoolSize: 10, DrawnAt: time.Now()}
}

func TestNotifier(t *testing.T) {
	convey.Convey("Given a notifier with two publishers", t, func() {
		q := newMockQueue()
		ok := newRecordingPublisher("ok", nil)
		bad := newRecordingPublisher("bad", errors.New("socket gone"))
		n := worker.NewNotifier(q, []worker.Publisher{bad, ok}, worker.WithName("test-notifier"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go n.Run(ctx)

		convey.Convey("When a draw event arrives", func() {
			q.eventChan <- drawEvent("d-1", "g-1", "g-2")

			convey.Convey("Then every publisher sees it even if one fails", func() {
				e, got := receive(bad.got)
				convey.So(got, convey.ShouldBeTrue)
				convey.So(e.DrawID, convey.ShouldEqual, "d-1")

				e, got = receive(ok.got)
				convey.So(got, convey.ShouldBeTrue)
				convey.So(e.Winners, convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it stops and a second shutdown is harmless", func() {
				convey.So(n.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(n.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		pub := newRecordingPublisher("rec", nil)
		p := worker.NewPool(0, q, []worker.Publisher{pub}, nil)

		convey.So(p.Size(), convey.ShouldEqual, 1)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.Convey("When events are enqueued and the pool shuts down", func() {
			convey.So(q.Enqueue(ctx, drawEvent("d-1", "g-1")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, drawEvent("d-2", "g-2")), convey.ShouldBeNil)

			e1, ok1 := receive(pub.got)
			e2, ok2 := receive(pub.got)

			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			err := p.Shutdown(sctx)

			convey.Convey("Then events arrive in order and the queue is closed", func() {
				convey.So(ok1 && ok2, convey.ShouldBeTrue)
				convey.So(e1.DrawID, convey.ShouldEqual, "d-1")
				convey.So(e2.DrawID, convey.ShouldEqual, "d-2")
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestLogPublisher(t *testing.T) {
	convey.Convey("Given the audit log publisher", t, func() {
		var buf bytes.Buffer
		convey.So(logging.InitWithWriter(&buf, logging.FormatJSON), convey.ShouldBeNil)
		p := worker.NewLogPublisher(logging.Get())

		convey.Convey("When a draw is published", func() {
			err := p.Publish(context.Background(), drawEvent("d-9", "g-4", "g-5"))

			convey.Convey("Then the winners are written to the log", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Name(), convey.ShouldEqual, "log")
				convey.So(buf.String(), convey.ShouldContainSubstring, "winners announced")
				convey.So(buf.String(), convey.ShouldContainSubstring, "d-9")
				convey.So(buf.String(), convey.ShouldContainSubstring, "g-5")
			})
		})
	})
}
