package queue

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"docchat/internal/config"
)

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestMemoryQueue(t *testing.T) {
	Convey("MemoryQueue", t, func() {
		q := NewMemoryQueue(2)

		Convey("按主题分发给处理函数", func() {
			var (
				mu   sync.Mutex
				seen []string
			)
			So(q.Subscribe(SubjectDocumentProcess, func(ctx context.Context, data []byte) error {
				mu.Lock()
				seen = append(seen, string(data))
				mu.Unlock()
				return nil
			}), ShouldBeNil)

			for _, id := range []string{"a", "b", "c"} {
				So(q.Publish(context.Background(), SubjectDocumentProcess, []byte(id)), ShouldBeNil)
			}
			So(q.Close(), ShouldBeNil)
			So(seen, ShouldHaveLength, 3)
			So(seen, ShouldContain, "b")
		})

		Convey("处理失败不影响后续任务", func() {
			var calls int32
			_ = q.Subscribe("docchat.test", func(ctx context.Context, data []byte) error {
				atomic.AddInt32(&calls, 1)
				return errors.New("boom")
			})
			_ = q.Publish(context.Background(), "docchat.test", []byte("1"))
			_ = q.Publish(context.Background(), "docchat.test", []byte("2"))
			So(q.Close(), ShouldBeNil)
			So(atomic.LoadInt32(&calls), ShouldEqual, 2)
		})

		Convey("关闭后拒绝投递", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
			So(q.Publish(context.Background(), SubjectDocumentProcess, nil), ShouldEqual, ErrClosed)
			So(q.Subscribe(SubjectDocumentProcess, nil), ShouldEqual, ErrClosed)
		})

		Reset(func() {
			_ = q.Close()
		})
	})
}

func TestNATSQueue_Embedded(t *testing.T) {
	if os.Getenv("DOCCHAT_TEST_NATS") == "" {
		t.Skip("set DOCCHAT_TEST_NATS=1 to run embedded JetStream test")
	}

	Convey("内嵌 JetStream 队列", t, func() {
		q, err := NewNATSQueue(&config.NATSConfig{Embedded: true, StoreDir: t.TempDir()})
		So(err, ShouldBeNil)
		defer q.Close()
		So(q.Ping(), ShouldBeNil)

		Convey("失败的消息会被重新投递", func() {
			var attempts int32
			done := make(chan string, 1)
			So(q.Subscribe(SubjectDocumentProcess, func(ctx context.Context, data []byte) error {
				if atomic.AddInt32(&attempts, 1) == 1 {
					return errors.New("first attempt fails")
				}
				done <- string(data)
				return nil
			}), ShouldBeNil)

			So(q.Publish(context.Background(), SubjectDocumentProcess, []byte("doc_1")), ShouldBeNil)

			select {
			case got := <-done:
				So(got, ShouldEqual, "doc_1")
			case <-time.After(10 * time.Second):
				So("timeout", ShouldBeEmpty)
			}
			So(waitFor(func() bool { return atomic.LoadInt32(&attempts) == 2 }), ShouldBeTrue)
		})
	})
}
