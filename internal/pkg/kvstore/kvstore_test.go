package kvstore

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"docchat/internal/pkg/cache"
)

func exerciseStore(s Store) {
	ctx := context.Background()

	_, err := s.Load(ctx, "roles:alice")
	So(err, ShouldEqual, ErrNotFound)

	So(s.Save(ctx, "roles:alice", []byte(`[1]`)), ShouldBeNil)
	v, err := s.Load(ctx, "roles:alice")
	So(err, ShouldBeNil)
	So(string(v), ShouldEqual, `[1]`)

	So(s.Save(ctx, "roles:alice", []byte(`[2]`)), ShouldBeNil)
	v, _ = s.Load(ctx, "roles:alice")
	So(string(v), ShouldEqual, `[2]`)

	So(s.Delete(ctx, "roles:alice"), ShouldBeNil)
	So(s.Delete(ctx, "roles:alice"), ShouldBeNil)
	_, err = s.Load(ctx, "roles:alice")
	So(err, ShouldEqual, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	Convey("MemoryStore 读写删除", t, func() {
		exerciseStore(NewMemoryStore())
	})

	Convey("返回值与内部数据隔离", t, func() {
		s := NewMemoryStore()
		buf := []byte("abc")
		So(s.Save(context.Background(), "k", buf), ShouldBeNil)
		buf[0] = 'x'
		v, _ := s.Load(context.Background(), "k")
		So(string(v), ShouldEqual, "abc")
		v[1] = 'y'
		v2, _ := s.Load(context.Background(), "k")
		So(string(v2), ShouldEqual, "abc")
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("DOCCHAT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DOCCHAT_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	Convey("RedisStore 读写删除", t, func() {
		exerciseStore(NewRedisStore(cache.NewRedisCacheFromClient(client), "docchat:test:"))
	})
}
