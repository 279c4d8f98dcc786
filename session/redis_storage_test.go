package session

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisBackend(t *testing.T) *RedisStorage {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStorage(client, "", "install-1")
}

func TestRedisStorageRoundTrip(t *testing.T) {
	rs := newRedisBackend(t)
	ctx := context.Background()

	if _, err := rs.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := rs.Save(ctx, []byte(`{"schema_version":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := rs.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"schema_version":1}` {
		t.Fatalf("round trip mismatch: %s", data)
	}

	if err := rs.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := rs.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestRedisStorageUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	rs := NewRedisStorage(client, "custom:", "install-1")
	mr.Close()

	if _, err := rs.Load(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := rs.Save(context.Background(), []byte("x")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRedisStorageThroughStore(t *testing.T) {
	rs := newRedisBackend(t)

	first := NewStore(rs)
	if err := first.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := first.Save(context.Background(), Tokens{
		AccessToken: "at", RefreshToken: "rt", UserID: "u", ExpiresIn: 600,
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := NewStore(rs)
	if err := second.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := second.Current(); got.AccessToken != "at" || got.UserID != "u" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if second.Current().InstallID != first.Current().InstallID {
		t.Fatal("install id must survive the round trip")
	}
}
