package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisKVClient struct {
	lastSetKey string
	lastSetVal interface{}
	lastSetTTL time.Duration
	lastGetDel string
	lastDel    []string

	setErr    error
	getDelErr error
	delErr    error
	getDelVal string
}

func (m *mockRedisKVClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetVal = value
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKVClient) GetDel(ctx context.Context, key string) *redis.StringCmd {
	m.lastGetDel = key
	cmd := redis.NewStringCmd(ctx)
	if m.getDelErr != nil {
		cmd.SetErr(m.getDelErr)
		return cmd
	}
	cmd.SetVal(m.getDelVal)
	return cmd
}

func (m *mockRedisKVClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	if m.delErr != nil {
		cmd.SetErr(m.delErr)
		return cmd
	}
	cmd.SetVal(1)
	return cmd
}

func TestMemoryRefreshTokenStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRefreshTokenStore().(*memoryRefreshTokenStore)
	store.now = func() time.Time { return now }

	if err := store.Store(ctx, "jti-1", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := store.Consume(ctx, "jti-1")
	if err != nil || !ok {
		t.Fatalf("expected first consume to succeed, ok=%v err=%v", ok, err)
	}
	if ok, _ := store.Consume(ctx, "jti-1"); ok {
		t.Fatalf("expected second consume to fail")
	}

	if err := store.Store(ctx, "jti-2", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if ok, _ := store.Consume(ctx, "jti-2"); ok {
		t.Fatalf("expected expired token to be rejected")
	}

	if err := store.Store(ctx, "jti-3", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := store.Revoke(ctx, "jti-3"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := store.Consume(ctx, "jti-3"); ok {
		t.Fatalf("expected revoked token to be rejected")
	}

	if err := store.Store(ctx, "  ", "u1", time.Minute); err != nil {
		t.Fatalf("store blank: %v", err)
	}
	if len(store.items) != 0 {
		t.Fatalf("expected blank jti to be ignored")
	}
}

func TestRedisRefreshTokenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("store uses prefix and ttl", func(t *testing.T) {
		mock := &mockRedisKVClient{}
		store := &redisRefreshTokenStore{client: mock, prefix: "habitos:refresh:", timeout: time.Second}
		if err := store.Store(ctx, "jti", "u1", time.Hour); err != nil {
			t.Fatalf("store: %v", err)
		}
		if mock.lastSetKey != "habitos:refresh:jti" || mock.lastSetVal != "u1" || mock.lastSetTTL != time.Hour {
			t.Fatalf("unexpected SET %q %v %s", mock.lastSetKey, mock.lastSetVal, mock.lastSetTTL)
		}
	})

	t.Run("consume hit", func(t *testing.T) {
		mock := &mockRedisKVClient{getDelVal: "u1"}
		store := &redisRefreshTokenStore{client: mock, prefix: "habitos:refresh:", timeout: time.Second}
		ok, err := store.Consume(ctx, "jti")
		if err != nil || !ok {
			t.Fatalf("expected hit, ok=%v err=%v", ok, err)
		}
		if mock.lastGetDel != "habitos:refresh:jti" {
			t.Fatalf("unexpected GETDEL key %q", mock.lastGetDel)
		}
	})

	t.Run("consume miss", func(t *testing.T) {
		mock := &mockRedisKVClient{getDelErr: redis.Nil}
		store := &redisRefreshTokenStore{client: mock, prefix: "habitos:refresh:", timeout: time.Second}
		ok, err := store.Consume(ctx, "jti")
		if err != nil || ok {
			t.Fatalf("expected miss without error, ok=%v err=%v", ok, err)
		}
	})

	t.Run("consume error", func(t *testing.T) {
		mock := &mockRedisKVClient{getDelErr: errors.New("boom")}
		store := &redisRefreshTokenStore{client: mock, prefix: "habitos:refresh:", timeout: time.Second}
		if _, err := store.Consume(ctx, "jti"); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("revoke", func(t *testing.T) {
		mock := &mockRedisKVClient{}
		store := &redisRefreshTokenStore{client: mock, prefix: "habitos:refresh:", timeout: time.Second}
		if err := store.Revoke(ctx, "jti"); err != nil {
			t.Fatalf("revoke: %v", err)
		}
		if len(mock.lastDel) != 1 || mock.lastDel[0] != "habitos:refresh:jti" {
			t.Fatalf("unexpected DEL keys %+v", mock.lastDel)
		}
	})

	t.Run("nil client", func(t *testing.T) {
		if NewRedisRefreshTokenStore(nil) != nil {
			t.Fatalf("expected nil store for nil client")
		}
	})
}
