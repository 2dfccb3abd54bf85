package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryHabitLocker_SerializesSameHabit(t *testing.T) {
	locker := NewMemoryHabitLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "h1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(waitCtx, "h1"); !errors.Is(err, ErrHabitBusy) {
		t.Fatalf("expected ErrHabitBusy while held, got %v", err)
	}

	other, err := locker.Lock(ctx, "h2")
	if err != nil {
		t.Fatalf("expected independent habit to lock, got %v", err)
	}
	other()

	unlock()
	unlock() // idempotente

	again, err := locker.Lock(ctx, "h1")
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	again()

	ml := locker.(*memoryHabitLocker)
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if len(ml.locks) != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", len(ml.locks))
	}
}

func TestMemoryHabitLocker_NoLostUpdates(t *testing.T) {
	locker := NewMemoryHabitLocker()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "h1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", counter)
	}
}

type mockRedisLockClient struct {
	mu         sync.Mutex
	setResults []bool
	setErr     error
	setCalls   int
	lastKey    string
	lastToken  interface{}
	lastTTL    time.Duration
	evalKeys   []string
	evalArgs   []interface{}
	evalScript string
}

func (m *mockRedisLockClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastKey = key
	m.lastToken = value
	m.lastTTL = expiration
	cmd := redis.NewBoolCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	ok := true
	if m.setCalls < len(m.setResults) {
		ok = m.setResults[m.setCalls]
	}
	m.setCalls++
	cmd.SetVal(ok)
	return cmd
}

func (m *mockRedisLockClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evalScript = script
	m.evalKeys = keys
	m.evalArgs = args
	cmd := redis.NewCmd(ctx)
	cmd.SetVal(int64(1))
	return cmd
}

func TestRedisHabitLocker(t *testing.T) {
	t.Run("acquire and release with token", func(t *testing.T) {
		mock := &mockRedisLockClient{}
		l := &redisHabitLocker{client: mock, ttl: 3 * time.Second, retry: time.Millisecond, prefix: "habit:lock:"}

		unlock, err := l.Lock(context.Background(), " h1 ")
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		if mock.lastKey != "habit:lock:h1" || mock.lastTTL != 3*time.Second {
			t.Fatalf("unexpected SETNX key=%q ttl=%s", mock.lastKey, mock.lastTTL)
		}
		unlock()
		if mock.evalScript != redisUnlockScript {
			t.Fatalf("expected unlock script")
		}
		if len(mock.evalKeys) != 1 || mock.evalKeys[0] != "habit:lock:h1" {
			t.Fatalf("unexpected eval keys %+v", mock.evalKeys)
		}
		if len(mock.evalArgs) != 1 || mock.evalArgs[0] != mock.lastToken {
			t.Fatalf("expected release with the acquired token")
		}
	})

	t.Run("retries until free", func(t *testing.T) {
		mock := &mockRedisLockClient{setResults: []bool{false, false, true}}
		l := &redisHabitLocker{client: mock, ttl: time.Second, retry: time.Millisecond, prefix: "habit:lock:"}

		unlock, err := l.Lock(context.Background(), "h1")
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		unlock()
		if mock.setCalls != 3 {
			t.Fatalf("expected 3 SETNX attempts, got %d", mock.setCalls)
		}
	})

	t.Run("gives up when context ends", func(t *testing.T) {
		mock := &mockRedisLockClient{setResults: []bool{false, false, false, false, false, false, false, false}}
		l := &redisHabitLocker{client: mock, ttl: time.Second, retry: 5 * time.Millisecond, prefix: "habit:lock:"}

		ctx, cancel := context.WithTimeout(context.Background(), 12*time.Millisecond)
		defer cancel()
		if _, err := l.Lock(ctx, "h1"); !errors.Is(err, ErrHabitBusy) {
			t.Fatalf("expected ErrHabitBusy, got %v", err)
		}
	})

	t.Run("redis error surfaces", func(t *testing.T) {
		mock := &mockRedisLockClient{setErr: errors.New("redis down")}
		l := &redisHabitLocker{client: mock, ttl: time.Second, retry: time.Millisecond, prefix: "habit:lock:"}

		_, err := l.Lock(context.Background(), "h1")
		if err == nil || errors.Is(err, ErrHabitBusy) {
			t.Fatalf("expected redis error, got %v", err)
		}
	})

	t.Run("nil client constructor", func(t *testing.T) {
		if NewRedisHabitLocker(nil, time.Second) != nil {
			t.Fatalf("expected nil locker for nil client")
		}
	})
}
