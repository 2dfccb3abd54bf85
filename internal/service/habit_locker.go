package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHabitBusy indica que otro escritor tiene el lock del habito.
var ErrHabitBusy = errors.New("habit is busy")

// HabitLocker serializa el read-modify-write de una completion por habito.
type HabitLocker interface {
	Lock(ctx context.Context, habitID string) (unlock func(), err error)
}

type memoryHabitLocker struct {
	mu    sync.Mutex
	locks map[string]*habitLock
}

type habitLock struct {
	sem  chan struct{}
	refs int
}

// NewMemoryHabitLocker crea un locker en memoria, valido para una sola instancia.
func NewMemoryHabitLocker() HabitLocker {
	return &memoryHabitLocker{locks: make(map[string]*habitLock)}
}

func (l *memoryHabitLocker) Lock(ctx context.Context, habitID string) (func(), error) {
	l.mu.Lock()
	hl, ok := l.locks[habitID]
	if !ok {
		hl = &habitLock{sem: make(chan struct{}, 1)}
		l.locks[habitID] = hl
	}
	hl.refs++
	l.mu.Unlock()

	select {
	case hl.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-hl.sem
				l.release(habitID, hl)
			})
		}, nil
	case <-ctx.Done():
		l.release(habitID, hl)
		return nil, fmt.Errorf("%w: %v", ErrHabitBusy, ctx.Err())
	}
}

func (l *memoryHabitLocker) release(habitID string, hl *habitLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	hl.refs--
	if hl.refs == 0 {
		delete(l.locks, habitID)
	}
}

// Solo borra la clave si el token sigue siendo el nuestro.
const redisUnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisHabitLocker struct {
	client redisLockClient
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// NewRedisHabitLocker crea un locker distribuido con SET NX PX. ttl acota cuanto
// puede retener el lock un proceso que murio sin liberarlo.
func NewRedisHabitLocker(client *redis.Client, ttl time.Duration) HabitLocker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &redisHabitLocker{
		client: client,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		prefix: "habit:lock:",
	}
}

func (l *redisHabitLocker) Lock(ctx context.Context, habitID string) (func(), error) {
	habitID = strings.TrimSpace(habitID)
	if habitID == "" {
		return nil, errors.New("habit id is required")
	}
	key := l.prefix + habitID
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrHabitBusy, ctx.Err())
			}
			return nil, fmt.Errorf("acquire habit lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrHabitBusy, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Contexto propio: el del request puede estar cancelado al liberar.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()
			_ = l.client.Eval(releaseCtx, redisUnlockScript, []string{key}, token).Err()
		})
	}, nil
}
