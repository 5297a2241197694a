// Package redis implements the per-room lock across API replicas.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"hotelier/internal/app/locks"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by someone else is left alone.
var releaseScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type Locker struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *slog.Logger
}

type Options struct {
	Prefix string
	TTL    time.Duration
	Wait   time.Duration
	Retry  time.Duration
	Logger *slog.Logger
}

func NewLocker(client goredis.Cmdable, opts Options) *Locker {
	l := &Locker{client: client, prefix: opts.Prefix, ttl: opts.TTL, wait: opts.Wait, retry: opts.Retry, logger: opts.Logger}
	if l.prefix == "" {
		l.prefix = "hotelier:lock:"
	}
	if l.ttl <= 0 {
		l.ttl = 10 * time.Second
	}
	if l.wait <= 0 {
		l.wait = 2 * time.Second
	}
	if l.retry <= 0 {
		l.retry = 25 * time.Millisecond
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

func (l *Locker) Acquire(ctx context.Context, key string) (locks.Release, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.NewTimer(l.wait)
	defer deadline.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return l.releaser(redisKey, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, locks.ErrBusy
		case <-time.After(l.retry):
		}
	}
}

func (l *Locker) releaser(key, token string) locks.Release {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		// The caller's context may already be cancelled; release on a short budget of our own.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			l.logger.Warn("room lock release failed", "key", key, "error", err)
		}
	}
}

var _ locks.Locker = (*Locker)(nil)
