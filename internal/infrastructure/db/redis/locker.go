package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apicrud/user-api/internal/core/domain"
)

const (
	defaultLockTTL   = 5 * time.Second
	lockPollInterval = 25 * time.Millisecond
)

// ErrLockTimeout is returned when a reservation could not be taken before the
// caller's deadline.
var ErrLockTimeout = fmt.Errorf("lock: timed out waiting for reservation: %w", domain.ErrBusy)

// releaseScript deletes the key only while it still holds our token, so an
// expired reservation re-taken by another process is left alone.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// lockClient is the subset of *redis.Client the locker needs.
type lockClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Locker serialises check-then-write sequences across processes with
// short-lived SET NX reservations.
type Locker struct {
	client lockClient
	ttl    time.Duration
}

// NewLocker creates a Locker wrapping the given Redis client. Reservations
// expire after ttl even if the holder never releases them.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	return newLocker(client, ttl)
}

func newLocker(client lockClient, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{client: client, ttl: ttl}
}

// Lock takes every key or none, waiting until ctx is done (or one ttl when ctx
// has no deadline). Keys are taken in sorted order.
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = uniqueSorted(keys)
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.ttl)
		defer cancel()
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		held, err := l.tryAll(ctx, keys, token)
		if err != nil {
			return nil, err
		}
		if held {
			return func() { l.releaseAll(keys, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, keys)
		case <-ticker.C:
		}
	}
}

func (l *Locker) tryAll(ctx context.Context, keys []string, token string) (bool, error) {
	for i, key := range keys {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.releaseAll(keys[:i], token)
			if ctx.Err() != nil {
				return false, nil
			}
			return false, fmt.Errorf("lock %s: %w", key, err)
		}
		if !ok {
			l.releaseAll(keys[:i], token)
			return false, nil
		}
	}
	return true, nil
}

// releaseAll runs detached from the request context so a cancelled request
// still frees its reservations.
func (l *Locker) releaseAll(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	for _, key := range keys {
		_ = l.client.Eval(ctx, releaseScript, []string{key}, token).Err()
	}
}

func uniqueSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
