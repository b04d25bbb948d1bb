package ports

import "context"

// Locker serializes check-then-write sequences on the given keys across
// processes. The returned release func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}
