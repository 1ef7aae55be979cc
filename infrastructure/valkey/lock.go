package valkey

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DispatchLock implements a best-effort cross-instance lock using SET NX EX.
// Losing the lock race means another instance owns the item; the caller
// should skip it. No unlock is needed, the TTL covers the critical section.
type DispatchLock struct {
	client *Client
	owner  string
}

// NewDispatchLock creates a lock whose values carry the owner id, so a
// stuck lock can be traced back to the instance that took it.
func NewDispatchLock(client *Client, owner string) *DispatchLock {
	return &DispatchLock{client: client, owner: owner}
}

// Acquire returns true when this instance won the key. A NIL reply means
// the key is already held elsewhere. Connection errors are reported as
// "not acquired" so the database claim stays the single source of truth.
func (l *DispatchLock) Acquire(key string, ttl time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	lockKey := l.client.Key("lock", key)
	cmd := l.client.Inner().B().Set().
		Key(lockKey).
		Value(l.owner).
		Nx().
		Ex(ttl).
		Build()

	err := l.client.Inner().Do(ctx, cmd).Error()
	if err == nil {
		return true
	}
	if !IsNil(err) {
		logrus.Warnf("[DISPATCH] lock acquire failed for %s: %v", key, err)
	}
	return false
}
