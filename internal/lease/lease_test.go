package lease

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

func newTestLease(t *testing.T, ttl time.Duration) (*Lease, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, ttl, logging.Default()), mr
}

func TestLease_AcquireIsExclusive(t *testing.T) {
	l, _ := newTestLease(t, time.Minute)
	ctx := context.Background()

	if !l.Acquire(ctx, "reminder:24h:apt-1") {
		t.Fatal("expected first acquire to win")
	}
	if l.Acquire(ctx, "reminder:24h:apt-1") {
		t.Fatal("expected second acquire to lose")
	}
	// a different operation kind on the same appointment is a separate lease
	if !l.Acquire(ctx, "reminder:2h:apt-1") {
		t.Fatal("expected different kind to acquire")
	}
}

func TestLease_ReleaseFreesKey(t *testing.T) {
	l, _ := newTestLease(t, time.Minute)
	ctx := context.Background()

	if !l.Acquire(ctx, "cancel:apt-2") {
		t.Fatal("expected acquire to win")
	}
	l.Release(ctx, "cancel:apt-2")
	if !l.Acquire(ctx, "cancel:apt-2") {
		t.Fatal("expected acquire after release")
	}
}

func TestLease_ExpiresWithTTL(t *testing.T) {
	l, mr := newTestLease(t, time.Second)
	ctx := context.Background()

	if !l.Acquire(ctx, "reminder:24h:apt-3") {
		t.Fatal("expected acquire to win")
	}
	mr.FastForward(2 * time.Second)
	if !l.Acquire(ctx, "reminder:24h:apt-3") {
		t.Fatal("expected acquire after ttl expiry")
	}
}

func TestLease_NilClientFailsOpen(t *testing.T) {
	l := New(nil, time.Minute, logging.Default())
	if !l.Acquire(context.Background(), "anything") {
		t.Fatal("expected nil-client lease to always acquire")
	}
	l.Release(context.Background(), "anything")
}
