package core

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	defaultReplayLedgerTTL        = DefaultWebhookTolerance
	defaultReplayLedgerMaxEntries = 8192
)

// MemoryReplayLedger keeps webhook delivery claims in process memory. Claims
// expire after their ttl; when full, the claim closest to expiry is evicted.
type MemoryReplayLedger struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	maxEntries int
	claims     map[string]time.Time
	Now        func() time.Time
}

func NewMemoryReplayLedger(defaultTTL time.Duration) *MemoryReplayLedger {
	return NewMemoryReplayLedgerWithLimits(defaultTTL, defaultReplayLedgerMaxEntries)
}

func NewMemoryReplayLedgerWithLimits(defaultTTL time.Duration, maxEntries int) *MemoryReplayLedger {
	if defaultTTL <= 0 {
		defaultTTL = defaultReplayLedgerTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultReplayLedgerMaxEntries
	}
	return &MemoryReplayLedger{
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		claims:     map[string]time.Time{},
	}
}

func (l *MemoryReplayLedger) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if l == nil {
		return false, NewUsageError("replay ledger is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, NewUsageError("replay key is required")
	}
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if expiresAt, held := l.claims[key]; held && now.Before(expiresAt) {
		return false, nil
	}
	l.dropExpiredLocked(now)
	for len(l.claims) >= l.maxEntries {
		l.evictSoonestLocked()
	}
	l.claims[key] = now.Add(ttl)
	return true, nil
}

// Release drops a claim so the same delivery can be processed again, e.g.
// after the handler failed and the sender will retry.
func (l *MemoryReplayLedger) Release(_ context.Context, key string) error {
	if l == nil {
		return NewUsageError("replay ledger is not configured")
	}
	l.mu.Lock()
	delete(l.claims, strings.TrimSpace(key))
	l.mu.Unlock()
	return nil
}

func (l *MemoryReplayLedger) PurgeExpired(_ context.Context) (int, error) {
	if l == nil {
		return 0, NewUsageError("replay ledger is not configured")
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropExpiredLocked(now), nil
}

func (l *MemoryReplayLedger) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.claims)
}

func (l *MemoryReplayLedger) now() time.Time {
	if l != nil && l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *MemoryReplayLedger) dropExpiredLocked(now time.Time) int {
	dropped := 0
	for key, expiresAt := range l.claims {
		if !now.Before(expiresAt) {
			delete(l.claims, key)
			dropped++
		}
	}
	return dropped
}

func (l *MemoryReplayLedger) evictSoonestLocked() {
	soonestKey := ""
	var soonest time.Time
	for key, expiresAt := range l.claims {
		if soonestKey == "" || expiresAt.Before(soonest) {
			soonestKey = key
			soonest = expiresAt
		}
	}
	delete(l.claims, soonestKey)
}

// ReplayReleaser is implemented by ledgers that can drop a claim early.
type ReplayReleaser interface {
	Release(ctx context.Context, key string) error
}
