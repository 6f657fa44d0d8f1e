package presence

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/domain"
)

// Tracker records short-lived liveness signals and aggregates occupancy by
// role tier. Write operations are best-effort telemetry: they log failures
// and never surface them to the caller.
type Tracker struct {
	store        Store
	logger       *zap.Logger
	activeWindow time.Duration
	retention    time.Duration
	evictEvery   uint64
	reads        atomic.Uint64
	clock        func() time.Time
}

// NewTracker constructs a tracker with the configured windows.
func NewTracker(store Store, logger *zap.Logger, cfg config.PresenceConfig) *Tracker {
	evictEvery := uint64(cfg.EvictEveryNReads)
	if evictEvery == 0 {
		evictEvery = 8
	}
	return &Tracker{
		store:        store,
		logger:       logger,
		activeWindow: cfg.ActiveWindow(),
		retention:    cfg.Retention(),
		evictEvery:   evictEvery,
		clock:        time.Now,
	}
}

// Heartbeat upserts the person's presence entry. Idempotent,
// last-write-wins.
func (t *Tracker) Heartbeat(ctx context.Context, personID string, role domain.Role) {
	entry := domain.PresenceEntry{
		PersonID:     personID,
		Role:         role,
		LastActiveAt: t.clock(),
	}
	if err := t.store.Upsert(ctx, entry); err != nil {
		t.logger.Warn("presence heartbeat failed", zap.String("person_id", personID), zap.Error(err))
	}
}

// SignOff deletes the person's entry on explicit logout.
func (t *Tracker) SignOff(ctx context.Context, personID string) {
	if err := t.store.Delete(ctx, personID); err != nil {
		t.logger.Warn("presence sign-off failed", zap.String("person_id", personID), zap.Error(err))
	}
}

// CountActiveByTier counts persons active within the active window, one
// contribution per person, classified by role tier. Every Nth read also
// triggers an eviction sweep; sweep errors are swallowed.
func (t *Tracker) CountActiveByTier(ctx context.Context) (domain.PresenceCounts, error) {
	if t.reads.Add(1)%t.evictEvery == 0 {
		t.EvictStale(ctx)
	}

	now := t.clock()
	entries, err := t.store.ListSince(ctx, now.Add(-t.activeWindow))
	if err != nil {
		return domain.PresenceCounts{}, err
	}

	var counts domain.PresenceCounts
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.PersonID]; dup {
			continue
		}
		seen[entry.PersonID] = struct{}{}

		switch {
		case entry.Role.IsAdminTier():
			counts.Admins++
		case entry.Role.IsOfficerTier():
			counts.Officers++
		case entry.Role == domain.RoleClubStudent:
			counts.ClubStudents++
		default:
			counts.Students++
		}
	}
	return counts, nil
}

// EvictStale drops entries older than the retention window. Errors are
// logged, never returned.
func (t *Tracker) EvictStale(ctx context.Context) {
	cutoff := t.clock().Add(-t.retention)
	removed, err := t.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		t.logger.Warn("presence eviction failed", zap.Error(err))
		return
	}
	if removed > 0 {
		t.logger.Debug("evicted stale presence entries", zap.Int("count", removed))
	}
}
