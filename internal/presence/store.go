package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/membership-service/internal/domain"
)

// Store persists presence entries. Last-write-wins per person; no
// coordination required.
type Store interface {
	Upsert(ctx context.Context, entry domain.PresenceEntry) error
	Delete(ctx context.Context, personID string) error
	// ListSince returns entries whose last-active time is at or after the
	// given instant.
	ListSince(ctx context.Context, since time.Time) ([]domain.PresenceEntry, error)
	// DeleteOlderThan drops entries last active strictly before the cutoff
	// and returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

const (
	entryKeyPrefix = "presence:entry:"
	activeSetKey   = "presence:active"
)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Redis-backed presence store. Each person gets a
// hash keyed by id plus a member in a sorted set scored by last-active unix
// time, so window queries are a single range read.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Upsert(ctx context.Context, entry domain.PresenceEntry) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, entryKeyPrefix+entry.PersonID,
		"role", string(entry.Role),
		"last_active", strconv.FormatInt(entry.LastActiveAt.Unix(), 10),
	)
	pipe.ZAdd(ctx, activeSetKey, redis.Z{
		Score:  float64(entry.LastActiveAt.Unix()),
		Member: entry.PersonID,
	})
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) Delete(ctx context.Context, personID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, entryKeyPrefix+personID)
	pipe.ZRem(ctx, activeSetKey, personID)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) ListSince(ctx context.Context, since time.Time) ([]domain.PresenceEntry, error) {
	ids, err := s.client.ZRangeByScore(ctx, activeSetKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, entryKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	entries := make([]domain.PresenceEntry, 0, len(ids))
	for i, id := range ids {
		fields, err := cmds[i].Result()
		if err != nil || len(fields) == 0 {
			// Hash expired or removed between the range read and here.
			continue
		}
		unix, err := strconv.ParseInt(fields["last_active"], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, domain.PresenceEntry{
			PersonID:     id,
			Role:         domain.Role(fields["role"]),
			LastActiveAt: time.Unix(unix, 0).UTC(),
		})
	}
	return entries, nil
}

func (s *redisStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	max := strconv.FormatInt(cutoff.Unix()-1, 10)
	ids, err := s.client.ZRangeByScore(ctx, activeSetKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = entryKeyPrefix + id
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.ZRemRangeByScore(ctx, activeSetKey, "-inf", max)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}
