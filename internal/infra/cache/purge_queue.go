package cache

import (
	"context"
	"strconv"
	"time"

	"parcel-booking/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const purgeQueueKey = "staged_bookings:purge"

// PurgeQueue is a sorted set of staged merchant references scored by their purge time (unix ms).
type PurgeQueue struct {
	rdb *redis.Client
	key string
}

func NewPurgeQueue(rdb *redis.Client) *PurgeQueue {
	return &PurgeQueue{rdb: rdb, key: purgeQueueKey}
}

func (q *PurgeQueue) Schedule(ctx context.Context, ref string, at time.Time) error {
	err := q.rdb.ZAdd(ctx, q.key, redis.Z{Score: float64(at.UnixMilli()), Member: ref}).Err()
	if err != nil {
		return errs.Wrap(err, "zadd purge queue")
	}
	return nil
}

// Due lists references whose purge time has passed without removing them.
func (q *PurgeQueue) Due(ctx context.Context, now time.Time, limit int) ([]string, error) {
	refs, err := q.rdb.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, errs.Wrap(err, "zrangebyscore purge queue")
	}
	return refs, nil
}

func (q *PurgeQueue) Remove(ctx context.Context, refs ...string) error {
	if len(refs) == 0 {
		return nil
	}
	members := make([]interface{}, len(refs))
	for i, ref := range refs {
		members[i] = ref
	}
	if err := q.rdb.ZRem(ctx, q.key, members...).Err(); err != nil {
		return errs.Wrap(err, "zrem purge queue")
	}
	return nil
}

// NoopPurgeQueue is used without Redis; the purger's database sweep still deletes due records.
type NoopPurgeQueue struct{}

func (NoopPurgeQueue) Schedule(context.Context, string, time.Time) error     { return nil }
func (NoopPurgeQueue) Due(context.Context, time.Time, int) ([]string, error) { return nil, nil }
func (NoopPurgeQueue) Remove(context.Context, ...string) error               { return nil }
