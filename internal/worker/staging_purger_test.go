//go:build unit

package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/worker"
	"parcel-booking/tests/common/builder"
	"parcel-booking/tests/common/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurgeQueue struct {
	due     []string
	dueErr  error
	removed []string
}

func (q *fakePurgeQueue) Due(context.Context, time.Time, int) ([]string, error) {
	return q.due, q.dueErr
}

func (q *fakePurgeQueue) Remove(_ context.Context, refs ...string) error {
	q.removed = append(q.removed, refs...)
	return nil
}

// seedResolved stores a staged record for user that was resolved at resolvedAt.
func seedResolved(t *testing.T, store *memstore.Store, user string, resolvedAt time.Time) string {
	t.Helper()
	staged, ref := builder.NewBookingBuilder().WithUser(user).BuildStaged()
	require.True(t, staged.Resolve("b-"+user, resolvedAt.Add(config.MinGraceWindow)))
	store.PutStaged(staged)
	return ref.String()
}

func seedUnresolved(t *testing.T, store *memstore.Store, user string) string {
	t.Helper()
	staged, ref := builder.NewBookingBuilder().WithUser(user).BuildStaged()
	store.PutStaged(staged)
	return ref.String()
}

func TestStagingPurger_RunOnce(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig().Reconcile
	resolvedAt := builder.NewBookingBuilder().Now.Add(time.Minute)

	t.Run("grace window中は削除しない", func(t *testing.T) {
		store := memstore.New()
		ref := seedResolved(t, store, "u1", resolvedAt)
		clk := clock.NewMockClock(resolvedAt.Add(config.MinGraceWindow - time.Second))
		queue := &fakePurgeQueue{due: []string{ref}}

		purged, err := worker.NewStagingPurger(store, queue, cfg, clk).RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, purged)
		_, ok := store.Staged(ref)
		assert.True(t, ok)
	})

	t.Run("grace window経過後にキュー経由で削除", func(t *testing.T) {
		store := memstore.New()
		ref := seedResolved(t, store, "u1", resolvedAt)
		clk := clock.NewMockClock(resolvedAt.Add(config.MinGraceWindow))
		queue := &fakePurgeQueue{due: []string{ref}}

		purged, err := worker.NewStagingPurger(store, queue, cfg, clk).RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
		assert.Equal(t, []string{ref}, queue.removed)
		_, ok := store.Staged(ref)
		assert.False(t, ok)
	})

	t.Run("キューに無くても掃引で削除", func(t *testing.T) {
		store := memstore.New()
		ref := seedResolved(t, store, "u1", resolvedAt)
		clk := clock.NewMockClock(resolvedAt.Add(2 * config.MinGraceWindow))

		purged, err := worker.NewStagingPurger(store, &fakePurgeQueue{}, cfg, clk).RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
		_, ok := store.Staged(ref)
		assert.False(t, ok)
	})

	t.Run("キュー障害でも掃引は動く", func(t *testing.T) {
		store := memstore.New()
		ref := seedResolved(t, store, "u1", resolvedAt)
		clk := clock.NewMockClock(resolvedAt.Add(2 * config.MinGraceWindow))
		queue := &fakePurgeQueue{dueErr: errors.New("redis down")}

		purged, err := worker.NewStagingPurger(store, queue, cfg, clk).RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
		_, ok := store.Staged(ref)
		assert.False(t, ok)
	})

	t.Run("未確定のステージングは残す", func(t *testing.T) {
		store := memstore.New()
		pending := seedUnresolved(t, store, "u2")
		clk := clock.NewMockClock(resolvedAt.Add(24 * time.Hour))
		queue := &fakePurgeQueue{due: []string{pending}}

		purged, err := worker.NewStagingPurger(store, queue, cfg, clk).RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, purged)
		staged, ok := store.Staged(pending)
		require.True(t, ok)
		assert.False(t, staged.IsResolved())
	})

	t.Run("削除後も予約は残る", func(t *testing.T) {
		store := memstore.New()
		b := builder.NewBookingBuilder().WithUser("u1")
		ref := seedResolved(t, store, "u1", resolvedAt)
		store.PutBooking("b-u1", b.BuildOnlinePending("b-u1"))
		clk := clock.NewMockClock(resolvedAt.Add(2 * config.MinGraceWindow))

		_, err := worker.NewStagingPurger(store, &fakePurgeQueue{due: []string{ref}}, cfg, clk).RunOnce(ctx)
		require.NoError(t, err)
		_, ok := store.Booking("b-u1")
		assert.True(t, ok)
		assert.Len(t, store.BookingsBySource(ref), 1)
	})
}
