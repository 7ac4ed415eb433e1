//go:build unit

package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/usecase/shared"
	"parcel-booking/internal/worker"
	"parcel-booking/tests/common/memstore"
	workermock "parcel-booking/tests/mock/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var relayNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func seedJob(t *testing.T, store *memstore.Store, kind string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		return tx.Notifications().CreateJob(ctx, kind, shared.JobTopicBookingPaid, raw, relayNow)
	}))
}

func newRelay(t *testing.T) (*worker.NotificationRelay, *memstore.Store, *workermock.MockNotificationDispatcher, *clock.MockClock) {
	ctrl := gomock.NewController(t)
	store := memstore.New()
	dispatcher := workermock.NewMockNotificationDispatcher(ctrl)
	clk := clock.NewMockClock(relayNow)
	return worker.NewNotificationRelay(store, dispatcher, config.NewTestConfig().Notify, clk), store, dispatcher, clk
}

func TestNotificationRelay_RunOnce(t *testing.T) {
	ctx := context.Background()
	paid := shared.BookingPaidPayload{
		Type:      shared.JobKindBookingPaid,
		BookingID: "b1",
		UserID:    "u42",
		Tracking:  "PBTESTb1",
		Fare:      "250.00",
	}

	t.Run("配信成功で送信済み", func(t *testing.T) {
		relay, store, dispatcher, _ := newRelay(t)
		seedJob(t, store, shared.JobKindBookingPaid, paid)
		dispatcher.EXPECT().NotifyBookingPaid(gomock.Any(), paid).Return(nil).Times(1)

		sent, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)

		sent, err = relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent, "送信済みは再送しない")

		jobs := store.Jobs()
		require.Len(t, jobs, 1)
		assert.Equal(t, shared.JobStatusSent, jobs[0].Status)
	})

	t.Run("配信失敗はバックオフして再試行", func(t *testing.T) {
		relay, store, dispatcher, clk := newRelay(t)
		seedJob(t, store, shared.JobKindBookingPaid, paid)
		gomock.InOrder(
			dispatcher.EXPECT().NotifyBookingPaid(gomock.Any(), gomock.Any()).Return(errors.New("broker down")),
			dispatcher.EXPECT().NotifyBookingPaid(gomock.Any(), gomock.Any()).Return(nil),
		)

		sent, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)

		job := store.Jobs()[0]
		assert.Equal(t, shared.JobStatusQueued, job.Status)
		assert.Equal(t, 1, job.Attempts)
		assert.Equal(t, relayNow.Add(5*time.Second), job.RunAt)
		assert.Equal(t, "broker down", job.LastError)

		sent, err = relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent, "バックオフ中は配信しない")

		clk.Add(5 * time.Second)
		sent, err = relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, shared.JobStatusSent, store.Jobs()[0].Status)
	})

	t.Run("上限到達で失敗扱い", func(t *testing.T) {
		relay, store, dispatcher, clk := newRelay(t)
		seedJob(t, store, shared.JobKindBookingPaid, paid)
		dispatcher.EXPECT().NotifyBookingPaid(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(5)

		for i := 0; i < 5; i++ {
			_, err := relay.RunOnce(ctx)
			require.NoError(t, err)
			clk.Add(10 * time.Minute)
		}

		job := store.Jobs()[0]
		assert.Equal(t, shared.JobStatusFailed, job.Status)
		assert.Equal(t, 5, job.Attempts)

		_, err := relay.RunOnce(ctx)
		require.NoError(t, err)
	})

	t.Run("配信中はトランザクションを開いていない", func(t *testing.T) {
		relay, store, dispatcher, _ := newRelay(t)
		seedJob(t, store, shared.JobKindBookingPaid, paid)
		dispatcher.EXPECT().NotifyBookingPaid(gomock.Any(), paid).
			DoAndReturn(func(context.Context, shared.BookingPaidPayload) error {
				assert.False(t, store.InTransaction())
				job := store.Jobs()[0]
				assert.Equal(t, shared.JobStatusQueued, job.Status)
				assert.Equal(t, relayNow.Add(time.Minute), job.RunAt, "リースはコミット済み")
				return nil
			})

		sent, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, shared.JobStatusSent, store.Jobs()[0].Status)
	})

	t.Run("確定前に止まったジョブはリース切れで再配信", func(t *testing.T) {
		relay, store, dispatcher, clk := newRelay(t)
		seedJob(t, store, shared.JobKindBookingPaid, paid)
		require.NoError(t, store.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			jobs, err := tx.Notifications().ClaimDue(ctx, relayNow, relayNow.Add(time.Minute), 10)
			require.Len(t, jobs, 1)
			return err
		}))
		dispatcher.EXPECT().NotifyBookingPaid(gomock.Any(), paid).Return(nil).Times(1)

		sent, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent, "リース中は他のリレーが取らない")

		clk.Add(time.Minute)
		sent, err = relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
	})

	t.Run("未知の種別は配信しない", func(t *testing.T) {
		relay, store, dispatcher, _ := newRelay(t)
		seedJob(t, store, "booking_teleported", map[string]string{"booking_id": "b1"})
		dispatcher.EXPECT().NotifyBookingPaid(gomock.Any(), gomock.Any()).Times(0)

		sent, err := relay.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Contains(t, store.Jobs()[0].LastError, "unknown notification kind")
	})
}

func TestNotificationRelay_Run(t *testing.T) {
	relay, store, dispatcher, _ := newRelay(t)
	seedJob(t, store, shared.JobKindBookingPaid, shared.BookingPaidPayload{Type: shared.JobKindBookingPaid, BookingID: "b1"})

	delivered := make(chan struct{})
	dispatcher.EXPECT().NotifyBookingPaid(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, shared.BookingPaidPayload) error {
			close(delivered)
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not deliver")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
