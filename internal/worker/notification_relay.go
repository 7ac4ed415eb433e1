package worker

//go:generate mockgen -source=notification_relay.go -destination=../../tests/mock/worker/notification_relay_mock.go -package=workermock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/pkg/errs"
	"parcel-booking/internal/usecase/shared"
)

const (
	relayBackoffBase = 5 * time.Second
	relayBackoffMax  = 5 * time.Minute
)

type NotificationDispatcher interface {
	NotifyBookingPaid(ctx context.Context, p shared.BookingPaidPayload) error
}

// NotificationRelay drains the notification outbox. Jobs are leased in one transaction, delivered with
// no transaction open, then settled in another. A relay that dies between delivery and settlement
// leaves the job to be redelivered when its lease lapses, so delivery is at-least-once.
// A failed delivery never touches booking state.
type NotificationRelay struct {
	uow        shared.UnitOfWork
	dispatcher NotificationDispatcher
	cfg        config.NotifyConfig
	clock      clock.Clock
}

func NewNotificationRelay(uow shared.UnitOfWork, dispatcher NotificationDispatcher, cfg config.NotifyConfig, clk clock.Clock) *NotificationRelay {
	return &NotificationRelay{uow: uow, dispatcher: dispatcher, cfg: cfg, clock: clk}
}

func (r *NotificationRelay) Run(ctx context.Context) {
	runEvery(ctx, "notification_relay", r.cfg.RelayInterval, func(ctx context.Context) error {
		_, err := r.RunOnce(ctx)
		return err
	})
}

// RunOnce processes one batch of due jobs and returns how many were delivered.
func (r *NotificationRelay) RunOnce(ctx context.Context) (int, error) {
	now := r.clock.Now()

	var jobs []shared.NotificationJob
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		var err error
		jobs, err = tx.Notifications().ClaimDue(ctx, now, now.Add(r.cfg.RelayLease), r.cfg.RelayBatch)
		return err
	})
	if err != nil {
		return 0, errs.Wrap(err, "claim notification jobs")
	}

	sent := 0
	for _, job := range jobs {
		derr := r.dispatch(ctx, job)
		err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			if derr != nil {
				return r.handleFailure(ctx, tx, job, now, derr)
			}
			return tx.Notifications().MarkSent(ctx, job.ID, r.clock.Now())
		})
		if err != nil {
			return sent, errs.Wrap(err, "settle notification job "+job.ID.String())
		}
		if derr == nil {
			sent++
		}
	}
	return sent, nil
}

func (r *NotificationRelay) dispatch(ctx context.Context, job shared.NotificationJob) error {
	switch job.Kind {
	case shared.JobKindBookingPaid:
		var p shared.BookingPaidPayload
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			return errs.Wrap(err, "decode booking paid payload")
		}
		return r.dispatcher.NotifyBookingPaid(ctx, p)
	default:
		return fmt.Errorf("unknown notification kind %q", job.Kind)
	}
}

func (r *NotificationRelay) handleFailure(ctx context.Context, tx shared.Tx, job shared.NotificationJob, now time.Time, cause error) error {
	attempts := job.Attempts + 1
	if attempts >= r.cfg.MaxAttempts {
		slog.Error("notification delivery abandoned",
			"job_id", job.ID.String(),
			"kind", job.Kind,
			"attempts", attempts,
			"error", cause.Error())
		return tx.Notifications().MarkFailed(ctx, job.ID, attempts, cause.Error())
	}

	next := now.Add(relayBackoff(attempts))
	slog.Warn("notification delivery failed, rescheduling",
		"job_id", job.ID.String(),
		"kind", job.Kind,
		"attempts", attempts,
		"next_run_at", next,
		"error", cause.Error())
	return tx.Notifications().MarkRetry(ctx, job.ID, attempts, next, cause.Error())
}

func relayBackoff(attempts int) time.Duration {
	d := relayBackoffBase << (attempts - 1)
	if d <= 0 || d > relayBackoffMax {
		return relayBackoffMax
	}
	return d
}
