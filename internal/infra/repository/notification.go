package repository

import (
	"context"
	"time"

	"parcel-booking/internal/infra"
	"parcel-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type NotificationRepository struct {
	db infra.DBTX
}

func NewNotificationRepository(db infra.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notification_jobs (kind, topic, payload, status, run_at)
		VALUES ($1, $2, $3, $4, $5)`,
		kind, topic, payload, shared.JobStatusQueued, runAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}

// ClaimDue leases due jobs: run_at moves to leaseUntil so that concurrent relays skip them
// once the claiming transaction commits.
func (r *NotificationRepository) ClaimDue(ctx context.Context, now, leaseUntil time.Time, limit int) ([]shared.NotificationJob, error) {
	rows, err := r.db.Query(ctx, `
		WITH due AS (
			SELECT id
			FROM notification_jobs
			WHERE status = $1 AND run_at <= $2
			ORDER BY run_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		UPDATE notification_jobs j
		SET run_at = $3, updated_at = $2
		FROM due
		WHERE j.id = due.id
		RETURNING j.id, j.kind, j.topic, j.payload, j.attempts, j.run_at`,
		shared.JobStatusQueued, now, leaseUntil, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim notification jobs", err)
	}
	defer rows.Close()

	var jobs []shared.NotificationJob
	for rows.Next() {
		var job shared.NotificationJob
		if err := rows.Scan(&job.ID, &job.Kind, &job.Topic, &job.Payload, &job.Attempts, &job.RunAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan notification job", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate notification jobs", err)
	}
	return jobs, nil
}

func (r *NotificationRepository) MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notification_jobs SET status = $2, attempts = attempts + 1, last_error = NULL, updated_at = $3
		WHERE id = $1`,
		id, shared.JobStatusSent, now,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification job sent", err)
	}
	return nil
}

func (r *NotificationRepository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextRunAt time.Time, lastError string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notification_jobs SET attempts = $2, run_at = $3, last_error = $4, updated_at = now()
		WHERE id = $1`,
		id, attempts, nextRunAt, lastError,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to reschedule notification job", err)
	}
	return nil
}

func (r *NotificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notification_jobs SET status = $2, attempts = $3, last_error = $4, updated_at = now()
		WHERE id = $1`,
		id, shared.JobStatusFailed, attempts, lastError,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark notification job failed", err)
	}
	return nil
}
