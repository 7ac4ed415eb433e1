package shared

import (
	"context"
	"time"

	"parcel-booking/internal/domain/booking"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic.
	// Rows read through *ForUpdate methods stay locked until fn returns.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// CommandReads: Direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Staging() StagingRepository
	Bookings() BookingRepository
	Notifications() NotificationRepository
}

// Non-locking reads used for polling and validation
type CommandReads interface {
	StagedByReference(ctx context.Context, ref booking.Reference) (*booking.StagedBooking, error)
	BookingByID(ctx context.Context, id string) (*booking.Booking, error)
	BookingByProvenance(ctx context.Context, p Provenance) (*booking.Booking, error)
}

type StagingRepository interface {
	Create(ctx context.Context, staged *booking.StagedBooking) error
	GetForUpdate(ctx context.Context, ref booking.Reference) (*booking.StagedBooking, error)
	// Resolve is the compare-and-set: it succeeds only while resolved_booking_id is unset,
	// otherwise it returns an infra.KindConflict error.
	Resolve(ctx context.Context, ref booking.Reference, bookingID string, purgeAfter time.Time) error
	DeleteUnresolved(ctx context.Context, ref booking.Reference) (bool, error)
	// PurgeResolved deletes one resolved record whose grace window has passed.
	PurgeResolved(ctx context.Context, ref string, now time.Time) (bool, error)
	PurgeDue(ctx context.Context, now time.Time, limit int) (int64, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) (string, error)
	GetForUpdate(ctx context.Context, id string) (*booking.Booking, error)
	FindByProvenanceForUpdate(ctx context.Context, p Provenance) (*booking.Booking, error)
	// UpdateState writes the booking's status fields only if the row still holds prev;
	// a concurrent change yields an infra.KindConflict error.
	UpdateState(ctx context.Context, b *booking.Booking, prev BookingState) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
	// ClaimDue leases up to limit due jobs by moving their run_at to leaseUntil.
	ClaimDue(ctx context.Context, now, leaseUntil time.Time, limit int) ([]NotificationJob, error)
	MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextRunAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error
}
