package repository

import (
	"context"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/infra"
	"parcel-booking/internal/pkg/pgconv"
	"parcel-booking/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookingColumns = `id, user_id, pickup, drop_off, parcel, fare_minor, coupon_code,
	status, payment_status, payment_method, tracking_number, source_reference, created_at, updated_at`

type BookingRepository struct {
	db infra.DBTX
}

func NewBookingRepository(db infra.DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) (string, error) {
	d := b.Details()
	var id string
	err := r.db.QueryRow(ctx, `
		INSERT INTO bookings (user_id, pickup, drop_off, parcel, fare_minor, coupon_code,
			status, payment_status, payment_method, tracking_number, source_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		b.UserID(),
		d.Pickup,
		d.Drop,
		d.Parcel,
		d.Fare.Minor(),
		pgconv.StringPtrToPgtype(d.CouponCode),
		b.Status().String(),
		b.PaymentStatus().String(),
		b.PaymentMethod().String(),
		b.TrackingNumber(),
		pgconv.StringPtrToPgtype(b.SourceReference()),
		b.CreatedAt(),
		b.UpdatedAt(),
	).Scan(&id)
	if err != nil {
		return "", infra.WrapRepoErr("failed to create booking", err)
	}
	return id, nil
}

func (r *BookingRepository) Find(ctx context.Context, id string) (*booking.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, id string) (*booking.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
}

func (r *BookingRepository) FindByProvenance(ctx context.Context, p shared.Provenance) (*booking.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings `+provenanceFilter, provenanceArgs(p)...))
}

func (r *BookingRepository) FindByProvenanceForUpdate(ctx context.Context, p shared.Provenance) (*booking.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings `+provenanceFilter+` FOR UPDATE`, provenanceArgs(p)...))
}

const provenanceFilter = `WHERE source_reference = $1 AND ($2::text = '' OR user_id = $2) AND fare_minor = $3 AND payment_method = 'online'`

func provenanceArgs(p shared.Provenance) []any {
	return []any{p.Reference, p.UserID, p.Fare.Minor()}
}

func (r *BookingRepository) UpdateState(ctx context.Context, b *booking.Booking, prev shared.BookingState) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET status = $2, payment_status = $3, payment_method = $4, updated_at = $5, version = version + 1
		WHERE id = $1 AND status = $6 AND payment_status = $7`,
		b.ID(),
		b.Status().String(),
		b.PaymentStatus().String(),
		b.PaymentMethod().String(),
		b.UpdatedAt(),
		prev.Status.String(),
		prev.PaymentStatus.String(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking state", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "booking state changed concurrently")
	}
	return nil
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, userID      string
		details         booking.Details
		fareMinor       int64
		coupon          pgtype.Text
		status          string
		paymentStatus   string
		paymentMethod   string
		trackingNumber  string
		sourceReference pgtype.Text
		createdAt       time.Time
		updatedAt       time.Time
	)
	err := row.Scan(&id, &userID, &details.Pickup, &details.Drop, &details.Parcel, &fareMinor, &coupon,
		&status, &paymentStatus, &paymentMethod, &trackingNumber, &sourceReference, &createdAt, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to load booking", err)
	}

	fare, err := booking.NewMoney(fareMinor)
	if err != nil {
		return nil, infra.WrapRepoErr("stored fare is invalid", err, infra.KindDBFailure)
	}
	details.Fare = fare
	details.CouponCode = pgconv.StringPtrFromPgtype(coupon)

	return booking.ReconstructBooking(
		id,
		userID,
		details,
		booking.Status(status),
		booking.PaymentStatus(paymentStatus),
		booking.PaymentMethod(paymentMethod),
		trackingNumber,
		pgconv.StringPtrFromPgtype(sourceReference),
		createdAt,
		updatedAt,
	), nil
}
