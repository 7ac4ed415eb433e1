package repository

import (
	"context"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/infra"
	"parcel-booking/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const stagedColumns = `merchant_reference_id, user_id, pickup, drop_off, parcel, fare_minor,
	coupon_code, resolved_booking_id, purge_after, created_at`

type StagingRepository struct {
	db infra.DBTX
}

func NewStagingRepository(db infra.DBTX) *StagingRepository {
	return &StagingRepository{db: db}
}

func (r *StagingRepository) Create(ctx context.Context, staged *booking.StagedBooking) error {
	d := staged.Details()
	_, err := r.db.Exec(ctx, `
		INSERT INTO staged_bookings (merchant_reference_id, user_id, pickup, drop_off, parcel, fare_minor, coupon_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		staged.Reference().String(),
		staged.UserID(),
		d.Pickup,
		d.Drop,
		d.Parcel,
		d.Fare.Minor(),
		pgconv.StringPtrToPgtype(d.CouponCode),
		staged.CreatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create staged booking", err)
	}
	return nil
}

func (r *StagingRepository) Find(ctx context.Context, ref booking.Reference) (*booking.StagedBooking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+stagedColumns+` FROM staged_bookings WHERE merchant_reference_id = $1`, ref.String())
	return scanStaged(row)
}

func (r *StagingRepository) GetForUpdate(ctx context.Context, ref booking.Reference) (*booking.StagedBooking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+stagedColumns+` FROM staged_bookings WHERE merchant_reference_id = $1 FOR UPDATE`, ref.String())
	return scanStaged(row)
}

func (r *StagingRepository) Resolve(ctx context.Context, ref booking.Reference, bookingID string, purgeAfter time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE staged_bookings
		SET resolved_booking_id = $2, purge_after = $3
		WHERE merchant_reference_id = $1 AND resolved_booking_id IS NULL`,
		ref.String(), bookingID, purgeAfter,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to resolve staged booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NewRepoErr(infra.KindConflict, "staged booking already resolved or missing")
	}
	return nil
}

func (r *StagingRepository) DeleteUnresolved(ctx context.Context, ref booking.Reference) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM staged_bookings WHERE merchant_reference_id = $1 AND resolved_booking_id IS NULL`,
		ref.String(),
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to delete staged booking", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *StagingRepository) PurgeResolved(ctx context.Context, ref string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM staged_bookings
		WHERE merchant_reference_id = $1 AND resolved_booking_id IS NOT NULL AND purge_after <= $2`,
		ref, now,
	)
	if err != nil {
		return false, infra.WrapRepoErr("failed to purge staged booking", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *StagingRepository) PurgeDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM staged_bookings
		WHERE merchant_reference_id IN (
			SELECT merchant_reference_id FROM staged_bookings
			WHERE resolved_booking_id IS NOT NULL AND purge_after <= $1
			ORDER BY purge_after
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`,
		now, limit,
	)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to purge due staged bookings", err)
	}
	return tag.RowsAffected(), nil
}

func scanStaged(row pgx.Row) (*booking.StagedBooking, error) {
	var (
		rawRef     string
		userID     string
		details    booking.Details
		fareMinor  int64
		coupon     pgtype.Text
		resolvedID pgtype.Text
		purgeAfter pgtype.Timestamptz
		createdAt  time.Time
	)
	err := row.Scan(&rawRef, &userID, &details.Pickup, &details.Drop, &details.Parcel, &fareMinor,
		&coupon, &resolvedID, &purgeAfter, &createdAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("staged booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to load staged booking", err)
	}

	ref, err := booking.ParseReference(rawRef)
	if err != nil {
		return nil, infra.WrapRepoErr("stored merchant reference is malformed", err, infra.KindDBFailure)
	}
	fare, err := booking.NewMoney(fareMinor)
	if err != nil {
		return nil, infra.WrapRepoErr("stored fare is invalid", err, infra.KindDBFailure)
	}
	details.Fare = fare
	details.CouponCode = pgconv.StringPtrFromPgtype(coupon)

	return booking.ReconstructStagedBooking(
		ref,
		userID,
		details,
		pgconv.StringPtrFromPgtype(resolvedID),
		pgconv.TimePtrFromPgtype(purgeAfter),
		createdAt,
	), nil
}
