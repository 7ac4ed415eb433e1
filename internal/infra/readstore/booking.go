package readstore

import (
	"context"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/infra"
	"parcel-booking/internal/pkg/pgconv"
	"parcel-booking/internal/usecase/queries"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type BookingReadStore struct {
	db infra.DBTX
}

func NewBookingReadStore(db infra.DBTX) *BookingReadStore {
	return &BookingReadStore{db: db}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id string) (*queries.BookingView, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, pickup, drop_off, parcel, fare_minor, currency, coupon_code,
			status, payment_status, payment_method, tracking_number, source_reference, created_at, updated_at
		FROM bookings WHERE id = $1`, id)

	var (
		v         queries.BookingView
		coupon    pgtype.Text
		sourceRef pgtype.Text
	)
	err := row.Scan(&v.ID, &v.UserID, &v.Pickup, &v.Drop, &v.Parcel, &v.FareMinor, &v.Currency, &coupon,
		&v.Status, &v.PaymentStatus, &v.PaymentMethod, &v.TrackingNumber, &sourceRef, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking by ID", err)
	}
	v.Fare = formatFare(v.FareMinor)
	v.CouponCode = pgconv.StringPtrFromPgtype(coupon)
	v.SourceReference = pgconv.StringPtrFromPgtype(sourceRef)
	return &v, nil
}

func (r *BookingReadStore) FindByUserFirstPage(ctx context.Context, userID string, limit int32) ([]*queries.BookingListItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, fare_minor, status, payment_status, payment_method, tracking_number, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find bookings first page", err)
	}
	return collectListItems(rows)
}

func (r *BookingReadStore) FindByUserKeyset(ctx context.Context, userID string, lastCreatedAt time.Time, lastID string, limit int32) ([]*queries.BookingListItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, fare_minor, status, payment_status, payment_method, tracking_number, created_at
		FROM bookings
		WHERE user_id = $1 AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`, userID, lastCreatedAt, lastID, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find bookings keyset", err)
	}
	return collectListItems(rows)
}

func collectListItems(rows pgx.Rows) ([]*queries.BookingListItem, error) {
	defer rows.Close()

	var result []*queries.BookingListItem
	for rows.Next() {
		var (
			item      queries.BookingListItem
			fareMinor int64
		)
		if err := rows.Scan(&item.ID, &fareMinor, &item.Status, &item.PaymentStatus, &item.PaymentMethod,
			&item.TrackingNumber, &item.CreatedAt); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking list item", err)
		}
		item.Fare = formatFare(fareMinor)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate bookings", err)
	}
	return result, nil
}

func formatFare(minor int64) string {
	m, err := booking.NewMoney(minor)
	if err != nil {
		return ""
	}
	return m.String()
}
