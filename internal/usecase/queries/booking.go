package queries

//go:generate mockgen -source=booking.go -destination=../../../tests/mock/queries/booking_mock.go -package=queriesmock

import (
	"context"
	"errors"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/infra"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrBookingAccess   = errors.New("booking belongs to another user")
)

// Read models (DTO for read side)
type BookingView struct {
	ID              string                `json:"id"`
	UserID          string                `json:"user_id"`
	Pickup          booking.Location      `json:"pickup"`
	Drop            booking.Location      `json:"drop"`
	Parcel          booking.ParcelDetails `json:"parcel"`
	FareMinor       int64                 `json:"fare_minor"`
	Fare            string                `json:"fare"`
	Currency        string                `json:"currency"`
	CouponCode      *string               `json:"coupon_code,omitempty"`
	Status          string                `json:"status"`
	PaymentStatus   string                `json:"payment_status"`
	PaymentMethod   string                `json:"payment_method"`
	TrackingNumber  string                `json:"tracking_number"`
	SourceReference *string               `json:"source_reference,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type BookingListItem struct {
	ID             string    `json:"id"`
	Fare           string    `json:"fare"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	PaymentMethod  string    `json:"payment_method"`
	TrackingNumber string    `json:"tracking_number"`
	CreatedAt      time.Time `json:"created_at"`
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id string) (*BookingView, error)
	FindByUserFirstPage(ctx context.Context, userID string, limit int32) ([]*BookingListItem, error)
	FindByUserKeyset(ctx context.Context, userID string, lastCreatedAt time.Time, lastID string, limit int32) ([]*BookingListItem, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, actorID string, isAdmin bool, id string) (*BookingView, error)
	ListByUser(ctx context.Context, userID string, cursor *Cursor, limit int) ([]*BookingListItem, *Cursor, error)
}

type bookingQueriesImpl struct {
	repo BookingReadStore
}

func NewBookingQueries(repo BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{repo: repo}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, actorID string, isAdmin bool, id string) (*BookingView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !isAdmin && view.UserID != actorID {
		return nil, ErrBookingAccess
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByUser(ctx context.Context, userID string, cursor *Cursor, limit int) ([]*BookingListItem, *Cursor, error) {
	limit = ValidateLimit(limit)
	var rows []*BookingListItem
	var err error
	if cursor == nil || cursor.After == "" {
		rows, err = q.repo.FindByUserFirstPage(ctx, userID, int32(limit+1))
	} else {
		lastCreatedAt, lastID, derr := DecodeAfterCursor(cursor.After)
		if derr != nil {
			return nil, nil, ErrInvalidCursor
		}
		rows, err = q.repo.FindByUserKeyset(ctx, userID, lastCreatedAt, lastID, int32(limit+1))
	}
	if err != nil {
		return nil, nil, err
	}
	var next *Cursor
	if len(rows) > limit {
		last := rows[limit-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
		rows = rows[:limit]
	}
	return rows, next, nil
}
