//go:build unit || e2e

package builder

import (
	"encoding/json"
	"time"

	"parcel-booking/internal/domain/booking"
	reqdto "parcel-booking/internal/handler/dto/request"
	"parcel-booking/internal/usecase/queries"
)

type BookingBuilder struct {
	UserID     string
	Pickup     booking.Location
	Drop       booking.Location
	Parcel     booking.ParcelDetails
	FareMinor  int64
	CouponCode *string
	Now        time.Time
}

func NewBookingBuilder() *BookingBuilder {
	return &BookingBuilder{
		UserID: "u42",
		Pickup: booking.Location{Address: "12 MG Road, Bengaluru", Latitude: 12.9756, Longitude: 77.6050},
		Drop:   booking.Location{Address: "7 Park Street, Kolkata", Latitude: 22.5535, Longitude: 88.3520},
		Parcel: booking.ParcelDetails{WeightGrams: 1200, Category: "documents", Description: "contract copies"},
		// 250.00
		FareMinor: 25000,
		Now:       time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) WithUser(id string) *BookingBuilder {
	b.UserID = id
	return b
}

func (b *BookingBuilder) WithFare(minor int64) *BookingBuilder {
	b.FareMinor = minor
	return b
}

func (b *BookingBuilder) Fare() booking.Money {
	m, _ := booking.NewMoney(b.FareMinor)
	return m
}

func (b *BookingBuilder) BuildDetails() booking.Details {
	return booking.Details{
		Pickup:     b.Pickup,
		Drop:       b.Drop,
		Parcel:     b.Parcel,
		Fare:       b.Fare(),
		CouponCode: b.CouponCode,
	}
}

func (b *BookingBuilder) StagedReference() booking.Reference {
	ref, err := booking.NewStagedReference(b.UserID, b.Now)
	if err != nil {
		panic(err)
	}
	return ref
}

// BuildStaged returns a staged booking and its reference, created at b.Now.
func (b *BookingBuilder) BuildStaged() (*booking.StagedBooking, booking.Reference) {
	ref := b.StagedReference()
	staged, err := booking.NewStagedBooking(ref, b.UserID, b.BuildDetails(), b.Now)
	if err != nil {
		panic(err)
	}
	return staged, ref
}

func (b *BookingBuilder) BuildCOD() *booking.Booking {
	bk, err := booking.NewCODBooking(b.UserID, b.BuildDetails(), b.Now)
	if err != nil {
		panic(err)
	}
	return bk
}

// BuildOnlinePending is an online booking materialized from a staged record and not yet paid.
func (b *BookingBuilder) BuildOnlinePending(id string) *booking.Booking {
	ref := b.StagedReference().String()
	return booking.ReconstructBooking(id, b.UserID, b.BuildDetails(),
		booking.StatusPendingPayment, booking.PaymentPending, booking.MethodOnline,
		"PBTEST"+id, &ref, b.Now, b.Now)
}

func (b *BookingBuilder) BuildWithState(id string, status booking.Status, ps booking.PaymentStatus, method booking.PaymentMethod) *booking.Booking {
	return booking.ReconstructBooking(id, b.UserID, b.BuildDetails(), status, ps, method,
		"PBTEST"+id, nil, b.Now, b.Now)
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		Pickup: reqdto.LocationRequest{Address: b.Pickup.Address, Latitude: b.Pickup.Latitude, Longitude: b.Pickup.Longitude},
		Drop:   reqdto.LocationRequest{Address: b.Drop.Address, Latitude: b.Drop.Latitude, Longitude: b.Drop.Longitude},
		Parcel: reqdto.ParcelRequest{
			WeightGrams: b.Parcel.WeightGrams,
			Category:    b.Parcel.Category,
			Description: b.Parcel.Description,
			Fragile:     b.Parcel.Fragile,
		},
		Fare:       json.Number(b.Fare().String()),
		CouponCode: b.CouponCode,
	}
}

func (b *BookingBuilder) BuildView(id string) *queries.BookingView {
	return &queries.BookingView{
		ID:             id,
		UserID:         b.UserID,
		Pickup:         b.Pickup,
		Drop:           b.Drop,
		Parcel:         b.Parcel,
		FareMinor:      b.FareMinor,
		Fare:           b.Fare().String(),
		Currency:       "INR",
		CouponCode:     b.CouponCode,
		Status:         string(booking.StatusCreated),
		PaymentStatus:  string(booking.PaymentPending),
		PaymentMethod:  string(booking.MethodCOD),
		TrackingNumber: "PBTEST" + id,
		CreatedAt:      b.Now,
		UpdatedAt:      b.Now,
	}
}

func (b *BookingBuilder) BuildListItem(id string, createdAt time.Time) *queries.BookingListItem {
	return &queries.BookingListItem{
		ID:             id,
		Fare:           b.Fare().String(),
		Status:         string(booking.StatusCreated),
		PaymentStatus:  string(booking.PaymentPending),
		PaymentMethod:  string(booking.MethodCOD),
		TrackingNumber: "PBTEST" + id,
		CreatedAt:      createdAt,
	}
}
