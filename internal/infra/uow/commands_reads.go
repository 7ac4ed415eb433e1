package uow

import (
	"context"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/infra"
	"parcel-booking/internal/infra/repository"
	"parcel-booking/internal/usecase/shared"
)

type commandReads struct {
	dbtx infra.DBTX

	// Lazy-initialized repositories used without row locks
	stagingRepo *repository.StagingRepository
	bookingRepo *repository.BookingRepository
}

func (r *commandReads) staging() *repository.StagingRepository {
	if r.stagingRepo == nil {
		r.stagingRepo = repository.NewStagingRepository(r.dbtx)
	}
	return r.stagingRepo
}

func (r *commandReads) bookings() *repository.BookingRepository {
	if r.bookingRepo == nil {
		r.bookingRepo = repository.NewBookingRepository(r.dbtx)
	}
	return r.bookingRepo
}

func (r *commandReads) StagedByReference(ctx context.Context, ref booking.Reference) (*booking.StagedBooking, error) {
	return r.staging().Find(ctx, ref)
}

func (r *commandReads) BookingByID(ctx context.Context, id string) (*booking.Booking, error) {
	return r.bookings().Find(ctx, id)
}

func (r *commandReads) BookingByProvenance(ctx context.Context, p shared.Provenance) (*booking.Booking, error) {
	return r.bookings().FindByProvenance(ctx, p)
}
