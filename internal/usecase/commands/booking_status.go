package commands

//go:generate mockgen -source=booking_status.go -destination=../../../tests/mock/commands/booking_status_mock.go -package=commandsmock

import (
	"context"
	"errors"
	"log/slog"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/errs"
	"parcel-booking/internal/usecase/shared"
)

type BookingStatusCommands interface {
	AdvancePaymentStatus(ctx context.Context, bookingID string, to booking.PaymentStatus) error
	AdvanceStatus(ctx context.Context, bookingID string, to booking.Status) error
}

type bookingStatusUseCaseImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewBookingStatusUseCase(uow shared.UnitOfWork, clk clock.Clock) BookingStatusCommands {
	return &bookingStatusUseCaseImpl{uow: uow, clock: clk}
}

// AdvancePaymentStatus applies an administrative payment change. Marking a paid booking paid again is accepted.
func (uc *bookingStatusUseCaseImpl) AdvancePaymentStatus(ctx context.Context, bookingID string, to booking.PaymentStatus) error {
	if !to.IsValid() || to == booking.PaymentPending {
		return errs.Mark(booking.ErrInvalidPaymentTransition, errs.ErrDomainValidation)
	}

	return uc.update(ctx, bookingID, func(b *booking.Booking) (bool, error) {
		changed, err := b.AdvancePayment(to, uc.clock.Now())
		if err == nil && changed && to == booking.PaymentPaid {
			slog.Info("booking marked paid by operator", "booking_id", bookingID)
		}
		return changed, err
	}, to == booking.PaymentPaid)
}

func (uc *bookingStatusUseCaseImpl) AdvanceStatus(ctx context.Context, bookingID string, to booking.Status) error {
	if !to.IsValid() {
		return errs.Mark(booking.ErrInvalidStatusTransition, errs.ErrDomainValidation)
	}

	return uc.update(ctx, bookingID, func(b *booking.Booking) (bool, error) {
		return b.AdvanceTo(to, uc.clock.Now())
	}, false)
}

func (uc *bookingStatusUseCaseImpl) update(ctx context.Context, bookingID string, mutate func(*booking.Booking) (bool, error), notifyPaid bool) error {
	err := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		prev := shared.StateOf(b)
		changed, err := mutate(b)
		if err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}
		if !changed {
			return nil
		}
		if err := tx.Bookings().UpdateState(ctx, b, prev); err != nil {
			return err
		}
		if notifyPaid {
			return enqueueBookingPaid(ctx, tx, b, uc.clock.Now())
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrInvalidTransition) {
		return classifyTxErr(err)
	}
	return err
}
