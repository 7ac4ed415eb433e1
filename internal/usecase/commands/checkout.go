package commands

//go:generate mockgen -source=checkout.go -destination=../../../tests/mock/commands/checkout_mock.go -package=commandsmock

import (
	"context"
	"log/slog"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/infra"
	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/errs"
	"parcel-booking/internal/usecase/shared"
)

var (
	ErrPaymentPageFailed = errs.New("payment page could not be created")
	ErrBookingNotPayable = errs.New("booking cannot be paid online")
)

type CheckoutParams struct {
	Details  booking.Details
	Customer payment.Customer
}

type CheckoutResult struct {
	MerchantReference string
	PaymentURL        string
}

type CheckoutCommands interface {
	// StartCheckout stages the booking and returns the hosted payment page for it.
	StartCheckout(ctx context.Context, userID string, params CheckoutParams) (*CheckoutResult, error)
	// RetryOnlinePayment opens a new payment attempt for an existing booking under a direct reference.
	RetryOnlinePayment(ctx context.Context, userID, bookingID string, customer payment.Customer) (*CheckoutResult, error)
	CreateCODBooking(ctx context.Context, userID string, details booking.Details) (string, error)
}

type checkoutUseCaseImpl struct {
	uow     shared.UnitOfWork
	gateway PaymentGateway
	clock   clock.Clock
}

func NewCheckoutUseCase(uow shared.UnitOfWork, gateway PaymentGateway, clk clock.Clock) CheckoutCommands {
	return &checkoutUseCaseImpl{uow: uow, gateway: gateway, clock: clk}
}

func (uc *checkoutUseCaseImpl) StartCheckout(ctx context.Context, userID string, params CheckoutParams) (*CheckoutResult, error) {
	now := uc.clock.Now()
	ref, err := booking.NewStagedReference(userID, now)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	staged, err := booking.NewStagedBooking(ref, userID, params.Details, now)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Staging().Create(ctx, staged)
	})
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	page, err := uc.gateway.CreatePaymentPage(ctx, payment.PageRequest{
		Reference: ref,
		Amount:    staged.Fare(),
		Customer:  withCustomerID(params.Customer, userID),
	})
	if err != nil {
		slog.Warn("payment page creation failed, discarding staged booking",
			"merchant_ref", ref.String(),
			"error", err.Error())
		derr := uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			_, err := tx.Staging().DeleteUnresolved(ctx, ref)
			return err
		})
		if derr != nil {
			slog.Error("failed to discard staged booking", "merchant_ref", ref.String(), "error", derr.Error())
		}
		return nil, errs.Mark(err, ErrPaymentPageFailed)
	}

	slog.Info("checkout started", "merchant_ref", ref.String(), "user_id", userID)
	return &CheckoutResult{MerchantReference: ref.String(), PaymentURL: page.URL}, nil
}

func (uc *checkoutUseCaseImpl) RetryOnlinePayment(ctx context.Context, userID, bookingID string, customer payment.Customer) (*CheckoutResult, error) {
	b, err := uc.uow.CommandReads().BookingByID(ctx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !b.IsOwnedBy(userID) {
		return nil, errs.ErrForbidden
	}
	if err := b.CheckPayableOnline(); err != nil {
		return nil, errs.Mark(err, ErrBookingNotPayable)
	}

	ref, err := booking.NewDirectReference(b.ID(), uc.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, ErrPaymentPageFailed)
	}
	page, err := uc.gateway.CreatePaymentPage(ctx, payment.PageRequest{
		Reference: ref,
		Amount:    b.Fare(),
		Customer:  withCustomerID(customer, userID),
	})
	if err != nil {
		return nil, errs.Mark(err, ErrPaymentPageFailed)
	}
	return &CheckoutResult{MerchantReference: ref.String(), PaymentURL: page.URL}, nil
}

func (uc *checkoutUseCaseImpl) CreateCODBooking(ctx context.Context, userID string, details booking.Details) (string, error) {
	b, err := booking.NewCODBooking(userID, details, uc.clock.Now())
	if err != nil {
		return "", errs.Mark(err, errs.ErrDomainValidation)
	}

	var id string
	err = uc.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		created, err := tx.Bookings().Create(ctx, b)
		if err != nil {
			return err
		}
		id = created
		return nil
	})
	if err != nil {
		return "", errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return id, nil
}

func withCustomerID(c payment.Customer, userID string) payment.Customer {
	if c.ID == "" {
		c.ID = userID
	}
	return c
}
