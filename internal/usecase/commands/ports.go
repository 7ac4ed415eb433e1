package commands

//go:generate mockgen -source=ports.go -destination=../../../tests/mock/commands/ports_mock.go -package=commandsmock

import (
	"context"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
)

// PaymentGateway is the hosted-checkout provider. CheckStatus is the only source of truth for a payment outcome.
type PaymentGateway interface {
	CreatePaymentPage(ctx context.Context, req payment.PageRequest) (*payment.Page, error)
	CheckStatus(ctx context.Context, ref booking.Reference) (*payment.StatusRecord, error)
}

// PurgeScheduler records when a resolved staged record may be deleted.
// Scheduling is best-effort; the purger also sweeps the database.
type PurgeScheduler interface {
	Schedule(ctx context.Context, ref string, at time.Time) error
}
