package booking

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidPaymentTransition = errors.New("invalid payment status transition")
	ErrPaymentAlreadySettled    = errors.New("payment already settled")
	ErrInvalidStatusTransition  = errors.New("invalid booking status transition")
	ErrPaymentRequired          = errors.New("booking requires payment before it can be created")
	ErrNotPayable               = errors.New("booking cannot accept an online payment")
	ErrInvalidUser              = errors.New("user id is required")
)

type Booking struct {
	id              string
	userID          string
	details         Details
	status          Status
	paymentStatus   PaymentStatus
	paymentMethod   PaymentMethod
	trackingNumber  string
	sourceReference *string
	createdAt       time.Time
	updatedAt       time.Time
}

// NewCODBooking creates a cash-on-delivery booking; it is Created immediately with payment pending.
func NewCODBooking(userID string, details Details, now time.Time) (*Booking, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}
	return &Booking{
		userID:         userID,
		details:        details,
		status:         StatusCreated,
		paymentStatus:  PaymentPending,
		paymentMethod:  MethodCOD,
		trackingNumber: newTrackingNumber(),
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func ReconstructBooking(
	id, userID string,
	details Details,
	status Status,
	paymentStatus PaymentStatus,
	paymentMethod PaymentMethod,
	trackingNumber string,
	sourceReference *string,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		userID:          userID,
		details:         details,
		status:          status,
		paymentStatus:   paymentStatus,
		paymentMethod:   paymentMethod,
		trackingNumber:  trackingNumber,
		sourceReference: sourceReference,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// MarkPaid records a verified payment. Re-marking an already paid booking is a no-op.
func (b *Booking) MarkPaid(now time.Time) (bool, error) {
	switch b.paymentStatus {
	case PaymentPaid:
		return false, nil
	case PaymentRefunded:
		return false, ErrInvalidPaymentTransition
	}

	b.paymentStatus = PaymentPaid
	if b.status == StatusPendingPayment {
		b.status = StatusCreated
	}
	b.updatedAt = now
	return true, nil
}

// MarkPaidOnline is MarkPaid for a gateway-verified payment; the booking is switched to the online method.
func (b *Booking) MarkPaidOnline(now time.Time) (bool, error) {
	changed, err := b.MarkPaid(now)
	if err != nil || !changed {
		return changed, err
	}
	b.paymentMethod = MethodOnline
	return true, nil
}

// MarkPaymentFailed never touches the lifecycle status.
func (b *Booking) MarkPaymentFailed(now time.Time) (bool, error) {
	switch b.paymentStatus {
	case PaymentFailed:
		return false, nil
	case PaymentPaid, PaymentRefunded:
		return false, ErrPaymentAlreadySettled
	}
	b.paymentStatus = PaymentFailed
	b.updatedAt = now
	return true, nil
}

func (b *Booking) MarkRefunded(now time.Time) (bool, error) {
	switch b.paymentStatus {
	case PaymentRefunded:
		return false, nil
	case PaymentPaid:
		b.paymentStatus = PaymentRefunded
		b.updatedAt = now
		return true, nil
	default:
		return false, ErrInvalidPaymentTransition
	}
}

// AdvancePayment applies an administrative payment status change.
func (b *Booking) AdvancePayment(to PaymentStatus, now time.Time) (bool, error) {
	switch to {
	case PaymentPaid:
		return b.MarkPaid(now)
	case PaymentFailed:
		return b.MarkPaymentFailed(now)
	case PaymentRefunded:
		return b.MarkRefunded(now)
	default:
		return false, ErrInvalidPaymentTransition
	}
}

// AdvanceTo moves the lifecycle forward. Created is only reachable through MarkPaid.
func (b *Booking) AdvanceTo(next Status, now time.Time) (bool, error) {
	if next == b.status {
		return false, nil
	}
	if next == StatusCreated {
		return false, ErrPaymentRequired
	}
	if !b.status.CanAdvanceTo(next) {
		return false, ErrInvalidStatusTransition
	}
	b.status = next
	b.updatedAt = now
	return true, nil
}

func (b *Booking) Cancel(now time.Time) (bool, error) {
	return b.AdvanceTo(StatusCancelled, now)
}

// CheckPayableOnline reports whether a fresh online payment attempt may be started for this booking.
func (b *Booking) CheckPayableOnline() error {
	if b.status.IsTerminal() {
		return ErrNotPayable
	}
	if b.paymentStatus != PaymentPending && b.paymentStatus != PaymentFailed {
		return ErrNotPayable
	}
	return nil
}

func (b *Booking) IsOwnedBy(userID string) bool {
	return b.userID == userID
}

func (b *Booking) ID() string                   { return b.id }
func (b *Booking) UserID() string               { return b.userID }
func (b *Booking) Details() Details             { return b.details }
func (b *Booking) Fare() Money                  { return b.details.Fare }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) PaymentMethod() PaymentMethod { return b.paymentMethod }
func (b *Booking) TrackingNumber() string       { return b.trackingNumber }
func (b *Booking) SourceReference() *string     { return b.sourceReference }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PB" + strings.ToUpper(raw[:10])
}
