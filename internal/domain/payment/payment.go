package payment

import (
	"errors"
	"strings"

	"parcel-booking/internal/domain/booking"
)

var (
	ErrUnknownTxnStatus = errors.New("unknown transaction status")
	ErrMalformedWebhook = errors.New("malformed webhook payload")
	// ErrIgnoredEvent marks a well-formed delivery that says nothing about a payment outcome.
	ErrIgnoredEvent = errors.New("webhook event does not concern a payment outcome")
)

// TxnStatus is the gateway-neutral outcome of a payment attempt.
type TxnStatus string

const (
	TxnSuccess TxnStatus = "SUCCESS"
	TxnFailed  TxnStatus = "FAILED"
	TxnPending TxnStatus = "PENDING"
)

func ParseTxnStatus(s string) (TxnStatus, error) {
	switch TxnStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case TxnSuccess:
		return TxnSuccess, nil
	case TxnFailed:
		return TxnFailed, nil
	case TxnPending:
		return TxnPending, nil
	default:
		return "", ErrUnknownTxnStatus
	}
}

func (s TxnStatus) String() string {
	return string(s)
}

// StatusRecord is what the gateway reports when queried by merchant reference.
type StatusRecord struct {
	TxnStatus          TxnStatus
	Amount             booking.Money
	GatewayReferenceID string
}

// WebhookEvent is the validated, gateway-neutral form of a webhook payload. Its content is a hint only:
// nothing is mutated before the gateway confirms it.
type WebhookEvent struct {
	TxnStatus           TxnStatus
	MerchantReferenceID string
	Amount              *booking.Money
	GatewayReferenceID  string
}

type Customer struct {
	ID    string
	Name  string
	Phone string
	Email string
}

// PageRequest asks the gateway for a hosted payment page.
type PageRequest struct {
	Reference booking.Reference
	Amount    booking.Money
	Customer  Customer
}

type Page struct {
	URL                string
	GatewayReferenceID string
}
