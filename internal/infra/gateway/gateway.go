package gateway

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/pkg/errs"
)

const (
	ProviderCashfree = "cashfree"
	ProviderRazorpay = "razorpay"
)

var (
	ErrInvalidSignature = errs.New("invalid webhook signature")
	ErrUnexpectedStatus = errs.New("unexpected gateway status")
	ErrOrderNotFound    = errs.New("payment order not found at gateway")
)

// Gateway is a hosted payment page provider that can also authenticate and decode its own
// webhook deliveries.
type Gateway interface {
	CreatePaymentPage(ctx context.Context, req payment.PageRequest) (*payment.Page, error)
	CheckStatus(ctx context.Context, ref booking.Reference) (*payment.StatusRecord, error)
	VerifyWebhook(header http.Header, body []byte) error
	ParseWebhook(body []byte) (payment.WebhookEvent, error)
}

func New(cfg config.GatewayConfig, publicURL string) (Gateway, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderCashfree:
		return NewCashfree(cfg, publicURL, &http.Client{Timeout: cfg.HTTPTimeout}), nil
	case ProviderRazorpay:
		return NewRazorpay(cfg, publicURL), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Provider)
	}
}

// majorToMoney converts a gateway amount in major units (e.g. rupees as a JSON number) to Money.
func majorToMoney(amount float64) (booking.Money, error) {
	return booking.NewMoney(int64(math.Round(amount * 100)))
}

func moneyToMajor(m booking.Money) float64 {
	return float64(m.Minor()) / 100
}

func redirectURL(publicURL, path string, ref booking.Reference) string {
	return strings.TrimRight(publicURL, "/") + path + "?merchantRefId=" + ref.String()
}
