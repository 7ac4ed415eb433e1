package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/pkg/errs"

	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

const headerRazorpaySignature = "X-Razorpay-Signature"

// razorpayLinks is the subset of the SDK payment link resource in use.
type razorpayLinks interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	All(queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay serves hosted pages as payment links whose reference_id is the merchant reference.
type Razorpay struct {
	links         razorpayLinks
	currency      string
	publicURL     string
	webhookSecret string
}

func NewRazorpay(cfg config.GatewayConfig, publicURL string) *Razorpay {
	client := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	return newRazorpay(client.PaymentLink, cfg, publicURL)
}

func newRazorpay(links razorpayLinks, cfg config.GatewayConfig, publicURL string) *Razorpay {
	return &Razorpay{
		links:         links,
		currency:      cfg.Currency,
		publicURL:     publicURL,
		webhookSecret: cfg.RazorpayWebhookSecret,
	}
}

func (r *Razorpay) CreatePaymentPage(ctx context.Context, req payment.PageRequest) (*payment.Page, error) {
	data := map[string]interface{}{
		"amount":       req.Amount.Minor(),
		"currency":     r.currency,
		"reference_id": req.Reference.String(),
		"description":  "Parcel booking " + req.Reference.String(),
		"customer": map[string]interface{}{
			"name":    req.Customer.Name,
			"contact": req.Customer.Phone,
			"email":   req.Customer.Email,
		},
		"callback_url":    redirectURL(r.publicURL, "/payments/success", req.Reference),
		"callback_method": "get",
	}

	out, err := callSDK(ctx, func() (map[string]interface{}, error) {
		return r.links.Create(data, nil)
	})
	if err != nil {
		return nil, errs.Wrap(err, "razorpay create payment link")
	}

	shortURL, _ := out["short_url"].(string)
	id, _ := out["id"].(string)
	if shortURL == "" {
		return nil, errs.New("razorpay create payment link: empty short_url")
	}
	return &payment.Page{URL: shortURL, GatewayReferenceID: id}, nil
}

func (r *Razorpay) CheckStatus(ctx context.Context, ref booking.Reference) (*payment.StatusRecord, error) {
	out, err := callSDK(ctx, func() (map[string]interface{}, error) {
		return r.links.All(map[string]interface{}{"reference_id": ref.String()}, nil)
	})
	if err != nil {
		return nil, errs.Wrap(err, "razorpay fetch payment links")
	}

	items, _ := out["payment_links"].([]interface{})
	if len(items) == 0 {
		return nil, ErrOrderNotFound
	}
	link, ok := items[0].(map[string]interface{})
	if !ok {
		return nil, errs.New("razorpay payment link: unexpected shape")
	}

	linkStatus, _ := link["status"].(string)
	status, err := razorpayTxnStatus(linkStatus)
	if err != nil {
		return nil, err
	}

	// Amounts are reported in paise.
	amountField := "amount_paid"
	if status != payment.TxnSuccess {
		amountField = "amount"
	}
	paise, _ := link[amountField].(float64)
	amount, err := booking.NewMoney(int64(paise))
	if err != nil {
		return nil, errs.Wrap(err, "razorpay amount")
	}
	id, _ := link["id"].(string)
	return &payment.StatusRecord{TxnStatus: status, Amount: amount, GatewayReferenceID: id}, nil
}

func (r *Razorpay) VerifyWebhook(header http.Header, body []byte) error {
	signature := header.Get(headerRazorpaySignature)
	if signature == "" || !utils.VerifyWebhookSignature(string(body), signature, r.webhookSecret) {
		return ErrInvalidSignature
	}
	return nil
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity struct {
				ID          string `json:"id"`
				ReferenceID string `json:"reference_id"`
				Amount      *int64 `json:"amount"`
				AmountPaid  *int64 `json:"amount_paid"`
			} `json:"entity"`
		} `json:"payment_link"`
	} `json:"payload"`
}

// ParseWebhook decodes payment_link.* deliveries. Other subscribed events are reported as ignored.
func (r *Razorpay) ParseWebhook(body []byte) (payment.WebhookEvent, error) {
	var wh razorpayWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return payment.WebhookEvent{}, errs.Mark(errs.Wrap(err, "razorpay webhook"), payment.ErrMalformedWebhook)
	}

	link := wh.Payload.PaymentLink.Entity
	paise := link.Amount
	var status payment.TxnStatus
	switch wh.Event {
	case "payment_link.paid":
		status = payment.TxnSuccess
		if link.AmountPaid != nil {
			paise = link.AmountPaid
		}
	case "payment_link.partially_paid":
		status = payment.TxnPending
	case "payment_link.expired", "payment_link.cancelled":
		status = payment.TxnFailed
	case "":
		return payment.WebhookEvent{}, errs.Wrap(payment.ErrMalformedWebhook, "razorpay webhook without event")
	default:
		return payment.WebhookEvent{}, errs.Wrap(payment.ErrIgnoredEvent, "razorpay "+wh.Event)
	}
	if link.ReferenceID == "" {
		return payment.WebhookEvent{}, errs.Wrap(payment.ErrMalformedWebhook, "razorpay webhook without reference_id")
	}

	ev := payment.WebhookEvent{TxnStatus: status, MerchantReferenceID: link.ReferenceID, GatewayReferenceID: link.ID}
	if paise != nil {
		m, err := booking.NewMoney(*paise)
		if err != nil {
			return payment.WebhookEvent{}, errs.Mark(errs.Wrap(err, "razorpay webhook amount"), payment.ErrMalformedWebhook)
		}
		ev.Amount = &m
	}
	return ev, nil
}

func razorpayTxnStatus(linkStatus string) (payment.TxnStatus, error) {
	switch linkStatus {
	case "paid":
		return payment.TxnSuccess, nil
	case "created", "issued", "partially_paid":
		return payment.TxnPending, nil
	case "expired", "cancelled":
		return payment.TxnFailed, nil
	default:
		return "", errs.Wrap(ErrUnexpectedStatus, fmt.Sprintf("razorpay link status %q", linkStatus))
	}
}

// callSDK bounds a context-unaware SDK call by ctx. The call itself is left to finish in the background.
func callSDK(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	type result struct {
		out map[string]interface{}
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fn()
		done <- result{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.out, res.err
	}
}
