package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/pkg/config"
	"parcel-booking/internal/pkg/errs"
)

const (
	cashfreeSandboxURL    = "https://sandbox.cashfree.com/pg"
	cashfreeProductionURL = "https://api.cashfree.com/pg"

	headerCashfreeSignature = "x-webhook-signature"
	headerCashfreeTimestamp = "x-webhook-timestamp"
)

// Cashfree talks to the Cashfree PG orders API. The merchant reference is used as the order id.
type Cashfree struct {
	http        *http.Client
	baseURL     string
	checkoutURL string
	appID       string
	secretKey   string
	apiVersion  string
	currency    string
	publicURL   string
}

type cashfreeOrderRequest struct {
	OrderID         string                  `json:"order_id"`
	OrderAmount     float64                 `json:"order_amount"`
	OrderCurrency   string                  `json:"order_currency"`
	CustomerDetails cashfreeCustomerDetails `json:"customer_details"`
	OrderMeta       cashfreeOrderMeta       `json:"order_meta"`
}

type cashfreeCustomerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone"`
}

type cashfreeOrderMeta struct {
	ReturnURL string `json:"return_url"`
	NotifyURL string `json:"notify_url"`
}

type cashfreeOrderResponse struct {
	CFOrderID        any     `json:"cf_order_id"`
	OrderID          string  `json:"order_id"`
	OrderStatus      string  `json:"order_status"`
	OrderAmount      float64 `json:"order_amount"`
	PaymentSessionID string  `json:"payment_session_id"`
}

type cashfreeErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewCashfree(cfg config.GatewayConfig, publicURL string, client *http.Client) *Cashfree {
	baseURL := cfg.CashfreeBaseURL
	if baseURL == "" {
		if cfg.CashfreeEnvironment == "production" {
			baseURL = cashfreeProductionURL
		} else {
			baseURL = cashfreeSandboxURL
		}
	}
	return &Cashfree{
		http:        client,
		baseURL:     baseURL,
		checkoutURL: cfg.CashfreeCheckoutURL,
		appID:       cfg.CashfreeAppID,
		secretKey:   cfg.CashfreeSecretKey,
		apiVersion:  cfg.CashfreeAPIVersion,
		currency:    cfg.Currency,
		publicURL:   publicURL,
	}
}

func (c *Cashfree) CreatePaymentPage(ctx context.Context, req payment.PageRequest) (*payment.Page, error) {
	body := cashfreeOrderRequest{
		OrderID:       req.Reference.String(),
		OrderAmount:   moneyToMajor(req.Amount),
		OrderCurrency: c.currency,
		CustomerDetails: cashfreeCustomerDetails{
			CustomerID:    req.Customer.ID,
			CustomerName:  req.Customer.Name,
			CustomerEmail: req.Customer.Email,
			CustomerPhone: req.Customer.Phone,
		},
		OrderMeta: cashfreeOrderMeta{
			ReturnURL: redirectURL(c.publicURL, "/payments/success", req.Reference),
			NotifyURL: c.publicURL + "/payments/webhook",
		},
	}

	var out cashfreeOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		return nil, errs.Wrap(err, "cashfree create order")
	}
	if out.PaymentSessionID == "" {
		return nil, errs.New("cashfree create order: empty payment session")
	}
	return &payment.Page{
		URL:                c.checkoutURL + out.PaymentSessionID,
		GatewayReferenceID: fmt.Sprint(out.CFOrderID),
	}, nil
}

func (c *Cashfree) CheckStatus(ctx context.Context, ref booking.Reference) (*payment.StatusRecord, error) {
	var out cashfreeOrderResponse
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(ref.String()), nil, &out); err != nil {
		return nil, errs.Wrap(err, "cashfree get order")
	}

	status, err := cashfreeTxnStatus(out.OrderStatus)
	if err != nil {
		return nil, err
	}
	amount, err := majorToMoney(out.OrderAmount)
	if err != nil {
		return nil, errs.Wrap(err, "cashfree order amount")
	}
	return &payment.StatusRecord{
		TxnStatus:          status,
		Amount:             amount,
		GatewayReferenceID: fmt.Sprint(out.CFOrderID),
	}, nil
}

// VerifyWebhook checks base64(HMAC-SHA256(timestamp + body)) keyed with the client secret.
func (c *Cashfree) VerifyWebhook(header http.Header, body []byte) error {
	signature := header.Get(headerCashfreeSignature)
	timestamp := header.Get(headerCashfreeTimestamp)
	if signature == "" || timestamp == "" {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// cashfreeWebhook is the PG webhook body (2023-08-01 schema); only the fields in use are decoded.
type cashfreeWebhook struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID     string   `json:"order_id"`
			OrderAmount *float64 `json:"order_amount"`
		} `json:"order"`
		Payment struct {
			CFPaymentID   json.RawMessage `json:"cf_payment_id"`
			PaymentAmount *float64        `json:"payment_amount"`
		} `json:"payment"`
	} `json:"data"`
}

// ParseWebhook decodes a Cashfree delivery. Only payment outcome events are accepted;
// refunds, settlements and the like are reported as ignored.
func (c *Cashfree) ParseWebhook(body []byte) (payment.WebhookEvent, error) {
	var wh cashfreeWebhook
	if err := json.Unmarshal(body, &wh); err != nil {
		return payment.WebhookEvent{}, errs.Mark(errs.Wrap(err, "cashfree webhook"), payment.ErrMalformedWebhook)
	}

	var status payment.TxnStatus
	switch wh.Type {
	case "PAYMENT_SUCCESS_WEBHOOK":
		status = payment.TxnSuccess
	case "PAYMENT_FAILED_WEBHOOK", "PAYMENT_USER_DROPPED_WEBHOOK":
		status = payment.TxnFailed
	case "":
		return payment.WebhookEvent{}, errs.Wrap(payment.ErrMalformedWebhook, "cashfree webhook without type")
	default:
		return payment.WebhookEvent{}, errs.Wrap(payment.ErrIgnoredEvent, "cashfree "+wh.Type)
	}
	if wh.Data.Order.OrderID == "" {
		return payment.WebhookEvent{}, errs.Wrap(payment.ErrMalformedWebhook, "cashfree webhook without order_id")
	}

	ev := payment.WebhookEvent{TxnStatus: status, MerchantReferenceID: wh.Data.Order.OrderID}
	if id := strings.Trim(string(wh.Data.Payment.CFPaymentID), `"`); id != "" && id != "null" {
		ev.GatewayReferenceID = id
	}
	amount := wh.Data.Payment.PaymentAmount
	if amount == nil {
		amount = wh.Data.Order.OrderAmount
	}
	if amount != nil {
		m, err := majorToMoney(*amount)
		if err != nil {
			return payment.WebhookEvent{}, errs.Mark(errs.Wrap(err, "cashfree webhook amount"), payment.ErrMalformedWebhook)
		}
		ev.Amount = &m
	}
	return ev, nil
}

func cashfreeTxnStatus(orderStatus string) (payment.TxnStatus, error) {
	switch orderStatus {
	case "PAID":
		return payment.TxnSuccess, nil
	case "ACTIVE":
		return payment.TxnPending, nil
	case "EXPIRED", "TERMINATED", "TERMINATION_REQUESTED":
		return payment.TxnFailed, nil
	default:
		return "", errs.Wrap(ErrUnexpectedStatus, "cashfree order status "+orderStatus)
	}
}

func (c *Cashfree) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errs.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errs.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-version", c.apiVersion)
	req.Header.Set("x-client-id", c.appID)
	req.Header.Set("x-client-secret", c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errs.Wrap(err, "read response")
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrOrderNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr cashfreeErrorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return fmt.Errorf("cashfree API error: %d %s %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Wrap(err, "decode response")
	}
	return nil
}
