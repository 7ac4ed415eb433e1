//go:build unit

package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLinks struct {
	created map[string]interface{}
	query   map[string]interface{}
	out     map[string]interface{}
	err     error
	delay   time.Duration
}

func (f *fakeLinks) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.created = data
	return f.out, f.err
}

func (f *fakeLinks) All(query map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.query = query
	time.Sleep(f.delay)
	return f.out, f.err
}

func newTestRazorpay(links *fakeLinks) *Razorpay {
	cfg := config.NewTestConfig().Gateway
	cfg.RazorpayWebhookSecret = "whsec"
	return newRazorpay(links, cfg, "https://api.parcel.test/")
}

func TestRazorpay_CreatePaymentPage(t *testing.T) {
	ref := mustRef(t, "temp-u1-100-100")
	fare, _ := booking.NewMoney(25000)

	t.Run("支払リンク作成", func(t *testing.T) {
		links := &fakeLinks{out: map[string]interface{}{"id": "plink_1", "short_url": "https://rzp.io/i/abc"}}
		page, err := newTestRazorpay(links).CreatePaymentPage(context.Background(), payment.PageRequest{
			Reference: ref,
			Amount:    fare,
			Customer:  payment.Customer{Name: "Asha", Phone: "9999999999"},
		})
		require.NoError(t, err)
		assert.Equal(t, "https://rzp.io/i/abc", page.URL)
		assert.Equal(t, "plink_1", page.GatewayReferenceID)

		assert.Equal(t, int64(25000), links.created["amount"])
		assert.Equal(t, ref.String(), links.created["reference_id"])
		assert.Equal(t, "https://api.parcel.test/payments/success?merchantRefId="+ref.String(), links.created["callback_url"])
	})

	t.Run("SDKエラー", func(t *testing.T) {
		links := &fakeLinks{err: errors.New("BAD_REQUEST_ERROR")}
		_, err := newTestRazorpay(links).CreatePaymentPage(context.Background(), payment.PageRequest{Reference: ref, Amount: fare})
		assert.Error(t, err)
	})
}

func TestRazorpay_CheckStatus(t *testing.T) {
	ref := mustRef(t, "temp-u1-100-100")

	link := func(status string, amount, paid float64) map[string]interface{} {
		return map[string]interface{}{"payment_links": []interface{}{
			map[string]interface{}{"id": "plink_1", "status": status, "amount": amount, "amount_paid": paid},
		}}
	}

	tests := []struct {
		name      string
		out       map[string]interface{}
		want      payment.TxnStatus
		wantMinor int64
	}{
		{name: "paid → SUCCESS (支払額)", out: link("paid", 25000, 25000), want: payment.TxnSuccess, wantMinor: 25000},
		{name: "issued → PENDING", out: link("issued", 25000, 0), want: payment.TxnPending, wantMinor: 25000},
		{name: "partially_paid → PENDING", out: link("partially_paid", 25000, 100), want: payment.TxnPending, wantMinor: 25000},
		{name: "expired → FAILED", out: link("expired", 25000, 0), want: payment.TxnFailed, wantMinor: 25000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			links := &fakeLinks{out: tc.out}
			rec, err := newTestRazorpay(links).CheckStatus(context.Background(), ref)
			require.NoError(t, err)
			assert.Equal(t, tc.want, rec.TxnStatus)
			assert.Equal(t, tc.wantMinor, rec.Amount.Minor())
			assert.Equal(t, ref.String(), links.query["reference_id"])
		})
	}

	t.Run("リンクなし", func(t *testing.T) {
		links := &fakeLinks{out: map[string]interface{}{"payment_links": []interface{}{}}}
		_, err := newTestRazorpay(links).CheckStatus(context.Background(), ref)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("未知の状態", func(t *testing.T) {
		links := &fakeLinks{out: link("refunded_somehow", 1, 1)}
		_, err := newTestRazorpay(links).CheckStatus(context.Background(), ref)
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	})

	t.Run("SDK呼び出しをctxで打ち切る", func(t *testing.T) {
		links := &fakeLinks{out: link("paid", 1, 1), delay: 200 * time.Millisecond}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := newTestRazorpay(links).CheckStatus(ctx, ref)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRazorpay_VerifyWebhook(t *testing.T) {
	rp := newTestRazorpay(&fakeLinks{})
	body := []byte(`{"event":"payment_link.paid"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	t.Run("正しい署名", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-Razorpay-Signature", signature)
		assert.NoError(t, rp.VerifyWebhook(h, body))
	})

	t.Run("不正な署名", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-Razorpay-Signature", "deadbeef")
		assert.ErrorIs(t, rp.VerifyWebhook(h, body), ErrInvalidSignature)
	})

	t.Run("署名なし", func(t *testing.T) {
		assert.ErrorIs(t, rp.VerifyWebhook(http.Header{}, body), ErrInvalidSignature)
	})
}

func TestRazorpay_ParseWebhook(t *testing.T) {
	rp := newTestRazorpay(&fakeLinks{})
	body := func(event, ref string) []byte {
		return []byte(`{"entity":"event","event":"` + event + `","payload":{"payment_link":{"entity":` +
			`{"id":"plink_1","reference_id":"` + ref + `","amount":25000,"amount_paid":24000,"status":"paid"}}}}`)
	}

	t.Run("支払完了は支払額を使う", func(t *testing.T) {
		ev, err := rp.ParseWebhook(body("payment_link.paid", "temp-u1-100-100"))
		require.NoError(t, err)
		assert.Equal(t, payment.TxnSuccess, ev.TxnStatus)
		assert.Equal(t, "temp-u1-100-100", ev.MerchantReferenceID)
		assert.Equal(t, "plink_1", ev.GatewayReferenceID)
		require.NotNil(t, ev.Amount)
		assert.Equal(t, int64(24000), ev.Amount.Minor())
	})

	cases := []struct {
		event  string
		status payment.TxnStatus
	}{
		{event: "payment_link.partially_paid", status: payment.TxnPending},
		{event: "payment_link.expired", status: payment.TxnFailed},
		{event: "payment_link.cancelled", status: payment.TxnFailed},
	}
	for _, tc := range cases {
		t.Run(tc.event, func(t *testing.T) {
			ev, err := rp.ParseWebhook(body(tc.event, "b1-100"))
			require.NoError(t, err)
			assert.Equal(t, tc.status, ev.TxnStatus)
			require.NotNil(t, ev.Amount)
			assert.Equal(t, int64(25000), ev.Amount.Minor())
		})
	}

	t.Run("リンク以外のイベントは無視", func(t *testing.T) {
		_, err := rp.ParseWebhook(body("payment.captured", "b1-100"))
		assert.ErrorIs(t, err, payment.ErrIgnoredEvent)
	})

	t.Run("reference_idなし", func(t *testing.T) {
		_, err := rp.ParseWebhook(body("payment_link.paid", ""))
		assert.ErrorIs(t, err, payment.ErrMalformedWebhook)
	})

	t.Run("eventなし", func(t *testing.T) {
		_, err := rp.ParseWebhook([]byte(`{"payload":{}}`))
		assert.ErrorIs(t, err, payment.ErrMalformedWebhook)
	})

	t.Run("JSONでない", func(t *testing.T) {
		_, err := rp.ParseWebhook([]byte(`not json`))
		assert.ErrorIs(t, err, payment.ErrMalformedWebhook)
	})
}
