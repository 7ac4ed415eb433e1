//go:build e2e

package e2e

import (
	"context"
	"sync"
	"sync/atomic"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/usecase/commands"
)

// FakeGateway stands in for the hosted payment provider. Orders start PENDING with the amount
// they were created for; tests move them to SUCCESS or FAILED with Settle.
type FakeGateway struct {
	mu     sync.Mutex
	orders map[string]*payment.StatusRecord
	checks atomic.Int64
}

var _ commands.PaymentGateway = (*FakeGateway)(nil)

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{orders: map[string]*payment.StatusRecord{}}
}

func (g *FakeGateway) CreatePaymentPage(_ context.Context, req payment.PageRequest) (*payment.Page, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[req.Reference.String()] = &payment.StatusRecord{
		TxnStatus:          payment.TxnPending,
		Amount:             req.Amount,
		GatewayReferenceID: "fake_" + req.Reference.String(),
	}
	return &payment.Page{
		URL:                "https://pay.example.test/checkout/" + req.Reference.String(),
		GatewayReferenceID: "fake_" + req.Reference.String(),
	}, nil
}

func (g *FakeGateway) CheckStatus(_ context.Context, ref booking.Reference) (*payment.StatusRecord, error) {
	g.checks.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.orders[ref.String()]
	if !ok {
		return &payment.StatusRecord{TxnStatus: payment.TxnPending}, nil
	}
	out := *rec
	return &out, nil
}

func (g *FakeGateway) Settle(ref string, status payment.TxnStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rec, ok := g.orders[ref]; ok {
		rec.TxnStatus = status
	}
}

// SettleAmount overrides the amount the gateway reports as paid.
func (g *FakeGateway) SettleAmount(ref string, status payment.TxnStatus, amount booking.Money) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[ref] = &payment.StatusRecord{TxnStatus: status, Amount: amount, GatewayReferenceID: "fake_" + ref}
}

func (g *FakeGateway) Checks() int64 {
	return g.checks.Load()
}

func (g *FakeGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = map[string]*payment.StatusRecord{}
	g.checks.Store(0)
}
