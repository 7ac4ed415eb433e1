//go:build unit

package commands_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/pkg/clock"
	"parcel-booking/internal/pkg/errs"
	"parcel-booking/internal/usecase/commands"
	"parcel-booking/tests/common/builder"
	"parcel-booking/tests/common/memstore"
	commandsmock "parcel-booking/tests/mock/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newCheckout(t *testing.T) (commands.CheckoutCommands, *memstore.Store, *commandsmock.MockPaymentGateway, *clock.MockClock) {
	ctrl := gomock.NewController(t)
	store := memstore.New()
	gw := commandsmock.NewMockPaymentGateway(ctrl)
	clk := clock.NewMockClock(builder.NewBookingBuilder().Now)
	return commands.NewCheckoutUseCase(store, gw, clk), store, gw, clk
}

func TestCheckout_StartCheckout(t *testing.T) {
	ctx := context.Background()
	b := builder.NewBookingBuilder()

	t.Run("ステージング保存と決済ページ発行", func(t *testing.T) {
		uc, store, gw, clk := newCheckout(t)
		wantRef, err := booking.NewStagedReference("u42", clk.Now())
		require.NoError(t, err)
		gw.EXPECT().CreatePaymentPage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req payment.PageRequest) (*payment.Page, error) {
				assert.Equal(t, wantRef.String(), req.Reference.String())
				assert.True(t, req.Amount.Equal(b.Fare()))
				assert.Equal(t, "u42", req.Customer.ID)
				return &payment.Page{URL: "https://pay.example/p/1", GatewayReferenceID: "cf_1"}, nil
			})

		res, err := uc.StartCheckout(ctx, "u42", commands.CheckoutParams{
			Details:  b.BuildDetails(),
			Customer: payment.Customer{Name: "Asha", Phone: "9999999999"},
		})
		require.NoError(t, err)
		assert.Equal(t, wantRef.String(), res.MerchantReference)
		assert.Equal(t, "https://pay.example/p/1", res.PaymentURL)

		staged, ok := store.Staged(res.MerchantReference)
		require.True(t, ok)
		assert.False(t, staged.IsResolved())
		assert.Empty(t, store.Bookings(), "決済前は予約を作らない")
	})

	t.Run("決済ページ発行失敗でステージング破棄", func(t *testing.T) {
		uc, store, gw, clk := newCheckout(t)
		gw.EXPECT().CreatePaymentPage(gomock.Any(), gomock.Any()).Return(nil, errors.New("gateway 500"))

		_, err := uc.StartCheckout(ctx, "u42", commands.CheckoutParams{Details: b.BuildDetails()})
		assert.ErrorIs(t, err, commands.ErrPaymentPageFailed)

		ref, err := booking.NewStagedReference("u42", clk.Now())
		require.NoError(t, err)
		_, ok := store.Staged(ref.String())
		assert.False(t, ok)
	})

	t.Run("入力検証NG", func(t *testing.T) {
		uc, store, _, _ := newCheckout(t)
		details := builder.NewBookingBuilder().WithFare(0).BuildDetails()

		_, err := uc.StartCheckout(ctx, "u42", commands.CheckoutParams{Details: details})
		assert.ErrorIs(t, err, errs.ErrDomainValidation)
		assert.Zero(t, store.Commits())
	})
}

func TestCheckout_RetryOnlinePayment(t *testing.T) {
	ctx := context.Background()
	b := builder.NewBookingBuilder()

	t.Run("COD予約に直接参照で決済ページ発行", func(t *testing.T) {
		uc, store, gw, _ := newCheckout(t)
		store.PutBooking("b123", b.BuildCOD())
		gw.EXPECT().CreatePaymentPage(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req payment.PageRequest) (*payment.Page, error) {
				assert.True(t, req.Reference.IsDirect())
				assert.Equal(t, "b123", req.Reference.BookingID())
				return &payment.Page{URL: "https://pay.example/p/2"}, nil
			})

		res, err := uc.RetryOnlinePayment(ctx, "u42", "b123", payment.Customer{})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.MerchantReference, "b123-"))
		assert.Equal(t, "https://pay.example/p/2", res.PaymentURL)
	})

	t.Run("支払失敗後の再試行", func(t *testing.T) {
		uc, store, gw, _ := newCheckout(t)
		store.PutBooking("b9", b.BuildWithState("b9", booking.StatusCreated, booking.PaymentFailed, booking.MethodOnline))
		gw.EXPECT().CreatePaymentPage(gomock.Any(), gomock.Any()).Return(&payment.Page{URL: "https://pay.example/p/3"}, nil)

		_, err := uc.RetryOnlinePayment(ctx, "u42", "b9", payment.Customer{})
		assert.NoError(t, err)
	})

	tests := []struct {
		name  string
		seed  *booking.Booking
		user  string
		errIs error
	}{
		{name: "予約不在", user: "u42", errIs: commands.ErrBookingNotFound},
		{name: "他ユーザーの予約", seed: b.BuildCOD(), user: "u7", errIs: errs.ErrForbidden},
		{
			name:  "支払済み予約",
			seed:  b.BuildWithState("b1", booking.StatusCreated, booking.PaymentPaid, booking.MethodOnline),
			user:  "u42",
			errIs: commands.ErrBookingNotPayable,
		},
		{
			name:  "配達完了予約",
			seed:  b.BuildWithState("b1", booking.StatusDelivered, booking.PaymentPending, booking.MethodCOD),
			user:  "u42",
			errIs: commands.ErrBookingNotPayable,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uc, store, _, _ := newCheckout(t)
			if tc.seed != nil {
				store.PutBooking("b1", tc.seed)
			}
			_, err := uc.RetryOnlinePayment(ctx, tc.user, "b1", payment.Customer{})
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestCheckout_CreateCODBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("COD予約は作成済み・支払待ち", func(t *testing.T) {
		uc, store, _, _ := newCheckout(t)

		id, err := uc.CreateCODBooking(ctx, "u42", builder.NewBookingBuilder().BuildDetails())
		require.NoError(t, err)

		got, ok := store.Booking(id)
		require.True(t, ok)
		assert.Equal(t, booking.StatusCreated, got.Status())
		assert.Equal(t, booking.PaymentPending, got.PaymentStatus())
		assert.Equal(t, booking.MethodCOD, got.PaymentMethod())
		assert.Nil(t, got.SourceReference())
	})

	t.Run("入力検証NG", func(t *testing.T) {
		uc, _, _, _ := newCheckout(t)
		details := builder.NewBookingBuilder().BuildDetails()
		details.Pickup.Address = ""

		_, err := uc.CreateCODBooking(ctx, "u42", details)
		assert.ErrorIs(t, err, errs.ErrDomainValidation)
	})
}
