//go:build unit

package booking_test

import (
	"testing"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/tests/common/builder"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var later = time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC)

func TestNewCODBooking(t *testing.T) {
	t.Run("基本成功ケース", func(t *testing.T) {
		b := builder.NewBookingBuilder()
		actual, err := booking.NewCODBooking(b.UserID, b.BuildDetails(), b.Now)
		require.NoError(t, err)

		assert.Equal(t, booking.StatusCreated, actual.Status())
		assert.Equal(t, booking.PaymentPending, actual.PaymentStatus())
		assert.Equal(t, booking.MethodCOD, actual.PaymentMethod())
		assert.Nil(t, actual.SourceReference())
		assert.Regexp(t, `^PB[0-9A-F]{10}$`, actual.TrackingNumber())
		if diff := cmp.Diff(b.BuildDetails(), actual.Details()); diff != "" {
			t.Errorf("Details mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("入力検証", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*builder.BookingBuilder)
			errIs  error
		}{
			{name: "ユーザーID空NG", mutate: func(b *builder.BookingBuilder) { b.UserID = " " }, errIs: booking.ErrInvalidUser},
			{name: "住所空NG", mutate: func(b *builder.BookingBuilder) { b.Pickup.Address = "" }, errIs: booking.ErrInvalidLocation},
			{name: "緯度範囲外NG", mutate: func(b *builder.BookingBuilder) { b.Drop.Latitude = 91 }, errIs: booking.ErrInvalidLocation},
			{name: "重量ゼロNG", mutate: func(b *builder.BookingBuilder) { b.Parcel.WeightGrams = 0 }, errIs: booking.ErrInvalidParcel},
			{name: "カテゴリ空NG", mutate: func(b *builder.BookingBuilder) { b.Parcel.Category = "" }, errIs: booking.ErrInvalidParcel},
			{name: "運賃ゼロNG", mutate: func(b *builder.BookingBuilder) { b.FareMinor = 0 }, errIs: booking.ErrInvalidFare},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				b := builder.NewBookingBuilder().With(tc.mutate)
				_, err := booking.NewCODBooking(b.UserID, b.BuildDetails(), b.Now)
				assert.ErrorIs(t, err, tc.errIs)
			})
		}
	})
}

func TestBookingMarkPaid(t *testing.T) {
	t.Run("支払待ち → 作成済み・支払済み", func(t *testing.T) {
		b := builder.NewBookingBuilder().BuildOnlinePending("b1")

		changed, err := b.MarkPaidOnline(later)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, booking.StatusCreated, b.Status())
		assert.Equal(t, booking.PaymentPaid, b.PaymentStatus())
		assert.Equal(t, later, b.UpdatedAt())
	})

	t.Run("二重の支払済みは冪等", func(t *testing.T) {
		b := builder.NewBookingBuilder().BuildOnlinePending("b1")
		_, err := b.MarkPaid(later)
		require.NoError(t, err)

		changed, err := b.MarkPaid(later.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, later, b.UpdatedAt(), "no-op must not touch the row")
	})

	t.Run("代引き予約のオンライン支払いは支払方法を切り替える", func(t *testing.T) {
		b := builder.NewBookingBuilder().BuildWithState("b2", booking.StatusPicked, booking.PaymentPending, booking.MethodCOD)

		changed, err := b.MarkPaidOnline(later)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, booking.StatusPicked, b.Status(), "lifecycle status is kept")
		assert.Equal(t, booking.MethodOnline, b.PaymentMethod())
	})

	t.Run("返金済みは支払済みに戻せない", func(t *testing.T) {
		b := builder.NewBookingBuilder().BuildWithState("b3", booking.StatusCreated, booking.PaymentRefunded, booking.MethodOnline)
		_, err := b.MarkPaid(later)
		assert.ErrorIs(t, err, booking.ErrInvalidPaymentTransition)
	})
}

func TestBookingPaymentTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    booking.PaymentStatus
		to      booking.PaymentStatus
		changed bool
		errIs   error
	}{
		{name: "pending → failed", from: booking.PaymentPending, to: booking.PaymentFailed, changed: true},
		{name: "failed → failed 冪等", from: booking.PaymentFailed, to: booking.PaymentFailed},
		{name: "failed → paid", from: booking.PaymentFailed, to: booking.PaymentPaid, changed: true},
		{name: "paid → failed NG", from: booking.PaymentPaid, to: booking.PaymentFailed, errIs: booking.ErrPaymentAlreadySettled},
		{name: "paid → refunded", from: booking.PaymentPaid, to: booking.PaymentRefunded, changed: true},
		{name: "pending → refunded NG", from: booking.PaymentPending, to: booking.PaymentRefunded, errIs: booking.ErrInvalidPaymentTransition},
		{name: "refunded → refunded 冪等", from: booking.PaymentRefunded, to: booking.PaymentRefunded},
		{name: "pending への変更 NG", from: booking.PaymentFailed, to: booking.PaymentPending, errIs: booking.ErrInvalidPaymentTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := builder.NewBookingBuilder().BuildWithState("b1", booking.StatusCreated, tc.from, booking.MethodOnline)
			changed, err := b.AdvancePayment(tc.to, later)
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
				assert.Equal(t, tc.from, b.PaymentStatus())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.changed, changed)
			assert.Equal(t, tc.to, b.PaymentStatus())
		})
	}
}

func TestBookingLifecycle(t *testing.T) {
	cases := []struct {
		name  string
		from  booking.Status
		to    booking.Status
		errIs error
	}{
		{name: "created → picked", from: booking.StatusCreated, to: booking.StatusPicked},
		{name: "picked → shipped", from: booking.StatusPicked, to: booking.StatusShipped},
		{name: "shipped → delivered", from: booking.StatusShipped, to: booking.StatusDelivered},
		{name: "shipped → returned", from: booking.StatusShipped, to: booking.StatusReturned},
		{name: "created → cancelled", from: booking.StatusCreated, to: booking.StatusCancelled},
		{name: "pending_payment → cancelled", from: booking.StatusPendingPayment, to: booking.StatusCancelled},
		{name: "pending_payment → created は支払い経由のみ", from: booking.StatusPendingPayment, to: booking.StatusCreated, errIs: booking.ErrPaymentRequired},
		{name: "created → shipped 飛び越しNG", from: booking.StatusCreated, to: booking.StatusShipped, errIs: booking.ErrInvalidStatusTransition},
		{name: "delivered → cancelled 終端NG", from: booking.StatusDelivered, to: booking.StatusCancelled, errIs: booking.ErrInvalidStatusTransition},
		{name: "shipped → picked 逆行NG", from: booking.StatusShipped, to: booking.StatusPicked, errIs: booking.ErrInvalidStatusTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := builder.NewBookingBuilder().BuildWithState("b1", tc.from, booking.PaymentPaid, booking.MethodOnline)
			changed, err := b.AdvanceTo(tc.to, later)
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
				assert.Equal(t, tc.from, b.Status())
				return
			}
			require.NoError(t, err)
			assert.True(t, changed)
			assert.Equal(t, tc.to, b.Status())
		})
	}

	t.Run("同じ状態への遷移は変更なし", func(t *testing.T) {
		b := builder.NewBookingBuilder().BuildWithState("b1", booking.StatusShipped, booking.PaymentPaid, booking.MethodOnline)
		changed, err := b.AdvanceTo(booking.StatusShipped, later)
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestCheckPayableOnline(t *testing.T) {
	cases := []struct {
		name    string
		status  booking.Status
		payment booking.PaymentStatus
		ok      bool
	}{
		{name: "未払いOK", status: booking.StatusCreated, payment: booking.PaymentPending, ok: true},
		{name: "失敗後の再試行OK", status: booking.StatusPicked, payment: booking.PaymentFailed, ok: true},
		{name: "支払済みNG", status: booking.StatusCreated, payment: booking.PaymentPaid},
		{name: "キャンセル済みNG", status: booking.StatusCancelled, payment: booking.PaymentPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := builder.NewBookingBuilder().BuildWithState("b1", tc.status, tc.payment, booking.MethodCOD)
			err := b.CheckPayableOnline()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, booking.ErrNotPayable)
			}
		})
	}
}
