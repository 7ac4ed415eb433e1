//go:build unit

package booking_test

import (
	"testing"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagedBooking(t *testing.T) {
	t.Run("一時参照以外では作成できない", func(t *testing.T) {
		b := builder.NewBookingBuilder()
		direct, err := booking.NewDirectReference("b1", b.Now)
		require.NoError(t, err)
		_, err = booking.NewStagedBooking(direct, b.UserID, b.BuildDetails(), b.Now)
		assert.ErrorIs(t, err, booking.ErrNotStagedReference)
	})

	t.Run("別ユーザー向けの参照では作成できない", func(t *testing.T) {
		b := builder.NewBookingBuilder().WithUser("u1")
		_, err := booking.NewStagedBooking(b.StagedReference(), "u2", b.BuildDetails(), b.Now)
		assert.ErrorIs(t, err, booking.ErrInvalidUser)
	})

	t.Run("確定前は未解決", func(t *testing.T) {
		staged, ref := builder.NewBookingBuilder().BuildStaged()
		assert.False(t, staged.IsResolved())
		assert.Nil(t, staged.PurgeAfter())
		assert.True(t, ref.IssuedTo(staged.UserID()))
	})

	t.Run("具体化は運賃と詳細をそのまま引き継ぐ", func(t *testing.T) {
		b := builder.NewBookingBuilder()
		staged, ref := b.BuildStaged()

		mat := staged.Materialize(b.Now.Add(time.Second))
		assert.Equal(t, booking.StatusPendingPayment, mat.Status())
		assert.Equal(t, booking.PaymentPending, mat.PaymentStatus())
		assert.Equal(t, booking.MethodOnline, mat.PaymentMethod())
		assert.True(t, mat.Fare().Equal(staged.Fare()))
		assert.Equal(t, staged.UserID(), mat.UserID())
		require.NotNil(t, mat.SourceReference())
		assert.Equal(t, ref.String(), *mat.SourceReference())
	})

	t.Run("解決は一度だけ", func(t *testing.T) {
		b := builder.NewBookingBuilder()
		staged, _ := b.BuildStaged()
		purgeAt := b.Now.Add(time.Minute)

		assert.True(t, staged.Resolve("b1", purgeAt))
		assert.False(t, staged.Resolve("b2", purgeAt.Add(time.Hour)))
		require.NotNil(t, staged.ResolvedBookingID())
		assert.Equal(t, "b1", *staged.ResolvedBookingID())
		assert.Equal(t, purgeAt, *staged.PurgeAfter())
	})
}
