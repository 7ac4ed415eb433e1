//go:build unit

package booking_test

import (
	"strings"
	"testing"
	"time"

	"parcel-booking/internal/domain/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	t.Run("一時参照", func(t *testing.T) {
		cases := []struct {
			name   string
			raw    string
			userID string
		}{
			{name: "基本形", raw: "temp-u42-1700000000000-123", userID: "u42"},
			{name: "ハイフンを含むユーザーID", raw: "temp-user-7f3a-1700000000000-0", userID: "user-7f3a"},
			{name: "数字だけのユーザーID", raw: "temp-42-1700000000000-999999", userID: "42"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				ref, err := booking.ParseReference(tc.raw)
				require.NoError(t, err)
				assert.True(t, ref.IsStaged())
				assert.False(t, ref.IsDirect())
				assert.Equal(t, tc.userID, ref.UserTag())
				assert.True(t, ref.IssuedTo(tc.userID))
				assert.Empty(t, ref.BookingID())
				assert.Equal(t, tc.raw, ref.String())
			})
		}
	})

	t.Run("直接参照", func(t *testing.T) {
		cases := []struct {
			name      string
			raw       string
			bookingID string
		}{
			{name: "基本形", raw: "b123-1700000000000", bookingID: "b123"},
			{name: "ハイフンを含む予約ID", raw: "0b9f-1c2e4d1a-1700000000000", bookingID: "0b9f-1c2e4d1a"},
			{name: "生成される予約ID", raw: "9f3a61c0b2d84e17-1700000000000", bookingID: "9f3a61c0b2d84e17"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				ref, err := booking.ParseReference(tc.raw)
				require.NoError(t, err)
				assert.True(t, ref.IsDirect())
				assert.Equal(t, tc.bookingID, ref.BookingID())
				assert.Empty(t, ref.UserTag())
			})
		}
	})

	t.Run("不正な参照", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"temp-",
			"temp-u42",
			"temp-u42-abc-1",
			"temp--1700000000000-1",
			"b123",
			"b123-",
			"-1700000000000",
			"b123-17000x",
			strings.Repeat("a", booking.MaxReferenceLength) + "-1",
			"0b9f1c2e-4d1a-4c55-9a61-3f2b8e0d7c11-1700000000000",
		} {
			t.Run(raw, func(t *testing.T) {
				_, err := booking.ParseReference(raw)
				assert.ErrorIs(t, err, booking.ErrMalformedReference)
			})
		}
	})

	t.Run("生成した参照は往復で同じ意味になる", func(t *testing.T) {
		now := time.Date(2025, 3, 14, 10, 30, 0, 123456789, time.UTC)

		staged, err := booking.NewStagedReference("user-9", now)
		require.NoError(t, err)
		assert.Equal(t, "temp-user-9-1741948200123-456789", staged.String())
		parsed, err := booking.ParseReference(staged.String())
		require.NoError(t, err)
		assert.True(t, parsed.IsStaged())
		assert.Equal(t, "user-9", parsed.UserTag())
		assert.True(t, parsed.IssuedTo("user-9"))

		direct, err := booking.NewDirectReference("b77", now)
		require.NoError(t, err)
		parsed, err = booking.ParseReference(direct.String())
		require.NoError(t, err)
		assert.True(t, parsed.IsDirect())
		assert.Equal(t, "b77", parsed.BookingID())
	})

	t.Run("UUIDのユーザーはゲートウェイ上限に収まる", func(t *testing.T) {
		const userID = "6f1c2a9e-3b7d-4e21-9c4a-0d5e8f7b1a23"
		now := time.Date(2286, 11, 20, 17, 46, 39, 999999999, time.UTC)

		ref, err := booking.NewStagedReference(userID, now)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(ref.String()), booking.MaxReferenceLength)
		assert.LessOrEqual(t, len(ref.String()), 40, "Razorpay reference_id")
		assert.NotContains(t, ref.String(), userID)

		parsed, err := booking.ParseReference(ref.String())
		require.NoError(t, err)
		assert.True(t, parsed.IsStaged())
		assert.Len(t, parsed.UserTag(), 12)
		assert.True(t, parsed.IssuedTo(userID))
		assert.False(t, parsed.IssuedTo("6f1c2a9e-3b7d-4e21-9c4a-0d5e8f7b1a24"))
	})

	t.Run("長すぎる予約IDでは直接参照を作らない", func(t *testing.T) {
		now := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

		_, err := booking.NewDirectReference("0b9f1c2e-4d1a-4c55-9a61-3f2b8e0d7c11", now)
		assert.ErrorIs(t, err, booking.ErrReferenceTooLong)

		ref, err := booking.NewDirectReference("9f3a61c0b2d84e17", now)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(ref.String()), booking.MaxReferenceLength)
	})

	t.Run("メールアドレス形式のユーザーはハッシュ化", func(t *testing.T) {
		assert.Equal(t, "u42", booking.UserTag("u42"))
		tag := booking.UserTag("asha@example.com")
		assert.Len(t, tag, 12)
		assert.Equal(t, tag, booking.UserTag("asha@example.com"))
	})
}
