//go:build unit || e2e

package dbtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// counts bookings materialized from a merchant reference
func CountBookingsBySource(t *testing.T, db DBLike, ref string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM bookings WHERE source_reference = $1", ref).Scan(&n)
	require.NoError(t, err)
	return n
}

type BookingState struct {
	ID            string
	Status        string
	PaymentStatus string
	PaymentMethod string
}

func GetBookingBySource(t *testing.T, db DBLike, ref string) BookingState {
	t.Helper()

	var st BookingState
	err := db.QueryRow(context.Background(),
		"SELECT id, status, payment_status, payment_method FROM bookings WHERE source_reference = $1", ref).
		Scan(&st.ID, &st.Status, &st.PaymentStatus, &st.PaymentMethod)
	require.NoError(t, err)
	return st
}

func GetBooking(t *testing.T, db DBLike, id string) BookingState {
	t.Helper()

	st := BookingState{ID: id}
	err := db.QueryRow(context.Background(),
		"SELECT status, payment_status, payment_method FROM bookings WHERE id = $1", id).
		Scan(&st.Status, &st.PaymentStatus, &st.PaymentMethod)
	require.NoError(t, err)
	return st
}

// returns the resolved booking id of a staged record; exists is false once it has been deleted
func GetStaged(t *testing.T, db DBLike, ref string) (resolvedBookingID *string, exists bool) {
	t.Helper()

	err := db.QueryRow(context.Background(),
		"SELECT resolved_booking_id FROM staged_bookings WHERE merchant_reference_id = $1", ref).
		Scan(&resolvedBookingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false
	}
	require.NoError(t, err)
	return resolvedBookingID, true
}

// counts outbox jobs carrying the given booking id
func CountNotificationJobs(t *testing.T, db DBLike, bookingID string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM notification_jobs WHERE payload->>'booking_id' = $1", bookingID).Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
