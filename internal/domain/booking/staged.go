package booking

import (
	"errors"
	"time"

	"parcel-booking/internal/pkg/ptr"
)

var ErrNotStagedReference = errors.New("reference does not identify a staged booking")

// StagedBooking is a checkout snapshot persisted before payment, keyed by its merchant reference.
// Once resolved it points at the single Booking materialized from it.
type StagedBooking struct {
	reference         Reference
	userID            string
	details           Details
	resolvedBookingID *string
	purgeAfter        *time.Time
	createdAt         time.Time
}

func NewStagedBooking(ref Reference, userID string, details Details, now time.Time) (*StagedBooking, error) {
	if !ref.IsStaged() {
		return nil, ErrNotStagedReference
	}
	if !ref.IssuedTo(userID) {
		return nil, ErrInvalidUser
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}
	return &StagedBooking{
		reference: ref,
		userID:    userID,
		details:   details,
		createdAt: now,
	}, nil
}

func ReconstructStagedBooking(
	ref Reference,
	userID string,
	details Details,
	resolvedBookingID *string,
	purgeAfter *time.Time,
	createdAt time.Time,
) *StagedBooking {
	return &StagedBooking{
		reference:         ref,
		userID:            userID,
		details:           details,
		resolvedBookingID: resolvedBookingID,
		purgeAfter:        purgeAfter,
		createdAt:         createdAt,
	}
}

// Materialize builds the online booking awaiting payment confirmation. The fare is copied unchanged.
func (s *StagedBooking) Materialize(now time.Time) *Booking {
	ref := s.reference.String()
	return &Booking{
		userID:          s.userID,
		details:         s.details,
		status:          StatusPendingPayment,
		paymentStatus:   PaymentPending,
		paymentMethod:   MethodOnline,
		trackingNumber:  newTrackingNumber(),
		sourceReference: &ref,
		createdAt:       now,
		updatedAt:       now,
	}
}

// Resolve records the winning booking id. It is write-once.
func (s *StagedBooking) Resolve(bookingID string, purgeAfter time.Time) bool {
	if s.resolvedBookingID != nil {
		return false
	}
	s.resolvedBookingID = ptr.Of(bookingID)
	s.purgeAfter = &purgeAfter
	return true
}

func (s *StagedBooking) IsResolved() bool {
	return s.resolvedBookingID != nil
}

func (s *StagedBooking) Reference() Reference       { return s.reference }
func (s *StagedBooking) UserID() string             { return s.userID }
func (s *StagedBooking) Details() Details           { return s.details }
func (s *StagedBooking) Fare() Money                { return s.details.Fare }
func (s *StagedBooking) ResolvedBookingID() *string { return s.resolvedBookingID }
func (s *StagedBooking) PurgeAfter() *time.Time     { return s.purgeAfter }
func (s *StagedBooking) CreatedAt() time.Time       { return s.createdAt }
