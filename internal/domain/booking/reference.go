package booking

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMalformedReference = errors.New("malformed merchant reference")
	ErrReferenceTooLong   = errors.New("merchant reference exceeds gateway limit")
)

const (
	stagedPrefix = "temp-"
	// MaxReferenceLength is the tightest provider limit: Razorpay reference_id (40).
	// Cashfree order_id allows 45.
	MaxReferenceLength = 40

	// temp- + 13 digit unix ms + 6 digit sub-ms nanos + separators leave 14 for the user.
	maxUserTag  = MaxReferenceLength - len(stagedPrefix) - 13 - 6 - 2
	userHashLen = 12
)

type ReferenceKind int

const (
	// ReferenceStaged keys a not-yet-materialized booking: temp-{userId}-{ts1}-{ts2}
	ReferenceStaged ReferenceKind = iota + 1
	// ReferenceDirect keys an existing booking: {bookingId}-{ts}
	ReferenceDirect
)

// Reference is the merchant reference sent to the gateway and echoed back by both confirmation channels.
type Reference struct {
	raw       string
	kind      ReferenceKind
	userTag   string
	bookingID string
}

func NewStagedReference(userID string, now time.Time) (Reference, error) {
	if userID == "" {
		return Reference{}, ErrInvalidUser
	}
	tag := UserTag(userID)
	raw := fmt.Sprintf("%s%s-%d-%d", stagedPrefix, tag, now.UnixMilli(), now.Nanosecond()%1_000_000)
	if len(raw) > MaxReferenceLength {
		return Reference{}, fmt.Errorf("%w: %q", ErrReferenceTooLong, raw)
	}
	return Reference{raw: raw, kind: ReferenceStaged, userTag: tag}, nil
}

func NewDirectReference(bookingID string, now time.Time) (Reference, error) {
	if bookingID == "" {
		return Reference{}, ErrMalformedReference
	}
	raw := fmt.Sprintf("%s-%d", bookingID, now.UnixMilli())
	if len(raw) > MaxReferenceLength {
		return Reference{}, fmt.Errorf("%w: %q", ErrReferenceTooLong, raw)
	}
	return Reference{raw: raw, kind: ReferenceDirect, bookingID: bookingID}, nil
}

// UserTag is the user segment of a staged reference. Short ids are used as is; longer ones
// (uuids, emails) are replaced by a 12 hex digit sha256 prefix.
func UserTag(userID string) string {
	if len(userID) <= maxUserTag && isTagSafe(userID) {
		return userID
	}
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])[:userHashLen]
}

func isTagSafe(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// ParseReference classifies a merchant reference. User and booking ids may themselves contain '-',
// so the trailing timestamp segments are peeled from the right.
func ParseReference(s string) (Reference, error) {
	if s == "" || len(s) > MaxReferenceLength {
		return Reference{}, ErrMalformedReference
	}

	if strings.HasPrefix(s, stagedPrefix) {
		rest, ts2, ok := cutLastNumeric(s[len(stagedPrefix):])
		if !ok || ts2 == "" {
			return Reference{}, ErrMalformedReference
		}
		tag, _, ok := cutLastNumeric(rest)
		if !ok || tag == "" {
			return Reference{}, ErrMalformedReference
		}
		return Reference{raw: s, kind: ReferenceStaged, userTag: tag}, nil
	}

	bookingID, _, ok := cutLastNumeric(s)
	if !ok || bookingID == "" {
		return Reference{}, ErrMalformedReference
	}
	return Reference{raw: s, kind: ReferenceDirect, bookingID: bookingID}, nil
}

func cutLastNumeric(s string) (head, tail string, ok bool) {
	idx := strings.LastIndexByte(s, '-')
	if idx < 0 {
		return "", "", false
	}
	head, tail = s[:idx], s[idx+1:]
	if tail == "" {
		return "", "", false
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return "", "", false
		}
	}
	return head, tail, true
}

func (r Reference) String() string      { return r.raw }
func (r Reference) Kind() ReferenceKind { return r.kind }
func (r Reference) IsStaged() bool      { return r.kind == ReferenceStaged }
func (r Reference) IsDirect() bool      { return r.kind == ReferenceDirect }

// UserTag is set for staged references only.
func (r Reference) UserTag() string { return r.userTag }

// IssuedTo reports whether a staged reference was generated for userID.
func (r Reference) IssuedTo(userID string) bool {
	return r.IsStaged() && userID != "" && r.userTag == UserTag(userID)
}

// BookingID is set for direct references only.
func (r Reference) BookingID() string { return r.bookingID }
