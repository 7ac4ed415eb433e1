package booking

import (
	"errors"
	"strings"
)

var (
	ErrInvalidLocation = errors.New("invalid location")
	ErrInvalidParcel   = errors.New("invalid parcel details")
	ErrInvalidFare     = errors.New("fare must be positive")
)

const MaxAddressLength = 512

type Location struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Validate() error {
	addr := strings.TrimSpace(l.Address)
	if addr == "" || len(addr) > MaxAddressLength {
		return ErrInvalidLocation
	}
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return ErrInvalidLocation
	}
	return nil
}

type ParcelDetails struct {
	WeightGrams int    `json:"weightGrams"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Fragile     bool   `json:"fragile"`
}

func (p ParcelDetails) Validate() error {
	if p.WeightGrams <= 0 || strings.TrimSpace(p.Category) == "" {
		return ErrInvalidParcel
	}
	return nil
}

// Details is the user-supplied part of a booking, shared by staged and materialized records.
type Details struct {
	Pickup     Location
	Drop       Location
	Parcel     ParcelDetails
	Fare       Money
	CouponCode *string
}

func (d Details) Validate() error {
	if err := d.Pickup.Validate(); err != nil {
		return err
	}
	if err := d.Drop.Validate(); err != nil {
		return err
	}
	if err := d.Parcel.Validate(); err != nil {
		return err
	}
	if !d.Fare.IsPositive() {
		return ErrInvalidFare
	}
	return nil
}
