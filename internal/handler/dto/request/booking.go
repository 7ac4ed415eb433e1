package request

import (
	"encoding/json"
	"strings"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/domain/payment"
	"parcel-booking/internal/pkg/ptr"
)

type LocationRequest struct {
	Address   string  `json:"address" binding:"required,max=512"`
	Latitude  float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"gte=-180,lte=180"`
}

func (r LocationRequest) ToDomain() booking.Location {
	return booking.Location{
		Address:   strings.TrimSpace(r.Address),
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

type ParcelRequest struct {
	WeightGrams int    `json:"weightGrams" binding:"required,gt=0"`
	Category    string `json:"category" binding:"required"`
	Description string `json:"description,omitempty"`
	Fragile     bool   `json:"fragile"`
}

type CustomerRequest struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty" binding:"omitempty,email"`
}

func (r *CustomerRequest) ToDomain() payment.Customer {
	if r == nil {
		return payment.Customer{}
	}
	return payment.Customer{
		Name:  strings.TrimSpace(r.Name),
		Phone: strings.TrimSpace(r.Phone),
		Email: strings.TrimSpace(r.Email),
	}
}

// CreateBookingRequest is shared by online checkout and cash-on-delivery bookings.
// Fare is a decimal amount in major units ("250.00"); numbers and strings are both accepted.
type CreateBookingRequest struct {
	Pickup     LocationRequest  `json:"pickup"`
	Drop       LocationRequest  `json:"drop"`
	Parcel     ParcelRequest    `json:"parcel"`
	Fare       json.Number      `json:"fare" binding:"required"`
	CouponCode *string          `json:"couponCode,omitempty"`
	Customer   *CustomerRequest `json:"customer,omitempty"`
}

func (r CreateBookingRequest) GetCouponCode() *string {
	if r.CouponCode == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*r.CouponCode)
	if trimmed == "" {
		return nil
	}
	return ptr.Of(trimmed)
}

func (r CreateBookingRequest) ToDomain() (booking.Details, error) {
	fare, err := booking.ParseMoney(r.Fare.String())
	if err != nil {
		return booking.Details{}, err
	}
	details := booking.Details{
		Pickup: r.Pickup.ToDomain(),
		Drop:   r.Drop.ToDomain(),
		Parcel: booking.ParcelDetails{
			WeightGrams: r.Parcel.WeightGrams,
			Category:    strings.TrimSpace(r.Parcel.Category),
			Description: strings.TrimSpace(r.Parcel.Description),
			Fragile:     r.Parcel.Fragile,
		},
		Fare:       fare,
		CouponCode: r.GetCouponCode(),
	}
	if err := details.Validate(); err != nil {
		return booking.Details{}, err
	}
	return details, nil
}

type PayBookingRequest struct {
	Customer *CustomerRequest `json:"customer,omitempty"`
}

type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AdvancePaymentRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}
