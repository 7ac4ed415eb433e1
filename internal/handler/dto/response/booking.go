package response

import (
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/usecase/queries"
)

type BookingResponse struct {
	ID              string                `json:"id"`
	UserID          string                `json:"userId"`
	Pickup          booking.Location      `json:"pickup"`
	Drop            booking.Location      `json:"drop"`
	Parcel          booking.ParcelDetails `json:"parcel"`
	Fare            string                `json:"fare"`
	FareMinor       int64                 `json:"fareMinor"`
	Currency        string                `json:"currency"`
	CouponCode      *string               `json:"couponCode,omitempty"`
	Status          string                `json:"status"`
	PaymentStatus   string                `json:"paymentStatus"`
	PaymentMethod   string                `json:"paymentMethod"`
	TrackingNumber  string                `json:"trackingNumber"`
	SourceReference *string               `json:"sourceReference,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

type BookingListResponse struct {
	ID             string    `json:"id"`
	Fare           string    `json:"fare"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"paymentStatus"`
	PaymentMethod  string    `json:"paymentMethod"`
	TrackingNumber string    `json:"trackingNumber"`
	CreatedAt      time.Time `json:"createdAt"`
}

type BookingPageResponse struct {
	Items      []*BookingListResponse `json:"items"`
	NextCursor *string                `json:"nextCursor,omitempty"`
}

type CreatedBookingResponse struct {
	ID string `json:"id"`
}

type CheckoutResponse struct {
	MerchantReferenceID string `json:"merchantRefId"`
	PaymentURL          string `json:"paymentUrl"`
}

func FromBookingView(v *queries.BookingView) *BookingResponse {
	return &BookingResponse{
		ID:              v.ID,
		UserID:          v.UserID,
		Pickup:          v.Pickup,
		Drop:            v.Drop,
		Parcel:          v.Parcel,
		Fare:            v.Fare,
		FareMinor:       v.FareMinor,
		Currency:        v.Currency,
		CouponCode:      v.CouponCode,
		Status:          v.Status,
		PaymentStatus:   v.PaymentStatus,
		PaymentMethod:   v.PaymentMethod,
		TrackingNumber:  v.TrackingNumber,
		SourceReference: v.SourceReference,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

func FromBookingListItem(item *queries.BookingListItem) *BookingListResponse {
	return &BookingListResponse{
		ID:             item.ID,
		Fare:           item.Fare,
		Status:         item.Status,
		PaymentStatus:  item.PaymentStatus,
		PaymentMethod:  item.PaymentMethod,
		TrackingNumber: item.TrackingNumber,
		CreatedAt:      item.CreatedAt,
	}
}

func FromBookingPage(items []*queries.BookingListItem, next *queries.Cursor) *BookingPageResponse {
	resp := &BookingPageResponse{Items: make([]*BookingListResponse, len(items))}
	for i, item := range items {
		resp.Items[i] = FromBookingListItem(item)
	}
	if next != nil {
		resp.NextCursor = &next.After
	}
	return resp
}
