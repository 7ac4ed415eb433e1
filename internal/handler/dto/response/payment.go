package response

import "parcel-booking/internal/usecase/commands"

type ConfirmResponse struct {
	MerchantReferenceID string  `json:"merchantRefId"`
	BookingID           *string `json:"bookingId"`
	Status              string  `json:"status"`
}

// WebhookResponse is always sent with 200 so the gateway does not retry on business outcomes.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func FromConfirmResult(r *commands.ConfirmResult) *ConfirmResponse {
	return &ConfirmResponse{
		MerchantReferenceID: r.MerchantReference,
		BookingID:           r.BookingID,
		Status:              r.Status.String(),
	}
}
