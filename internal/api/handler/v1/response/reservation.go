package response

import "github.com/thefndrs/allons-api/internal/domain"

// ReservationResponse is the reservation plus, when the request gifted
// tickets in the same call, the outcome of that batch.
type ReservationResponse struct {
	domain.Reservation

	GiftResults *GiftBatchResponse `json:"gift_results,omitempty"`
}
