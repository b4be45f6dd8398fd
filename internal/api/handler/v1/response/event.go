package response

import "github.com/thefndrs/allons-api/internal/domain"

type EventResponse struct {
	domain.Event

	// RemainingCapacity is omitted for uncapped events.
	RemainingCapacity *int `json:"remaining_capacity,omitempty"`
}
