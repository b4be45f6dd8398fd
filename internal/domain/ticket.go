package domain

import "time"

type TicketStatus string

const (
	TicketOwned       TicketStatus = "owned"
	TicketGiftPending TicketStatus = "gift_pending"
	TicketClaimed     TicketStatus = "claimed"
)

// ticketTransitions is the full set of legal status moves. Everything else,
// including any move out of claimed, is rejected at the data-access layer.
var ticketTransitions = map[TicketStatus]TicketStatus{
	TicketOwned:       TicketGiftPending,
	TicketGiftPending: TicketClaimed,
}

func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	return ticketTransitions[s] == next
}

// Ticket is an individually addressable reservation unit. PurchaserID never
// changes after creation; ownership moves through the gift/claim flow.
type Ticket struct {
	ID              uint         `json:"id"`
	ReservationID   uint         `json:"reservation_id"`
	EventID         string       `json:"event_id"`
	PurchaserID     uint         `json:"purchaser_id"`
	OwnerUserID     *uint        `json:"owner_user_id"`
	RecipientUserID *uint        `json:"recipient_user_id,omitempty"`
	RecipientEmail  string       `json:"recipient_email,omitempty"`
	Status          TicketStatus `json:"status"`
	GiftToken       string       `json:"-"`
	GiftedAt        *time.Time   `json:"gifted_at,omitempty"`
	ClaimedAt       *time.Time   `json:"claimed_at,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}
