package domain

import "time"

// Reservation is a user's requested ticket quantity for one event. There is
// at most one per (user, event) pair; edits overwrite it in place.
type Reservation struct {
	ID               uint      `json:"id"`
	UserID           uint      `json:"user_id"`
	EventID          string    `json:"event_id"`
	Quantity         int       `json:"quantity"`
	TicketHolderName string    `json:"ticket_holder_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
