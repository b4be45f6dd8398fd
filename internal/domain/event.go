package domain

// Event is catalog data, read-only for this service. A nil Capacity means
// the event has no ceiling on total reserved quantity.
type Event struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Organizer string   `json:"organizer"`
	Venue     string   `json:"venue"`
	Date      string   `json:"date"`
	Time      string   `json:"time"`
	Price     float64  `json:"price"`
	Capacity  *int     `json:"capacity,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}
