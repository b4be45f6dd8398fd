// Package catalog holds the curated event list. Events are editorial
// content managed with the codebase, not user data, so the catalog is
// read-only and in-process.
package catalog

import "github.com/thefndrs/allons-api/internal/domain"

type Catalog struct {
	events []domain.Event
	byID   map[string]*domain.Event
}

func New() *Catalog {
	return newWith(events)
}

// NewWith builds a catalog from an explicit event list. Used by tests and
// by deployments that override the curated list.
func NewWith(list []domain.Event) *Catalog {
	return newWith(list)
}

func newWith(list []domain.Event) *Catalog {
	c := &Catalog{
		events: list,
		byID:   make(map[string]*domain.Event, len(list)),
	}
	for i := range c.events {
		c.byID[c.events[i].ID] = &c.events[i]
	}

	return c
}

// GetEvent returns nil when the ID is unknown.
func (c *Catalog) GetEvent(id string) *domain.Event {
	return c.byID[id]
}

func (c *Catalog) ListEvents() []domain.Event {
	return c.events
}

func intPtr(v int) *int { return &v }

var events = []domain.Event{
	{
		ID:        "3",
		Title:     "Jeté Pilates On Mat",
		Organizer: "Jeté dance & fitness studio",
		Venue:     "UNITEC, Tegucigalpa, Honduras",
		Date:      "2026-02-24",
		Time:      "3:30 pm",
		Price:     0,
		Capacity:  intPtr(10),
		Tags:      []string{"Wellness", "Pilates", "Fitness"},
	},
	{
		ID:        "4",
		Title:     "EXPERIENCIA VR BIODIVERSIDAD MUNDIAL",
		Organizer: "Smart Rabbit HN",
		Venue:     "UNITEC, Tegucigalpa, Honduras",
		Date:      "2026-02-24",
		Time:      "3:30 pm",
		Price:     50,
		Tags:      []string{"VR", "Naturaleza", "Tecnología"},
	},
	{
		ID:        "5",
		Title:     "Capital Run Fest II",
		Organizer: "New Life Run Club",
		Venue:     "Hotel Clarion, Tegucigalpa, Honduras",
		Date:      "2026-04-19",
		Time:      "4:00 pm",
		Price:     600,
		Tags:      []string{"Deportes", "Comunidad", "Running"},
	},
	{
		ID:        "6",
		Title:     "Der Blitz",
		Organizer: "Der Blitz HN",
		Venue:     "Tegucigalpa, Honduras",
		Date:      "2026-03-27",
		Time:      "8:00 pm",
		Price:     250,
		Tags:      []string{"Música", "Nocturno"},
	},
}
