package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/thefndrs/allons-api/internal/domain"
	"github.com/thefndrs/allons-api/internal/repository"
)

var (
	ErrReservationNotFound = repository.ErrReservationNotFound
	ErrCapacityExceeded    = repository.ErrCapacityExceeded
	ErrTicketsLocked       = repository.ErrTicketsLocked
	ErrInvalidQuantity     = errors.New("quantity must not be negative")
)

// txRetries bounds how often a contended reservation write is replayed
// before the conflict is surfaced to the caller.
const txRetries = 3

type EventCatalog interface {
	GetEvent(id string) *domain.Event
	ListEvents() []domain.Event
}

type ReservationRepository interface {
	Upsert(ctx context.Context, res domain.Reservation, capacity *int) (domain.Reservation, error)
	Delete(ctx context.Context, userID uint, eventID string) error
	FindByUserAndEvent(ctx context.Context, userID uint, eventID string) (domain.Reservation, error)
	SumQuantityForEvent(ctx context.Context, eventID string) (int, error)
}

type ReservationService struct {
	repo    ReservationRepository
	catalog EventCatalog
}

func NewReservationService(repo ReservationRepository, catalog EventCatalog) *ReservationService {
	return &ReservationService{
		repo:    repo,
		catalog: catalog,
	}
}

// UpsertReservation creates or replaces the caller's reservation for an
// event. Quantity zero cancels. The capacity ceiling comes from the event
// catalog; an event the catalog does not know gets no ceiling, so a catalog
// gap never blocks a booking.
func (s *ReservationService) UpsertReservation(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	if res.Quantity < 0 {
		return domain.Reservation{}, ErrInvalidQuantity
	}

	if res.Quantity == 0 {
		err := s.CancelReservation(ctx, res.UserID, res.EventID)
		if err != nil && !errors.Is(err, repository.ErrReservationNotFound) {
			return domain.Reservation{}, err
		}

		return domain.Reservation{UserID: res.UserID, EventID: res.EventID}, nil
	}

	capacity := s.eventCapacity(res.EventID)

	var (
		saved domain.Reservation
		err   error
	)
	for attempt := 0; attempt < txRetries; attempt++ {
		saved, err = s.repo.Upsert(ctx, res, capacity)
		if !errors.Is(err, repository.ErrTxConflict) {
			break
		}
		zap.L().Debug("reservation upsert conflicted, retrying",
			zap.String("event_id", res.EventID),
			zap.Uint("user_id", res.UserID),
			zap.Int("attempt", attempt+1))
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("s.repo.Upsert -> %w", err)
	}

	return saved, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, userID uint, eventID string) (domain.Reservation, error) {
	res, err := s.repo.FindByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("s.repo.FindByUserAndEvent -> %w", err)
	}

	return res, nil
}

func (s *ReservationService) CancelReservation(ctx context.Context, userID uint, eventID string) error {
	var err error
	for attempt := 0; attempt < txRetries; attempt++ {
		err = s.repo.Delete(ctx, userID, eventID)
		if !errors.Is(err, repository.ErrTxConflict) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *ReservationService) GetEvent(ctx context.Context, id string) *domain.Event {
	return s.catalog.GetEvent(id)
}

func (s *ReservationService) ListEvents(ctx context.Context) []domain.Event {
	return s.catalog.ListEvents()
}

// RemainingCapacity reports how many seats an event still has, or nil when
// the event is uncapped or unknown.
func (s *ReservationService) RemainingCapacity(ctx context.Context, eventID string) (*int, error) {
	capacity := s.eventCapacity(eventID)
	if capacity == nil {
		return nil, nil
	}

	reserved, err := s.repo.SumQuantityForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.SumQuantityForEvent -> %w", err)
	}

	remaining := *capacity - reserved
	if remaining < 0 {
		remaining = 0
	}

	return &remaining, nil
}

func (s *ReservationService) eventCapacity(eventID string) *int {
	event := s.catalog.GetEvent(eventID)
	if event == nil {
		return nil
	}

	return event.Capacity
}
