package repository

import (
	"context"
	"fmt"

	"github.com/thefndrs/allons-api/internal/domain"
	"github.com/thefndrs/allons-api/internal/repository/dao"
)

var (
	ErrReservationNotFound = dao.ErrReservationNotFound
	ErrCapacityExceeded    = dao.ErrCapacityExceeded
	ErrTicketsLocked       = dao.ErrTicketsLocked
	ErrTxConflict          = dao.ErrTxConflict
)

type ReservationDAO interface {
	Upsert(ctx context.Context, res dao.Reservation, capacity *int) (dao.Reservation, error)
	Delete(ctx context.Context, userID uint, eventID string) error
	FindByUserAndEvent(ctx context.Context, userID uint, eventID string) (dao.Reservation, error)
	SumQuantityForEvent(ctx context.Context, eventID string) (int, error)
}

type ReservationRepository struct {
	dao ReservationDAO
}

func NewReservationRepository(dao ReservationDAO) *ReservationRepository {
	return &ReservationRepository{
		dao: dao,
	}
}

func (r *ReservationRepository) Upsert(ctx context.Context, res domain.Reservation, capacity *int) (domain.Reservation, error) {
	saved, err := r.dao.Upsert(ctx, dao.Reservation{
		UserID:           res.UserID,
		EventID:          res.EventID,
		Quantity:         res.Quantity,
		TicketHolderName: res.TicketHolderName,
	}, capacity)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("r.dao.Upsert -> %w", err)
	}

	return r.daoToDomain(saved), nil
}

func (r *ReservationRepository) Delete(ctx context.Context, userID uint, eventID string) error {
	if err := r.dao.Delete(ctx, userID, eventID); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *ReservationRepository) FindByUserAndEvent(ctx context.Context, userID uint, eventID string) (domain.Reservation, error) {
	found, err := r.dao.FindByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("r.dao.FindByUserAndEvent -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ReservationRepository) SumQuantityForEvent(ctx context.Context, eventID string) (int, error) {
	total, err := r.dao.SumQuantityForEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.SumQuantityForEvent -> %w", err)
	}

	return total, nil
}

func (r *ReservationRepository) daoToDomain(res dao.Reservation) domain.Reservation {
	return domain.Reservation{
		ID:               res.ID,
		UserID:           res.UserID,
		EventID:          res.EventID,
		Quantity:         res.Quantity,
		TicketHolderName: res.TicketHolderName,
		CreatedAt:        res.CreatedAt,
		UpdatedAt:        res.UpdatedAt,
	}
}
