package repository

import (
	"context"
	"fmt"

	"github.com/thefndrs/allons-api/internal/domain"
	"github.com/thefndrs/allons-api/internal/repository/dao"
)

var (
	ErrTicketNotFound      = dao.ErrTicketNotFound
	ErrInsufficientTickets = dao.ErrInsufficientTickets
	ErrAlreadyRedeemed     = dao.ErrAlreadyRedeemed
	ErrGiftTokenExists     = dao.ErrGiftTokenExists
)

// GiftAssignment is one recipient slot in a gift batch, resolved to an email
// and, when the recipient has an account, a user ID.
type GiftAssignment struct {
	Email           string
	RecipientUserID *uint
	Token           string
}

type TicketDAO interface {
	Gift(ctx context.Context, reservationID, giverID uint, assignments []dao.GiftAssignment) ([]dao.Ticket, error)
	Claim(ctx context.Context, token string, claimerID uint) (dao.Ticket, error)
	FindByGiftToken(ctx context.Context, token string) (dao.Ticket, error)
	FindOwnedForEvent(ctx context.Context, userID uint, eventID string) ([]dao.Ticket, error)
	FindSentGifts(ctx context.Context, purchaserID uint) ([]dao.Ticket, error)
}

type TicketRepository struct {
	dao TicketDAO
}

func NewTicketRepository(dao TicketDAO) *TicketRepository {
	return &TicketRepository{
		dao: dao,
	}
}

func (r *TicketRepository) Gift(ctx context.Context, reservationID, giverID uint, assignments []GiftAssignment) ([]domain.Ticket, error) {
	daoAssignments := make([]dao.GiftAssignment, len(assignments))
	for i, a := range assignments {
		daoAssignments[i] = dao.GiftAssignment{
			Email:           a.Email,
			RecipientUserID: a.RecipientUserID,
			Token:           a.Token,
		}
	}

	gifted, err := r.dao.Gift(ctx, reservationID, giverID, daoAssignments)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Gift -> %w", err)
	}

	return r.daosToDomain(gifted), nil
}

func (r *TicketRepository) Claim(ctx context.Context, token string, claimerID uint) (domain.Ticket, error) {
	claimed, err := r.dao.Claim(ctx, token, claimerID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.Claim -> %w", err)
	}

	return r.daoToDomain(claimed), nil
}

func (r *TicketRepository) FindByGiftToken(ctx context.Context, token string) (domain.Ticket, error) {
	found, err := r.dao.FindByGiftToken(ctx, token)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("r.dao.FindByGiftToken -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *TicketRepository) FindOwnedForEvent(ctx context.Context, userID uint, eventID string) ([]domain.Ticket, error) {
	tickets, err := r.dao.FindOwnedForEvent(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindOwnedForEvent -> %w", err)
	}

	return r.daosToDomain(tickets), nil
}

func (r *TicketRepository) FindSentGifts(ctx context.Context, purchaserID uint) ([]domain.Ticket, error) {
	tickets, err := r.dao.FindSentGifts(ctx, purchaserID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindSentGifts -> %w", err)
	}

	return r.daosToDomain(tickets), nil
}

func (r *TicketRepository) daoToDomain(t dao.Ticket) domain.Ticket {
	ticket := domain.Ticket{
		ID:              t.ID,
		ReservationID:   t.ReservationID,
		EventID:         t.EventID,
		PurchaserID:     t.PurchaserID,
		OwnerUserID:     t.OwnerUserID,
		RecipientUserID: t.RecipientUserID,
		Status:          domain.TicketStatus(t.Status),
		GiftedAt:        t.GiftedAt,
		ClaimedAt:       t.ClaimedAt,
		CreatedAt:       t.CreatedAt,
	}
	if t.RecipientEmail != nil {
		ticket.RecipientEmail = *t.RecipientEmail
	}
	if t.GiftToken != nil {
		ticket.GiftToken = *t.GiftToken
	}

	return ticket
}

func (r *TicketRepository) daosToDomain(tickets []dao.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, len(tickets))
	for i, t := range tickets {
		out[i] = r.daoToDomain(t)
	}

	return out
}
