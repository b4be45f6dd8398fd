package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrInsufficientTickets = errors.New("not enough tickets to gift")
	ErrAlreadyRedeemed     = errors.New("gift already redeemed")
	ErrGiftTokenExists     = errors.New("gift token already exists")
)

const (
	ticketStatusOwned       = "owned"
	ticketStatusGiftPending = "gift_pending"
	ticketStatusClaimed     = "claimed"
)

type Ticket struct {
	ID uint `gorm:"primaryKey"`

	ReservationID uint   `gorm:"not null;index"`
	EventID       string `gorm:"not null;index"`

	PurchaserID     uint  `gorm:"not null"`
	OwnerUserID     *uint `gorm:"index"`
	RecipientUserID *uint
	RecipientEmail  *string

	Status    string  `gorm:"not null;default:owned"`
	GiftToken *string `gorm:"uniqueIndex"`

	GiftedAt  *time.Time
	ClaimedAt *time.Time
	CreatedAt time.Time `gorm:"not null"`
}

func (Ticket) TableName() string {
	return "reservation_tickets"
}

// GiftAssignment pairs one resolved recipient with the token minted for it.
// Assignments are applied to tickets oldest-first; repeated emails are kept
// as-is, each consuming its own ticket.
type GiftAssignment struct {
	Email           string
	RecipientUserID *uint
	Token           string
}

type TicketDAO struct {
	db *gorm.DB
}

func NewTicketDAO(db *gorm.DB) *TicketDAO {
	return &TicketDAO{
		db: db,
	}
}

// reconcileTickets brings the ticket rows for a reservation into agreement
// with the desired quantity. Must run inside the same transaction as the
// reservation write. Tickets that were gifted or claimed are locked: the
// quantity can never drop below their count. Surplus owned tickets are
// fungible, so any unlocked subset may be deleted.
func reconcileTickets(tx *gorm.DB, reservationID uint, eventID string, desired int, userID uint) error {
	var tickets []Ticket
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC, id ASC").
		Find(&tickets).Error; err != nil {
		return err
	}

	var unlocked []Ticket
	lockedCount := 0
	for _, t := range tickets {
		if t.Status != ticketStatusOwned || t.OwnerUserID == nil || *t.OwnerUserID != userID {
			lockedCount++
			continue
		}
		unlocked = append(unlocked, t)
	}

	if desired < lockedCount {
		return ErrTicketsLocked
	}

	current := len(tickets)
	switch {
	case current == desired:
		return nil

	case current > desired:
		drop := current - desired
		victims := unlocked[len(unlocked)-drop:]
		ids := make([]uint, len(victims))
		for i, t := range victims {
			ids[i] = t.ID
		}

		result := tx.Where("id IN ? AND status = ? AND owner_user_id = ?", ids, ticketStatusOwned, userID).
			Delete(&Ticket{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(drop) {
			return ErrTxConflict
		}

		return nil

	default:
		missing := desired - current
		rows := make([]Ticket, missing)
		owner := userID
		for i := range rows {
			rows[i] = Ticket{
				ReservationID: reservationID,
				EventID:       eventID,
				PurchaserID:   userID,
				OwnerUserID:   &owner,
				Status:        ticketStatusOwned,
			}
		}

		return tx.Create(&rows).Error
	}
}

// Gift converts len(assignments) owned tickets into pending transfers,
// oldest-created first, in one all-or-nothing transaction. If the giver owns
// fewer tickets than assignments, nothing is mutated.
func (d *TicketDAO) Gift(ctx context.Context, reservationID, giverID uint, assignments []GiftAssignment) ([]Ticket, error) {
	gifted := make([]Ticket, 0, len(assignments))

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var available []Ticket
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reservation_id = ? AND status = ? AND owner_user_id = ?", reservationID, ticketStatusOwned, giverID).
			Order("created_at ASC, id ASC").
			Limit(len(assignments)).
			Find(&available).Error; err != nil {
			return err
		}

		if len(available) < len(assignments) {
			return ErrInsufficientTickets
		}

		now := time.Now()
		for i, assignment := range assignments {
			ticket := available[i]
			email := assignment.Email
			token := assignment.Token

			result := tx.Model(&Ticket{}).
				Where("id = ? AND status = ?", ticket.ID, ticketStatusOwned).
				Updates(map[string]interface{}{
					"owner_user_id":     nil,
					"recipient_user_id": assignment.RecipientUserID,
					"recipient_email":   email,
					"status":            ticketStatusGiftPending,
					"gift_token":        token,
					"gifted_at":         now,
				})
			if result.Error != nil {
				var pgErr *pgconn.PgError
				if errors.As(result.Error, &pgErr) &&
					pgErr.Code == pgerrcode.UniqueViolation &&
					strings.Contains(pgErr.Message, "gift_token") {
					return ErrGiftTokenExists
				}

				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrTxConflict
			}

			ticket.OwnerUserID = nil
			ticket.RecipientUserID = assignment.RecipientUserID
			ticket.RecipientEmail = &email
			ticket.Status = ticketStatusGiftPending
			ticket.GiftToken = &token
			ticket.GiftedAt = &now
			gifted = append(gifted, ticket)
		}

		return nil
	})
	if err != nil {
		return nil, mapTxError(err)
	}

	return gifted, nil
}

// Claim performs the gift_pending -> claimed transition as a single
// conditional update guarded on the token and the pending status. Zero rows
// affected means somebody else already consumed the token; the caller
// reports that as AlreadyRedeemed. This guard is what makes concurrent
// double-redemption structurally impossible.
func (d *TicketDAO) Claim(ctx context.Context, token string, claimerID uint) (Ticket, error) {
	now := time.Now()

	result := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("gift_token = ? AND status = ?", token, ticketStatusGiftPending).
		Updates(map[string]interface{}{
			"owner_user_id":     claimerID,
			"recipient_user_id": claimerID,
			"status":            ticketStatusClaimed,
			"claimed_at":        now,
		})
	if result.Error != nil {
		return Ticket{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Ticket{}, ErrAlreadyRedeemed
	}

	return d.FindByGiftToken(ctx, token)
}

func (d *TicketDAO) FindByGiftToken(ctx context.Context, token string) (Ticket, error) {
	var ticket Ticket

	result := d.db.WithContext(ctx).
		Where("gift_token = ?", token).
		First(&ticket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Ticket{}, ErrTicketNotFound
		}

		return Ticket{}, result.Error
	}

	return ticket, nil
}

// FindOwnedForEvent lists the tickets a user holds for an event (owned or
// claimed), oldest first.
func (d *TicketDAO) FindOwnedForEvent(ctx context.Context, userID uint, eventID string) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND owner_user_id = ? AND status IN ?",
			eventID, userID, []string{ticketStatusOwned, ticketStatusClaimed}).
		Order("created_at ASC, id ASC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

// FindSentGifts lists tickets a purchaser has gifted away (pending or
// claimed by someone else), newest first.
func (d *TicketDAO) FindSentGifts(ctx context.Context, purchaserID uint) ([]Ticket, error) {
	var tickets []Ticket

	result := d.db.WithContext(ctx).
		Where("purchaser_id = ? AND status IN ? AND (owner_user_id IS NULL OR owner_user_id <> ?)",
			purchaserID, []string{ticketStatusGiftPending, ticketStatusClaimed}, purchaserID).
		Order("gifted_at DESC, id DESC").
		Find(&tickets)
	if result.Error != nil {
		return nil, result.Error
	}

	return tickets, nil
}

func (d *TicketDAO) CountByReservation(ctx context.Context, reservationID uint) (int, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Ticket{}).
		Where("reservation_id = ?", reservationID).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(count), nil
}
