package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/thefndrs/allons-api/internal/domain"
	"github.com/thefndrs/allons-api/internal/repository"
)

var (
	ErrTicketNotFound      = repository.ErrTicketNotFound
	ErrInsufficientTickets = repository.ErrInsufficientTickets
	ErrAlreadyRedeemed     = repository.ErrAlreadyRedeemed
	ErrNotFriends          = errors.New("recipient is not a friend")
	ErrGiftNotPending      = errors.New("gift is not pending")
	ErrGiftNotForUser      = errors.New("gift is addressed to someone else")
	ErrNoRecipients        = errors.New("no recipients given")
)

type GiftTicketRepository interface {
	Gift(ctx context.Context, reservationID, giverID uint, assignments []repository.GiftAssignment) ([]domain.Ticket, error)
	Claim(ctx context.Context, token string, claimerID uint) (domain.Ticket, error)
	FindByGiftToken(ctx context.Context, token string) (domain.Ticket, error)
	FindOwnedForEvent(ctx context.Context, userID uint, eventID string) ([]domain.Ticket, error)
	FindSentGifts(ctx context.Context, purchaserID uint) ([]domain.Ticket, error)
}

type FriendChecker interface {
	AreFriends(ctx context.Context, a, b uint) (bool, error)
}

// GiftDispatcher receives post-commit notifications. Implementations must be
// best-effort: a delivery failure never unwinds the ticket mutation that
// triggered it.
type GiftDispatcher interface {
	GiftIssued(ctx context.Context, giver domain.User, event *domain.Event, batch domain.GiftBatch)
	GiftRedeemed(ctx context.Context, ticket domain.Ticket, claimer domain.User)
}

type GiftService struct {
	tickets      GiftTicketRepository
	reservations ReservationRepository
	users        UserRepository
	friends      FriendChecker
	catalog      EventCatalog
	dispatcher   GiftDispatcher
}

func NewGiftService(
	tickets GiftTicketRepository,
	reservations ReservationRepository,
	users UserRepository,
	friends FriendChecker,
	catalog EventCatalog,
	dispatcher GiftDispatcher,
) *GiftService {
	return &GiftService{
		tickets:      tickets,
		reservations: reservations,
		users:        users,
		friends:      friends,
		catalog:      catalog,
		dispatcher:   dispatcher,
	}
}

// GiftTickets hands one ticket to each recipient in a single all-or-nothing
// batch. Friend recipients must actually be friends of the giver; email
// recipients are looked up so account holders get the gift bound to their
// account. Repeated emails are honored, one ticket each. Notifications go
// out only after the batch committed.
func (s *GiftService) GiftTickets(ctx context.Context, giverID uint, eventID string, recipients []domain.Recipient) (domain.GiftBatch, error) {
	if len(recipients) == 0 {
		return domain.GiftBatch{}, ErrNoRecipients
	}

	giver, err := s.users.FindByID(ctx, giverID)
	if err != nil {
		return domain.GiftBatch{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	reservation, err := s.reservations.FindByUserAndEvent(ctx, giverID, eventID)
	if err != nil {
		return domain.GiftBatch{}, fmt.Errorf("s.reservations.FindByUserAndEvent -> %w", err)
	}

	gifts := make([]domain.Gift, 0, len(recipients))
	assignments := make([]repository.GiftAssignment, 0, len(recipients))
	var invited []string
	for _, recipient := range recipients {
		gift, err := s.resolveRecipient(ctx, giverID, recipient)
		if err != nil {
			return domain.GiftBatch{}, err
		}

		gift.Token = uuid.NewString()
		gifts = append(gifts, gift)
		assignments = append(assignments, repository.GiftAssignment{
			Email:           gift.Email,
			RecipientUserID: gift.UserID,
			Token:           gift.Token,
		})
		if !gift.HasAccount {
			invited = append(invited, gift.Email)
		}
	}

	if _, err := s.tickets.Gift(ctx, reservation.ID, giverID, assignments); err != nil {
		return domain.GiftBatch{}, fmt.Errorf("s.tickets.Gift -> %w", err)
	}

	batch := domain.GiftBatch{
		Gifts:   gifts,
		Invited: invited,
	}

	s.dispatcher.GiftIssued(ctx, giver, s.catalog.GetEvent(eventID), batch)

	return batch, nil
}

// resolveRecipient turns a recipient spec into a concrete gift target with a
// lowercase email and, if the address belongs to an account, that user's ID.
func (s *GiftService) resolveRecipient(ctx context.Context, giverID uint, recipient domain.Recipient) (domain.Gift, error) {
	switch recipient.Kind {
	case domain.RecipientFriend:
		ok, err := s.friends.AreFriends(ctx, giverID, recipient.FriendID)
		if err != nil {
			return domain.Gift{}, fmt.Errorf("s.friends.AreFriends -> %w", err)
		}
		if !ok {
			return domain.Gift{}, ErrNotFriends
		}

		friend, err := s.users.FindByID(ctx, recipient.FriendID)
		if err != nil {
			return domain.Gift{}, fmt.Errorf("s.users.FindByID -> %w", err)
		}

		id := friend.ID

		return domain.Gift{
			Email:      strings.ToLower(friend.Email),
			HasAccount: true,
			UserID:     &id,
			Name:       friend.Name,
		}, nil

	default:
		email := strings.ToLower(strings.TrimSpace(recipient.Email))

		account, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domain.Gift{
					Email:      email,
					HasAccount: false,
				}, nil
			}

			return domain.Gift{}, fmt.Errorf("s.users.FindByEmail -> %w", err)
		}

		id := account.ID

		return domain.Gift{
			Email:      email,
			HasAccount: true,
			UserID:     &id,
			Name:       account.Name,
		}, nil
	}
}

// PreviewGift shows what a token unlocks without requiring a login. Only
// pending gifts are previewable; the recipient address is masked because
// the link may be forwarded.
func (s *GiftService) PreviewGift(ctx context.Context, token string) (domain.GiftPreview, error) {
	ticket, err := s.tickets.FindByGiftToken(ctx, token)
	if err != nil {
		return domain.GiftPreview{}, fmt.Errorf("s.tickets.FindByGiftToken -> %w", err)
	}

	if ticket.Status != domain.TicketGiftPending {
		return domain.GiftPreview{}, ErrGiftNotPending
	}

	giver, err := s.users.FindByID(ctx, ticket.PurchaserID)
	if err != nil {
		return domain.GiftPreview{}, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	preview := domain.GiftPreview{
		EventID:        ticket.EventID,
		EventTitle:     ticket.EventID,
		GiverName:      giver.Name,
		RecipientEmail: maskEmail(ticket.RecipientEmail),
	}
	if event := s.catalog.GetEvent(ticket.EventID); event != nil {
		preview.EventTitle = event.Title
	}

	return preview, nil
}

// Redeem consumes a gift token for the logged-in claimer. A gift bound to an
// account can only be redeemed by that account; an unbound gift goes to
// whoever logs in with the recipient address. The claimed state is terminal,
// so a second redeem of the same token always fails.
func (s *GiftService) Redeem(ctx context.Context, token string, claimer domain.User) (domain.Ticket, error) {
	ticket, err := s.tickets.FindByGiftToken(ctx, token)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.tickets.FindByGiftToken -> %w", err)
	}

	if !ticket.Status.CanTransitionTo(domain.TicketClaimed) {
		return domain.Ticket{}, ErrAlreadyRedeemed
	}

	if ticket.RecipientUserID != nil {
		if *ticket.RecipientUserID != claimer.ID {
			return domain.Ticket{}, ErrGiftNotForUser
		}
	} else if !strings.EqualFold(ticket.RecipientEmail, claimer.Email) {
		return domain.Ticket{}, ErrGiftNotForUser
	}

	claimed, err := s.tickets.Claim(ctx, token, claimer.ID)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("s.tickets.Claim -> %w", err)
	}

	s.dispatcher.GiftRedeemed(ctx, claimed, claimer)

	return claimed, nil
}

func (s *GiftService) ListMyTickets(ctx context.Context, userID uint, eventID string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.FindOwnedForEvent(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.tickets.FindOwnedForEvent -> %w", err)
	}

	return tickets, nil
}

func (s *GiftService) ListSentGifts(ctx context.Context, userID uint) ([]domain.Ticket, error) {
	tickets, err := s.tickets.FindSentGifts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.tickets.FindSentGifts -> %w", err)
	}

	return tickets, nil
}

// maskEmail keeps the first character of the local part and the full domain,
// hiding the rest.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}

	return email[:1] + "***" + email[at:]
}
