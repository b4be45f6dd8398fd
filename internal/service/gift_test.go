package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thefndrs/allons-api/internal/domain"
	"github.com/thefndrs/allons-api/internal/repository"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets []domain.Ticket
	nextID  uint

	giftCalls int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{}
}

func (f *fakeTicketRepo) addOwnedTickets(reservationID uint, eventID string, ownerID uint, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := 0; i < count; i++ {
		f.nextID++
		owner := ownerID
		f.tickets = append(f.tickets, domain.Ticket{
			ID:            f.nextID,
			ReservationID: reservationID,
			EventID:       eventID,
			PurchaserID:   ownerID,
			OwnerUserID:   &owner,
			Status:        domain.TicketOwned,
		})
	}
}

func (f *fakeTicketRepo) Gift(ctx context.Context, reservationID, giverID uint, assignments []repository.GiftAssignment) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.giftCalls++

	var available []int
	for i, t := range f.tickets {
		if t.ReservationID == reservationID && t.Status == domain.TicketOwned &&
			t.OwnerUserID != nil && *t.OwnerUserID == giverID {
			available = append(available, i)
		}
	}
	if len(available) < len(assignments) {
		return nil, repository.ErrInsufficientTickets
	}

	var gifted []domain.Ticket
	for i, a := range assignments {
		idx := available[i]
		f.tickets[idx].OwnerUserID = nil
		f.tickets[idx].RecipientUserID = a.RecipientUserID
		f.tickets[idx].RecipientEmail = a.Email
		f.tickets[idx].Status = domain.TicketGiftPending
		f.tickets[idx].GiftToken = a.Token
		gifted = append(gifted, f.tickets[idx])
	}

	return gifted, nil
}

func (f *fakeTicketRepo) Claim(ctx context.Context, token string, claimerID uint) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tickets {
		if t.GiftToken == token && t.Status == domain.TicketGiftPending {
			claimer := claimerID
			f.tickets[i].OwnerUserID = &claimer
			f.tickets[i].RecipientUserID = &claimer
			f.tickets[i].Status = domain.TicketClaimed
			return f.tickets[i], nil
		}
	}

	return domain.Ticket{}, repository.ErrAlreadyRedeemed
}

func (f *fakeTicketRepo) FindByGiftToken(ctx context.Context, token string) (domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range f.tickets {
		if t.GiftToken == token {
			return t, nil
		}
	}

	return domain.Ticket{}, repository.ErrTicketNotFound
}

func (f *fakeTicketRepo) FindOwnedForEvent(ctx context.Context, userID uint, eventID string) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.EventID == eventID && t.OwnerUserID != nil && *t.OwnerUserID == userID &&
			(t.Status == domain.TicketOwned || t.Status == domain.TicketClaimed) {
			out = append(out, t)
		}
	}

	return out, nil
}

func (f *fakeTicketRepo) FindSentGifts(ctx context.Context, purchaserID uint) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.PurchaserID != purchaserID {
			continue
		}
		if t.Status != domain.TicketGiftPending && t.Status != domain.TicketClaimed {
			continue
		}
		if t.OwnerUserID != nil && *t.OwnerUserID == purchaserID {
			continue
		}
		out = append(out, t)
	}

	return out, nil
}

type fakeUserRepo struct {
	users map[uint]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uint]domain.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrUserNotFound
}

type fakeFriends struct {
	pairs map[[2]uint]bool
}

func newFakeFriends(pairs ...[2]uint) *fakeFriends {
	f := &fakeFriends{pairs: make(map[[2]uint]bool)}
	for _, p := range pairs {
		f.pairs[p] = true
	}
	return f
}

func (f *fakeFriends) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	return f.pairs[[2]uint{a, b}] || f.pairs[[2]uint{b, a}], nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	issued   []domain.GiftBatch
	redeemed []domain.Ticket
}

func (f *fakeDispatcher) GiftIssued(ctx context.Context, giver domain.User, event *domain.Event, batch domain.GiftBatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, batch)
}

func (f *fakeDispatcher) GiftRedeemed(ctx context.Context, ticket domain.Ticket, claimer domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redeemed = append(f.redeemed, ticket)
}

func newGiftServiceForTest(t *testing.T, tickets *fakeTicketRepo, users *fakeUserRepo, friends *fakeFriends) (*GiftService, *fakeReservationRepo, *fakeDispatcher) {
	t.Helper()

	reservations := newFakeReservationRepo()
	dispatcher := &fakeDispatcher{}
	svc := NewGiftService(tickets, reservations, users, friends, testCatalog(), dispatcher)

	return svc, reservations, dispatcher
}

func TestGiftTickets_EmailRecipientWithoutAccount(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	tickets := newFakeTicketRepo()
	svc, reservations, dispatcher := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver), newFakeFriends())
	ctx := context.Background()

	res, err := reservations.Upsert(ctx, domain.Reservation{UserID: 1, EventID: "open", Quantity: 2}, nil)
	require.NoError(t, err)
	tickets.addOwnedTickets(res.ID, "open", 1, 2)

	batch, err := svc.GiftTickets(ctx, 1, "open", []domain.Recipient{
		domain.EmailRecipient("  NewFriend@Example.COM "),
	})

	require.NoError(t, err)
	require.Len(t, batch.Gifts, 1)
	assert.Equal(t, "newfriend@example.com", batch.Gifts[0].Email)
	assert.False(t, batch.Gifts[0].HasAccount)
	assert.Nil(t, batch.Gifts[0].UserID)
	assert.NotEmpty(t, batch.Gifts[0].Token)
	assert.Equal(t, []string{"newfriend@example.com"}, batch.Invited)
	assert.Len(t, dispatcher.issued, 1)
}

func TestGiftTickets_EmailRecipientWithAccount(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	holder := domain.User{ID: 2, Email: "holder@example.com", Name: "Holder"}
	tickets := newFakeTicketRepo()
	svc, reservations, _ := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver, holder), newFakeFriends())
	ctx := context.Background()

	res, err := reservations.Upsert(ctx, domain.Reservation{UserID: 1, EventID: "open", Quantity: 1}, nil)
	require.NoError(t, err)
	tickets.addOwnedTickets(res.ID, "open", 1, 1)

	batch, err := svc.GiftTickets(ctx, 1, "open", []domain.Recipient{
		domain.EmailRecipient("HOLDER@example.com"),
	})

	require.NoError(t, err)
	require.Len(t, batch.Gifts, 1)
	assert.True(t, batch.Gifts[0].HasAccount)
	require.NotNil(t, batch.Gifts[0].UserID)
	assert.Equal(t, uint(2), *batch.Gifts[0].UserID)
	assert.Empty(t, batch.Invited)
}

func TestGiftTickets_FriendRecipient(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	friend := domain.User{ID: 2, Email: "Friend@Example.com", Name: "Friend"}
	tickets := newFakeTicketRepo()
	svc, reservations, _ := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver, friend), newFakeFriends([2]uint{2, 1}))
	ctx := context.Background()

	res, err := reservations.Upsert(ctx, domain.Reservation{UserID: 1, EventID: "open", Quantity: 1}, nil)
	require.NoError(t, err)
	tickets.addOwnedTickets(res.ID, "open", 1, 1)

	batch, err := svc.GiftTickets(ctx, 1, "open", []domain.Recipient{
		domain.FriendRecipient(2),
	})

	require.NoError(t, err)
	require.Len(t, batch.Gifts, 1)
	assert.Equal(t, "friend@example.com", batch.Gifts[0].Email)
	require.NotNil(t, batch.Gifts[0].UserID)
	assert.Equal(t, uint(2), *batch.Gifts[0].UserID)
}

func TestGiftTickets_NotFriendsRejected(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	stranger := domain.User{ID: 3, Email: "stranger@example.com", Name: "Stranger"}
	tickets := newFakeTicketRepo()
	svc, reservations, dispatcher := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver, stranger), newFakeFriends())
	ctx := context.Background()

	res, err := reservations.Upsert(ctx, domain.Reservation{UserID: 1, EventID: "open", Quantity: 1}, nil)
	require.NoError(t, err)
	tickets.addOwnedTickets(res.ID, "open", 1, 1)

	_, err = svc.GiftTickets(ctx, 1, "open", []domain.Recipient{
		domain.FriendRecipient(3),
	})

	assert.ErrorIs(t, err, ErrNotFriends)
	assert.Zero(t, tickets.giftCalls)
	assert.Empty(t, dispatcher.issued)
}

func TestGiftTickets_InsufficientTicketsNothingGifted(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	tickets := newFakeTicketRepo()
	svc, reservations, dispatcher := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver), newFakeFriends())
	ctx := context.Background()

	res, err := reservations.Upsert(ctx, domain.Reservation{UserID: 1, EventID: "open", Quantity: 2}, nil)
	require.NoError(t, err)
	tickets.addOwnedTickets(res.ID, "open", 1, 2)

	_, err = svc.GiftTickets(ctx, 1, "open", []domain.Recipient{
		domain.EmailRecipient("a@example.com"),
		domain.EmailRecipient("b@example.com"),
		domain.EmailRecipient("c@example.com"),
	})

	assert.ErrorIs(t, err, ErrInsufficientTickets)
	assert.Empty(t, dispatcher.issued)

	owned, err := svc.ListMyTickets(ctx, 1, "open")
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func TestGiftTickets_RepeatedEmailsConsumeOneTicketEach(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	tickets := newFakeTicketRepo()
	svc, reservations, _ := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver), newFakeFriends())
	ctx := context.Background()

	res, err := reservations.Upsert(ctx, domain.Reservation{UserID: 1, EventID: "open", Quantity: 2}, nil)
	require.NoError(t, err)
	tickets.addOwnedTickets(res.ID, "open", 1, 2)

	batch, err := svc.GiftTickets(ctx, 1, "open", []domain.Recipient{
		domain.EmailRecipient("same@example.com"),
		domain.EmailRecipient("same@example.com"),
	})

	require.NoError(t, err)
	require.Len(t, batch.Gifts, 2)
	assert.NotEqual(t, batch.Gifts[0].Token, batch.Gifts[1].Token)

	owned, err := svc.ListMyTickets(ctx, 1, "open")
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func giftOneTicket(t *testing.T, svc *GiftService, reservations *fakeReservationRepo, tickets *fakeTicketRepo, recipient domain.Recipient) string {
	t.Helper()
	ctx := context.Background()

	res, err := reservations.Upsert(ctx, domain.Reservation{UserID: 1, EventID: "open", Quantity: 1}, nil)
	require.NoError(t, err)
	tickets.addOwnedTickets(res.ID, "open", 1, 1)

	batch, err := svc.GiftTickets(ctx, 1, "open", []domain.Recipient{recipient})
	require.NoError(t, err)
	require.Len(t, batch.Gifts, 1)

	return batch.Gifts[0].Token
}

func TestRedeem_BoundGiftRequiresExactUser(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	holder := domain.User{ID: 2, Email: "holder@example.com", Name: "Holder"}
	intruder := domain.User{ID: 3, Email: "intruder@example.com", Name: "Intruder"}
	tickets := newFakeTicketRepo()
	svc, reservations, _ := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver, holder, intruder), newFakeFriends())

	token := giftOneTicket(t, svc, reservations, tickets, domain.EmailRecipient("holder@example.com"))

	// Even knowing the recipient address doesn't help another account.
	_, err := svc.Redeem(context.Background(), token, intruder)
	assert.ErrorIs(t, err, ErrGiftNotForUser)

	ticket, err := svc.Redeem(context.Background(), token, holder)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketClaimed, ticket.Status)
}

func TestRedeem_UnboundGiftMatchesEmailCaseInsensitively(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	tickets := newFakeTicketRepo()
	users := newFakeUserRepo(giver)
	svc, reservations, dispatcher := newGiftServiceForTest(t, tickets, users, newFakeFriends())

	token := giftOneTicket(t, svc, reservations, tickets, domain.EmailRecipient("future@example.com"))

	// The recipient signed up after the gift was sent.
	claimer := domain.User{ID: 9, Email: "Future@Example.COM", Name: "Future"}
	users.users[claimer.ID] = claimer

	ticket, err := svc.Redeem(context.Background(), token, claimer)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketClaimed, ticket.Status)
	require.NotNil(t, ticket.OwnerUserID)
	assert.Equal(t, uint(9), *ticket.OwnerUserID)
	assert.Len(t, dispatcher.redeemed, 1)
}

func TestRedeem_WrongEmailRejected(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	tickets := newFakeTicketRepo()
	svc, reservations, _ := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver), newFakeFriends())

	token := giftOneTicket(t, svc, reservations, tickets, domain.EmailRecipient("right@example.com"))

	claimer := domain.User{ID: 9, Email: "wrong@example.com"}
	_, err := svc.Redeem(context.Background(), token, claimer)
	assert.ErrorIs(t, err, ErrGiftNotForUser)
}

func TestRedeem_TwiceFails(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	holder := domain.User{ID: 2, Email: "holder@example.com", Name: "Holder"}
	tickets := newFakeTicketRepo()
	svc, reservations, dispatcher := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver, holder), newFakeFriends())

	token := giftOneTicket(t, svc, reservations, tickets, domain.EmailRecipient("holder@example.com"))

	_, err := svc.Redeem(context.Background(), token, holder)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), token, holder)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
	assert.Len(t, dispatcher.redeemed, 1)
}

func TestRedeem_UnknownToken(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	svc, _, _ := newGiftServiceForTest(t, newFakeTicketRepo(), newFakeUserRepo(giver), newFakeFriends())

	_, err := svc.Redeem(context.Background(), "no-such-token", giver)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestPreviewGift_MasksRecipientEmail(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	tickets := newFakeTicketRepo()
	svc, reservations, _ := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver), newFakeFriends())

	token := giftOneTicket(t, svc, reservations, tickets, domain.EmailRecipient("recipient@example.com"))

	preview, err := svc.PreviewGift(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Giver", preview.GiverName)
	assert.Equal(t, "r***@example.com", preview.RecipientEmail)
	assert.Equal(t, "Open Event", preview.EventTitle)
}

func TestPreviewGift_ClaimedGiftRejected(t *testing.T) {
	giver := domain.User{ID: 1, Email: "giver@example.com", Name: "Giver"}
	holder := domain.User{ID: 2, Email: "holder@example.com", Name: "Holder"}
	tickets := newFakeTicketRepo()
	svc, reservations, _ := newGiftServiceForTest(t, tickets, newFakeUserRepo(giver, holder), newFakeFriends())

	token := giftOneTicket(t, svc, reservations, tickets, domain.EmailRecipient("holder@example.com"))

	_, err := svc.Redeem(context.Background(), token, holder)
	require.NoError(t, err)

	_, err = svc.PreviewGift(context.Background(), token)
	assert.ErrorIs(t, err, ErrGiftNotPending)
}
