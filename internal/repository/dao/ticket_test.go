package dao

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketGift_OldestFirstAllOrNothing(t *testing.T) {
	ctx := context.Background()
	user := mustCreateUser(t, "gift-oldest@example.com")
	resDAO := NewReservationDAO(testDB)
	ticketDAO := NewTicketDAO(testDB)

	res, err := resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-gift", Quantity: 3}, nil)
	require.NoError(t, err)

	owned, err := ticketDAO.FindOwnedForEvent(ctx, user.ID, "ev-gift")
	require.NoError(t, err)
	require.Len(t, owned, 3)

	gifted, err := ticketDAO.Gift(ctx, res.ID, user.ID, []GiftAssignment{
		{Email: "first@example.com", Token: "gift-token-a"},
		{Email: "second@example.com", Token: "gift-token-b"},
	})
	require.NoError(t, err)
	require.Len(t, gifted, 2)

	// The two oldest tickets are handed out, the newest stays owned.
	assert.Equal(t, owned[0].ID, gifted[0].ID)
	assert.Equal(t, owned[1].ID, gifted[1].ID)
	for _, ticket := range gifted {
		assert.Equal(t, ticketStatusGiftPending, ticket.Status)
		assert.Nil(t, ticket.OwnerUserID)
		assert.NotNil(t, ticket.GiftedAt)
	}

	remaining, err := ticketDAO.FindOwnedForEvent(ctx, user.ID, "ev-gift")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, owned[2].ID, remaining[0].ID)
}

func TestTicketGift_InsufficientMutatesNothing(t *testing.T) {
	ctx := context.Background()
	user := mustCreateUser(t, "gift-short@example.com")
	resDAO := NewReservationDAO(testDB)
	ticketDAO := NewTicketDAO(testDB)

	res, err := resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-gift-short", Quantity: 1}, nil)
	require.NoError(t, err)

	_, err = ticketDAO.Gift(ctx, res.ID, user.ID, []GiftAssignment{
		{Email: "one@example.com", Token: "short-token-1"},
		{Email: "two@example.com", Token: "short-token-2"},
	})
	assert.ErrorIs(t, err, ErrInsufficientTickets)

	owned, err := ticketDAO.FindOwnedForEvent(ctx, user.ID, "ev-gift-short")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, ticketStatusOwned, owned[0].Status)
}

func TestTicketGift_RecordsRecipientBinding(t *testing.T) {
	ctx := context.Background()
	giver := mustCreateUser(t, "gift-binding-giver@example.com")
	holder := mustCreateUser(t, "gift-binding-holder@example.com")
	resDAO := NewReservationDAO(testDB)
	ticketDAO := NewTicketDAO(testDB)

	res, err := resDAO.Upsert(ctx, Reservation{UserID: giver.ID, EventID: "ev-binding", Quantity: 1}, nil)
	require.NoError(t, err)

	holderID := holder.ID
	gifted, err := ticketDAO.Gift(ctx, res.ID, giver.ID, []GiftAssignment{
		{Email: holder.Email, RecipientUserID: &holderID, Token: "binding-token"},
	})
	require.NoError(t, err)
	require.Len(t, gifted, 1)

	found, err := ticketDAO.FindByGiftToken(ctx, "binding-token")
	require.NoError(t, err)
	require.NotNil(t, found.RecipientUserID)
	assert.Equal(t, holder.ID, *found.RecipientUserID)
	require.NotNil(t, found.RecipientEmail)
	assert.Equal(t, holder.Email, *found.RecipientEmail)
	assert.Equal(t, giver.ID, found.PurchaserID)
}

func TestTicketClaim_SingleWinner(t *testing.T) {
	ctx := context.Background()
	giver := mustCreateUser(t, "claim-giver@example.com")
	resDAO := NewReservationDAO(testDB)
	ticketDAO := NewTicketDAO(testDB)

	res, err := resDAO.Upsert(ctx, Reservation{UserID: giver.ID, EventID: "ev-claim", Quantity: 1}, nil)
	require.NoError(t, err)

	_, err = ticketDAO.Gift(ctx, res.ID, giver.ID, []GiftAssignment{
		{Email: "racer@example.com", Token: "claim-race-token"},
	})
	require.NoError(t, err)

	const racers = 10
	var wg sync.WaitGroup
	var wins atomic.Int32

	for i := 0; i < racers; i++ {
		claimer := mustCreateUser(t, fmt.Sprintf("claim-racer-%v@example.com", i))
		wg.Add(1)
		go func(claimerID uint) {
			defer wg.Done()
			if _, err := ticketDAO.Claim(ctx, "claim-race-token", claimerID); err == nil {
				wins.Add(1)
			}
		}(claimer.ID)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())

	claimed, err := ticketDAO.FindByGiftToken(ctx, "claim-race-token")
	require.NoError(t, err)
	assert.Equal(t, ticketStatusClaimed, claimed.Status)
	require.NotNil(t, claimed.OwnerUserID)
}

func TestTicketClaim_ConsumedTokenRejected(t *testing.T) {
	ctx := context.Background()
	giver := mustCreateUser(t, "claim-twice-giver@example.com")
	claimer := mustCreateUser(t, "claim-twice-claimer@example.com")
	resDAO := NewReservationDAO(testDB)
	ticketDAO := NewTicketDAO(testDB)

	res, err := resDAO.Upsert(ctx, Reservation{UserID: giver.ID, EventID: "ev-claim-twice", Quantity: 1}, nil)
	require.NoError(t, err)

	_, err = ticketDAO.Gift(ctx, res.ID, giver.ID, []GiftAssignment{
		{Email: claimer.Email, Token: "claim-twice-token"},
	})
	require.NoError(t, err)

	claimed, err := ticketDAO.Claim(ctx, "claim-twice-token", claimer.ID)
	require.NoError(t, err)
	assert.Equal(t, ticketStatusClaimed, claimed.Status)
	assert.NotNil(t, claimed.ClaimedAt)

	_, err = ticketDAO.Claim(ctx, "claim-twice-token", claimer.ID)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestTicketFindSentGifts(t *testing.T) {
	ctx := context.Background()
	giver := mustCreateUser(t, "sent-giver@example.com")
	claimer := mustCreateUser(t, "sent-claimer@example.com")
	resDAO := NewReservationDAO(testDB)
	ticketDAO := NewTicketDAO(testDB)

	res, err := resDAO.Upsert(ctx, Reservation{UserID: giver.ID, EventID: "ev-sent", Quantity: 3}, nil)
	require.NoError(t, err)

	_, err = ticketDAO.Gift(ctx, res.ID, giver.ID, []GiftAssignment{
		{Email: "pending@example.com", Token: "sent-token-1"},
		{Email: claimer.Email, Token: "sent-token-2"},
	})
	require.NoError(t, err)

	_, err = ticketDAO.Claim(ctx, "sent-token-2", claimer.ID)
	require.NoError(t, err)

	sent, err := ticketDAO.FindSentGifts(ctx, giver.ID)
	require.NoError(t, err)
	require.Len(t, sent, 2)
	for _, ticket := range sent {
		assert.Contains(t, []string{ticketStatusGiftPending, ticketStatusClaimed}, ticket.Status)
	}

	// The ticket still owned by the giver is not a sent gift.
	owned, err := ticketDAO.FindOwnedForEvent(ctx, giver.ID, "ev-sent")
	require.NoError(t, err)
	require.Len(t, owned, 1)
}
