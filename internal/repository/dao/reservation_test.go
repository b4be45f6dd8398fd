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

func mustCreateUser(t *testing.T, email string) User {
	t.Helper()

	user, err := NewUserDAO(testDB).Insert(context.Background(), User{
		Email:    email,
		Password: "hashed-password",
		Name:     "Test User",
	})
	require.NoError(t, err)

	return user
}

func intPtr(v int) *int { return &v }

func TestReservationUpsert_ReconcilesTickets(t *testing.T) {
	ctx := context.Background()
	user := mustCreateUser(t, "reconcile@example.com")
	resDAO := NewReservationDAO(testDB)
	ticketDAO := NewTicketDAO(testDB)

	res, err := resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-reconcile", Quantity: 3}, nil)
	require.NoError(t, err)
	count, err := ticketDAO.CountByReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	res, err = resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-reconcile", Quantity: 1}, nil)
	require.NoError(t, err)
	count, err = ticketDAO.CountByReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	res, err = resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-reconcile", Quantity: 5}, nil)
	require.NoError(t, err)
	count, err = ticketDAO.CountByReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestReservationUpsert_OnePerUserAndEvent(t *testing.T) {
	ctx := context.Background()
	user := mustCreateUser(t, "single-row@example.com")
	resDAO := NewReservationDAO(testDB)

	first, err := resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-single", Quantity: 2}, nil)
	require.NoError(t, err)

	second, err := resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-single", Quantity: 4, TicketHolderName: "Someone"}, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, second.Quantity)

	found, err := resDAO.FindByUserAndEvent(ctx, user.ID, "ev-single")
	require.NoError(t, err)
	assert.Equal(t, 4, found.Quantity)
	assert.Equal(t, "Someone", found.TicketHolderName)
}

func TestReservationUpsert_CapacityEnforced(t *testing.T) {
	ctx := context.Background()
	alice := mustCreateUser(t, "capacity-alice@example.com")
	bob := mustCreateUser(t, "capacity-bob@example.com")
	resDAO := NewReservationDAO(testDB)
	capacity := intPtr(4)

	_, err := resDAO.Upsert(ctx, Reservation{UserID: alice.ID, EventID: "ev-capacity", Quantity: 3}, capacity)
	require.NoError(t, err)

	_, err = resDAO.Upsert(ctx, Reservation{UserID: bob.ID, EventID: "ev-capacity", Quantity: 2}, capacity)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = resDAO.Upsert(ctx, Reservation{UserID: bob.ID, EventID: "ev-capacity", Quantity: 1}, capacity)
	require.NoError(t, err)

	// Replacing an existing quantity is not additive.
	_, err = resDAO.Upsert(ctx, Reservation{UserID: alice.ID, EventID: "ev-capacity", Quantity: 2}, capacity)
	require.NoError(t, err)

	total, err := resDAO.SumQuantityForEvent(ctx, "ev-capacity")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestReservationUpsert_ConcurrentRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	resDAO := NewReservationDAO(testDB)
	capacity := intPtr(10)

	const workers = 8
	var wg sync.WaitGroup
	var succeeded atomic.Int32

	for i := 0; i < workers; i++ {
		user := mustCreateUser(t, fmt.Sprintf("concurrent-%v@example.com", i))
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			for {
				_, err := resDAO.Upsert(ctx, Reservation{UserID: userID, EventID: "ev-concurrent", Quantity: 3}, capacity)
				if err == ErrTxConflict {
					continue
				}
				if err == nil {
					succeeded.Add(1)
				}
				return
			}
		}(user.ID)
	}
	wg.Wait()

	// At 3 seats each under a ceiling of 10, at most 3 workers can win.
	assert.LessOrEqual(t, succeeded.Load(), int32(3))

	total, err := resDAO.SumQuantityForEvent(ctx, "ev-concurrent")
	require.NoError(t, err)
	assert.LessOrEqual(t, total, 10)
	assert.Equal(t, int(succeeded.Load())*3, total)
}

func TestReservationUpsert_ShrinkBelowGiftedRejected(t *testing.T) {
	ctx := context.Background()
	user := mustCreateUser(t, "shrink@example.com")
	resDAO := NewReservationDAO(testDB)
	ticketDAO := NewTicketDAO(testDB)

	res, err := resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-shrink", Quantity: 3}, nil)
	require.NoError(t, err)

	_, err = ticketDAO.Gift(ctx, res.ID, user.ID, []GiftAssignment{
		{Email: "g1@example.com", Token: "shrink-token-1"},
		{Email: "g2@example.com", Token: "shrink-token-2"},
	})
	require.NoError(t, err)

	_, err = resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-shrink", Quantity: 1}, nil)
	assert.ErrorIs(t, err, ErrTicketsLocked)

	// Shrinking to exactly the gifted count drops only the owned surplus.
	res, err = resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-shrink", Quantity: 2}, nil)
	require.NoError(t, err)
	count, err := ticketDAO.CountByReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	err = resDAO.Delete(ctx, user.ID, "ev-shrink")
	assert.ErrorIs(t, err, ErrTicketsLocked)
}

func TestReservationDelete_RemovesTickets(t *testing.T) {
	ctx := context.Background()
	user := mustCreateUser(t, "delete@example.com")
	resDAO := NewReservationDAO(testDB)
	ticketDAO := NewTicketDAO(testDB)

	res, err := resDAO.Upsert(ctx, Reservation{UserID: user.ID, EventID: "ev-delete", Quantity: 2}, nil)
	require.NoError(t, err)

	require.NoError(t, resDAO.Delete(ctx, user.ID, "ev-delete"))

	_, err = resDAO.FindByUserAndEvent(ctx, user.ID, "ev-delete")
	assert.ErrorIs(t, err, ErrReservationNotFound)

	count, err := ticketDAO.CountByReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReservationDelete_NotFound(t *testing.T) {
	user := mustCreateUser(t, "delete-missing@example.com")

	err := NewReservationDAO(testDB).Delete(context.Background(), user.ID, "ev-never-reserved")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}
