package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpsertReservationRequestValidate(t *testing.T) {
	assert.NoError(t, (&UpsertReservationRequest{Quantity: 3}).Validate())
	assert.NoError(t, (&UpsertReservationRequest{Quantity: 0}).Validate())

	assert.Error(t, (&UpsertReservationRequest{Quantity: -1}).Validate())
	assert.Error(t, (&UpsertReservationRequest{Quantity: 101}).Validate())

	withGifts := &UpsertReservationRequest{
		Quantity:   2,
		Recipients: []GiftRecipient{{Email: "friend@example.com"}},
	}
	assert.NoError(t, withGifts.Validate())

	// Cancelling and gifting in one request makes no sense.
	cancelWithGifts := &UpsertReservationRequest{
		Quantity:   0,
		Recipients: []GiftRecipient{{Email: "friend@example.com"}},
	}
	assert.Error(t, cancelWithGifts.Validate())
}
