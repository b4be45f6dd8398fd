package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

var errRecipientsWithoutSeats = errors.New("recipients cannot be given when cancelling the reservation")

type UpsertReservationRequest struct {
	// Quantity zero cancels the reservation.
	Quantity         int    `json:"quantity"`
	TicketHolderName string `json:"ticket_holder_name"`

	// Recipients optionally gifts tickets out of the new quantity in the
	// same call, one ticket per recipient.
	Recipients []GiftRecipient `json:"recipients,omitempty"`
}

func (req *UpsertReservationRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Quantity, validation.Min(0), validation.Max(100)),
		validation.Field(&req.TicketHolderName, validation.Length(0, 100)),
		validation.Field(&req.Recipients, validation.Length(0, 50)),
	)
	if err != nil {
		return err
	}

	if req.Quantity == 0 && len(req.Recipients) > 0 {
		return errRecipientsWithoutSeats
	}

	return nil
}
