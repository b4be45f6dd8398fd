package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var errRecipientShape = errors.New("each recipient needs either an email or a friend_id, not both")

// GiftRecipient names one gift target, either by friend account or by raw
// email address. Exactly one of the two must be set.
type GiftRecipient struct {
	Email    string `json:"email,omitempty"`
	FriendID uint   `json:"friend_id,omitempty"`
}

func (r GiftRecipient) Validate() error {
	hasEmail := r.Email != ""
	hasFriend := r.FriendID != 0
	if hasEmail == hasFriend {
		return errRecipientShape
	}

	if hasEmail {
		return validation.Validate(r.Email, is.Email)
	}

	return nil
}

type GiftTicketsRequest struct {
	Recipients []GiftRecipient `json:"recipients"`
}

func (req *GiftTicketsRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Recipients, validation.Required, validation.Length(1, 50)),
	)
}
