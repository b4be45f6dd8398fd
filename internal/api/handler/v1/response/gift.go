package response

import "github.com/thefndrs/allons-api/internal/domain"

type GiftBatchResponse struct {
	Gifts []GiftResponse `json:"gifts"`

	// Invited lists the recipient emails that have no account yet.
	Invited []string `json:"invited"`
}

type GiftResponse struct {
	Email      string `json:"email"`
	HasAccount bool   `json:"has_account"`
	Name       string `json:"name,omitempty"`
}

func NewGiftBatchResponse(batch domain.GiftBatch) GiftBatchResponse {
	gifts := make([]GiftResponse, len(batch.Gifts))
	for i, g := range batch.Gifts {
		gifts[i] = GiftResponse{
			Email:      g.Email,
			HasAccount: g.HasAccount,
			Name:       g.Name,
		}
	}

	return GiftBatchResponse{
		Gifts:   gifts,
		Invited: batch.Invited,
	}
}
