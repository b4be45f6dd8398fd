package domain

// RecipientKind distinguishes the two ways a gift recipient can be named.
type RecipientKind string

const (
	RecipientEmail  RecipientKind = "email"
	RecipientFriend RecipientKind = "friend"
)

// Recipient is a tagged union: either a raw email address or a reference to
// a friend of the acting user. Friend references are resolved to the
// friend's registered email before any ticket is touched.
type Recipient struct {
	Kind     RecipientKind
	Email    string
	FriendID uint
}

func EmailRecipient(email string) Recipient {
	return Recipient{Kind: RecipientEmail, Email: email}
}

func FriendRecipient(id uint) Recipient {
	return Recipient{Kind: RecipientFriend, FriendID: id}
}

// Gift reports the outcome of one recipient in a gift batch.
type Gift struct {
	Email      string `json:"email"`
	Token      string `json:"-"`
	HasAccount bool   `json:"has_account"`
	UserID     *uint  `json:"user_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// GiftBatch is the all-or-nothing result of a gift call. Invited lists the
// recipient emails without an account, which get an invitation mail with the
// redeem link.
type GiftBatch struct {
	Gifts   []Gift   `json:"gifts"`
	Invited []string `json:"invited"`
}

// GiftPreview is what an unauthenticated holder of a gift link may see. The
// recipient email is masked and account binding is never revealed.
type GiftPreview struct {
	EventID        string `json:"event_id"`
	EventTitle     string `json:"event_title"`
	GiverName      string `json:"giver_name"`
	RecipientEmail string `json:"recipient_email,omitempty"`
}
