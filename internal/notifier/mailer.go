package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/thefndrs/allons-api/internal/config"
)

// Mailer sends transactional mail through MailerSend.
type Mailer struct {
	client    *mailersend.Mailersend
	fromName  string
	fromEmail string
}

func NewMailer(conf *config.MailConfig) *Mailer {
	return &Mailer{
		client:    mailersend.NewMailersend(conf.APIKey),
		fromName:  conf.FromName,
		fromEmail: conf.FromEmail,
	}
}

// SendGiftInvitation mails a recipient the link that redeems their gift.
func (m *Mailer) SendGiftInvitation(to, giverName, eventTitle, redeemURL string) error {
	subject := fmt.Sprintf("%s sent you a ticket to %s", giverName, eventTitle)
	text := fmt.Sprintf(
		"%s has gifted you a ticket to %s.\n\nClaim it here: %s\n\nThe link is personal, please don't share it.",
		giverName, eventTitle, redeemURL,
	)

	return m.send(to, subject, text)
}

// SendTicketConfirmation mails a claimed ticket to its new owner.
func (m *Mailer) SendTicketConfirmation(to, eventTitle string, ticketID uint) error {
	subject := fmt.Sprintf("Your ticket to %s", eventTitle)
	text := fmt.Sprintf(
		"Your ticket to %s is confirmed.\n\nTicket number: %d\n\nShow this email at the entrance.",
		eventTitle, ticketID,
	)

	return m.send(to, subject, text)
}

func (m *Mailer) send(to, subject, text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	message := m.client.Email.NewMessage()
	message.SetFrom(mailersend.From{
		Name:  m.fromName,
		Email: m.fromEmail,
	})
	message.SetRecipients([]mailersend.Recipient{
		{
			Email: to,
		},
	})
	message.SetSubject(subject)
	message.SetText(text)

	if _, err := m.client.Email.Send(ctx, message); err != nil {
		return fmt.Errorf("m.client.Email.Send -> %w", err)
	}

	return nil
}
