package notifier

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thefndrs/allons-api/internal/domain"
)

type MessageSender interface {
	SendDirectMessage(ctx context.Context, senderID, recipientID uint, content string) (domain.ChatMessage, error)
}

type EventCatalog interface {
	GetEvent(id string) *domain.Event
}

// Dispatcher fans a committed ticket mutation out to mail, chat and
// websocket. Every channel is best-effort: failures are logged and never
// propagated, so a mail outage cannot fail a booking.
type Dispatcher struct {
	mailer      *Mailer
	hub         *Hub
	messages    MessageSender
	catalog     EventCatalog
	frontendURL string
}

func NewDispatcher(mailer *Mailer, hub *Hub, messages MessageSender, catalog EventCatalog, frontendURL string) *Dispatcher {
	return &Dispatcher{
		mailer:      mailer,
		hub:         hub,
		messages:    messages,
		catalog:     catalog,
		frontendURL: frontendURL,
	}
}

// GiftIssued notifies every recipient of a committed gift batch. All
// recipients get the invitation mail with their redeem link; recipients with
// an account additionally get an in-app message and a live push.
func (d *Dispatcher) GiftIssued(ctx context.Context, giver domain.User, event *domain.Event, batch domain.GiftBatch) {
	eventTitle := "an event"
	if event != nil {
		eventTitle = event.Title
	}

	for _, gift := range batch.Gifts {
		redeemURL := fmt.Sprintf("%s/gifts/%s", d.frontendURL, gift.Token)

		if err := d.mailer.SendGiftInvitation(gift.Email, giver.Name, eventTitle, redeemURL); err != nil {
			zap.L().Error("failed to send gift invitation",
				zap.String("recipient", gift.Email),
				zap.Error(err))
		}

		if !gift.HasAccount || gift.UserID == nil {
			continue
		}

		content := fmt.Sprintf("I sent you a ticket to %s! Claim it here: %s", eventTitle, redeemURL)
		if _, err := d.messages.SendDirectMessage(ctx, giver.ID, *gift.UserID, content); err != nil {
			zap.L().Error("failed to send gift chat message",
				zap.Uint("recipient_id", *gift.UserID),
				zap.Error(err))
		}

		d.hub.Push(*gift.UserID, map[string]interface{}{
			"type":        "gift_received",
			"event_title": eventTitle,
			"giver_name":  giver.Name,
			"redeem_url":  redeemURL,
		})
	}
}

// GiftRedeemed confirms a claim to the new owner by mail and tells the
// original purchaser their gift was accepted.
func (d *Dispatcher) GiftRedeemed(ctx context.Context, ticket domain.Ticket, claimer domain.User) {
	eventTitle := ticket.EventID
	if event := d.catalog.GetEvent(ticket.EventID); event != nil {
		eventTitle = event.Title
	}

	if err := d.mailer.SendTicketConfirmation(claimer.Email, eventTitle, ticket.ID); err != nil {
		zap.L().Error("failed to send ticket confirmation",
			zap.String("recipient", claimer.Email),
			zap.Error(err))
	}

	if ticket.PurchaserID == claimer.ID {
		return
	}

	content := "I claimed the ticket you sent me. Thank you!"
	if _, err := d.messages.SendDirectMessage(ctx, claimer.ID, ticket.PurchaserID, content); err != nil {
		zap.L().Error("failed to send redeem chat message",
			zap.Uint("purchaser_id", ticket.PurchaserID),
			zap.Error(err))
	}

	d.hub.Push(ticket.PurchaserID, map[string]interface{}{
		"type":         "gift_claimed",
		"ticket_id":    ticket.ID,
		"claimer_name": claimer.Name,
	})
}
