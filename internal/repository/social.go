package repository

import (
	"context"
	"fmt"

	"github.com/thefndrs/allons-api/internal/domain"
	"github.com/thefndrs/allons-api/internal/repository/dao"
)

type FriendDAO interface {
	AreFriends(ctx context.Context, a, b uint) (bool, error)
}

type ChatDAO interface {
	GetOrCreate(ctx context.Context, a, b uint) (dao.Chat, error)
	InsertMessage(ctx context.Context, msg dao.ChatMessage) (dao.ChatMessage, error)
	FindMessages(ctx context.Context, chatID uint) ([]dao.ChatMessage, error)
}

// SocialRepository covers the friendship graph and direct messages. Gifting
// consults it to validate friend recipients and to drop confirmation
// messages into the recipient's inbox.
type SocialRepository struct {
	friendDAO FriendDAO
	chatDAO   ChatDAO
}

func NewSocialRepository(friendDAO FriendDAO, chatDAO ChatDAO) *SocialRepository {
	return &SocialRepository{
		friendDAO: friendDAO,
		chatDAO:   chatDAO,
	}
}

func (r *SocialRepository) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	ok, err := r.friendDAO.AreFriends(ctx, a, b)
	if err != nil {
		return false, fmt.Errorf("r.friendDAO.AreFriends -> %w", err)
	}

	return ok, nil
}

// SendDirectMessage writes content into the one-to-one chat between sender
// and recipient, creating the chat if the pair never talked before.
func (r *SocialRepository) SendDirectMessage(ctx context.Context, senderID, recipientID uint, content string) (domain.ChatMessage, error) {
	chat, err := r.chatDAO.GetOrCreate(ctx, senderID, recipientID)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("r.chatDAO.GetOrCreate -> %w", err)
	}

	msg, err := r.chatDAO.InsertMessage(ctx, dao.ChatMessage{
		ChatID:   chat.ID,
		SenderID: senderID,
		Content:  content,
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("r.chatDAO.InsertMessage -> %w", err)
	}

	return r.messageDaoToDomain(msg), nil
}

func (r *SocialRepository) FindMessages(ctx context.Context, userA, userB uint) ([]domain.ChatMessage, error) {
	chat, err := r.chatDAO.GetOrCreate(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("r.chatDAO.GetOrCreate -> %w", err)
	}

	messages, err := r.chatDAO.FindMessages(ctx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("r.chatDAO.FindMessages -> %w", err)
	}

	out := make([]domain.ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = r.messageDaoToDomain(m)
	}

	return out, nil
}

func (r *SocialRepository) messageDaoToDomain(m dao.ChatMessage) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
