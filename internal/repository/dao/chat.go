package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Chat is a direct conversation between two users. The pair is stored in
// canonical order (User1ID < User2ID) so a pair maps to exactly one row.
type Chat struct {
	ID        uint `gorm:"primaryKey"`
	User1ID   uint `gorm:"not null;uniqueIndex:idx_chats_pair"`
	User2ID   uint `gorm:"not null;uniqueIndex:idx_chats_pair"`
	CreatedAt time.Time
}

type ChatMessage struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    uint   `gorm:"not null;index"`
	SenderID  uint   `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time
}

type ChatDAO struct {
	db *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{
		db: db,
	}
}

func (d *ChatDAO) GetOrCreate(ctx context.Context, a, b uint) (Chat, error) {
	if a > b {
		a, b = b, a
	}

	var chat Chat
	result := d.db.WithContext(ctx).
		Where(Chat{User1ID: a, User2ID: b}).
		FirstOrCreate(&chat)
	if result.Error != nil {
		return Chat{}, result.Error
	}

	return chat, nil
}

func (d *ChatDAO) InsertMessage(ctx context.Context, msg ChatMessage) (ChatMessage, error) {
	result := d.db.WithContext(ctx).Create(&msg)
	if result.Error != nil {
		return ChatMessage{}, result.Error
	}

	return msg, nil
}

func (d *ChatDAO) FindMessages(ctx context.Context, chatID uint) ([]ChatMessage, error) {
	var messages []ChatMessage

	result := d.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}

	return messages, nil
}
