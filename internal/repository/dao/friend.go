package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Friend is a single friendship edge. One row in either direction makes the
// pair friends; this service only reads the table, the social subsystem
// writes it.
type Friend struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_friends_pair"`
	FriendID  uint `gorm:"not null;uniqueIndex:idx_friends_pair"`
	CreatedAt time.Time
}

type FriendDAO struct {
	db *gorm.DB
}

func NewFriendDAO(db *gorm.DB) *FriendDAO {
	return &FriendDAO{
		db: db,
	}
}

func (d *FriendDAO) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&Friend{}).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}
