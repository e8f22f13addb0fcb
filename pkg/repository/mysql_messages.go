package repository

import (
	"context"

	"github.com/gemmoherb/portal/pkg/models"
	"gorm.io/gorm"
)

type MySQLMessages struct{ db *gorm.DB }

var _ MessageRepository = (*MySQLMessages)(nil)

func NewMySQLMessages(db *gorm.DB) *MySQLMessages {
	return &MySQLMessages{db: db}
}

func (r *MySQLMessages) Create(ctx context.Context, m *models.Message) error {
	return translate(conn(ctx, r.db).Create(m).Error)
}

func (r *MySQLMessages) Conversation(ctx context.Context, a, b uint) ([]models.Message, error) {
	var messages []models.Message
	err := conn(ctx, r.db).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Order("created_at").Order("id").
		Find(&messages).Error
	if err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

func (r *MySQLMessages) MarkRead(ctx context.Context, recipientID, senderID uint) error {
	return translate(conn(ctx, r.db).Model(&models.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", recipientID, senderID, false).
		Update("is_read", true).Error)
}

func (r *MySQLMessages) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}
