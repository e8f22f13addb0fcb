package models

import "time"

type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SenderID    uint      `gorm:"not null;index" json:"sender_id"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsRead      bool      `gorm:"not null" json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
