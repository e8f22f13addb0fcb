package service

import (
	"context"
	"fmt"

	"github.com/gemmoherb/portal/pkg/models"
	"go.uber.org/zap"
)

type MessageService struct {
	*base
	logger *zap.Logger
}

type SendMessageInput struct {
	RecipientID uint   `json:"recipient_id" validate:"required"`
	Content     string `json:"content" validate:"required,max=5000"`
}

func (s *MessageService) Send(ctx context.Context, p *Principal, in SendMessageInput) (*models.Message, error) {
	if err := RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.RecipientID == p.UserID {
		return nil, invalid("cannot send a message to yourself")
	}
	if _, err := s.deps.Users.GetByID(ctx, in.RecipientID); err != nil {
		return nil, storeError(err, fmt.Sprintf("user %d", in.RecipientID))
	}
	msg := &models.Message{
		SenderID:    p.UserID,
		RecipientID: in.RecipientID,
		Content:     in.Content,
		CreatedAt:   s.deps.Clock.Now(),
	}
	if err := s.deps.Messages.Create(ctx, msg); err != nil {
		return nil, storeError(err, "send message")
	}
	s.logger.Debug("Message sent", zap.Uint("sender_id", msg.SenderID), zap.Uint("recipient_id", msg.RecipientID))
	s.deps.Notifier.MessageSent(msg)
	return msg, nil
}

// Conversation returns the messages exchanged between the caller and other, oldest first.
func (s *MessageService) Conversation(ctx context.Context, p *Principal, other uint) ([]models.Message, error) {
	if err := RequireAuthenticated(p); err != nil {
		return nil, err
	}
	messages, err := s.deps.Messages.Conversation(ctx, p.UserID, other)
	if err != nil {
		return nil, storeError(err, "load conversation")
	}
	return messages, nil
}

// MarkRead marks every message sender sent to the caller as read.
func (s *MessageService) MarkRead(ctx context.Context, p *Principal, sender uint) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	return storeError(s.deps.Messages.MarkRead(ctx, p.UserID, sender), "mark messages read")
}

func (s *MessageService) UnreadCount(ctx context.Context, p *Principal) (int64, error) {
	if err := RequireAuthenticated(p); err != nil {
		return 0, err
	}
	n, err := s.deps.Messages.CountUnread(ctx, p.UserID)
	if err != nil {
		return 0, storeError(err, "count unread messages")
	}
	return n, nil
}
