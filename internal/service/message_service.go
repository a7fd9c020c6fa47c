package service

import (
	"context"
	"strings"
	"time"

	"go-messenger/internal/model"
	"go-messenger/internal/security"
)

// MessageService is the inbox collaborator. It sits entirely behind the auth
// gate and only exists so accounts have something to own; the interesting
// decisions all happen in AuthService.
type MessageService struct {
	messages MessageStore
	users    UserStore
	now      func() time.Time
}

func NewMessageService(messages MessageStore, users UserStore) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		now:      time.Now,
	}
}

func (s *MessageService) Send(ctx context.Context, senderID string, req model.SendMessageRequest) (model.Message, error) {
	req.Recipient = strings.TrimSpace(req.Recipient)
	req.Title = strings.TrimSpace(req.Title)

	for _, f := range []string{req.Recipient, req.Title, req.Body} {
		if f == "" || len(f) > maxFieldLen {
			return model.Message{}, model.ErrInvalidInput
		}
	}

	recipient, err := s.users.FindByUsername(ctx, req.Recipient)
	if err != nil {
		return model.Message{}, model.ErrRecipientNotFound
	}

	id, err := security.RandomID("me")
	if err != nil {
		return model.Message{}, err
	}

	msg := model.Message{
		ID:          id,
		SenderID:    senderID,
		RecipientID: recipient.ID,
		SentAt:      s.now().UTC(),
		Title:       req.Title,
		Body:        req.Body,
	}

	if err := s.messages.Insert(ctx, msg); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

func (s *MessageService) Inbox(ctx context.Context, userID string) ([]model.Message, error) {
	return s.messages.ListForRecipient(ctx, userID)
}

// Delete removes a message. Only the recipient or an administrator may do
// so.
func (s *MessageService) Delete(ctx context.Context, actor model.User, messageID string) error {
	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return err
	}

	if msg.RecipientID != actor.ID && !actor.Admin {
		return model.ErrInsufficientPrivilege
	}
	return s.messages.Delete(ctx, messageID)
}
