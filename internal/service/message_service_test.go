package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-messenger/internal/model"
	"go-messenger/internal/repository"
)

type messageFixture struct {
	users    *repository.MemoryUserStore
	messages *repository.MemoryMessageStore
	svc      *MessageService
	alice    model.User
	bob      model.User
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	f := &messageFixture{
		users:    repository.NewMemoryUserStore(),
		messages: repository.NewMemoryMessageStore(),
	}
	f.svc = NewMessageService(f.messages, f.users)

	ctx := context.Background()
	f.alice = model.User{ID: "u-alice", Username: "alice", Active: true}
	f.bob = model.User{ID: "u-bob", Username: "bob", Active: true}
	require.NoError(t, f.users.Create(ctx, f.alice))
	require.NoError(t, f.users.Create(ctx, f.bob))
	return f
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("delivers to the recipient's inbox", func(t *testing.T) {
		f := newMessageFixture(t)

		sent, err := f.svc.Send(ctx, f.alice.ID, model.SendMessageRequest{
			Recipient: "bob",
			Title:     "lunch",
			Body:      "noon?",
		})
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(sent.ID, "me_"))
		require.Equal(t, f.alice.ID, sent.SenderID)
		require.Equal(t, f.bob.ID, sent.RecipientID)

		inbox, err := f.svc.Inbox(ctx, f.bob.ID)
		require.NoError(t, err)
		require.Len(t, inbox, 1)
		require.Equal(t, sent.ID, inbox[0].ID)

		// Nothing lands in the sender's inbox.
		inbox, err = f.svc.Inbox(ctx, f.alice.ID)
		require.NoError(t, err)
		require.Empty(t, inbox)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		f := newMessageFixture(t)

		_, err := f.svc.Send(ctx, f.alice.ID, model.SendMessageRequest{
			Recipient: "charlie",
			Title:     "hello",
			Body:      "anyone there?",
		})
		require.ErrorIs(t, err, model.ErrRecipientNotFound)
	})

	t.Run("input validation", func(t *testing.T) {
		f := newMessageFixture(t)

		cases := []model.SendMessageRequest{
			{},
			{Recipient: "bob", Title: "", Body: "body"},
			{Recipient: "bob", Title: "title", Body: ""},
			{Recipient: "bob", Title: strings.Repeat("x", 201), Body: "body"},
		}
		for _, req := range cases {
			_, err := f.svc.Send(ctx, f.alice.ID, req)
			require.ErrorIs(t, err, model.ErrInvalidInput)
		}
	})
}

func TestInboxOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newMessageFixture(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		sentAt := base.Add(time.Duration(i) * time.Minute)
		f.svc.now = func() time.Time { return sentAt }

		_, err := f.svc.Send(ctx, f.alice.ID, model.SendMessageRequest{
			Recipient: "bob",
			Title:     title,
			Body:      "body",
		})
		require.NoError(t, err)
	}

	inbox, err := f.svc.Inbox(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, inbox, 3)

	// Newest first.
	require.Equal(t, "third", inbox[0].Title)
	require.Equal(t, "second", inbox[1].Title)
	require.Equal(t, "first", inbox[2].Title)
}

func TestDeleteMessage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	send := func(t *testing.T, f *messageFixture) model.Message {
		t.Helper()
		msg, err := f.svc.Send(ctx, f.alice.ID, model.SendMessageRequest{
			Recipient: "bob",
			Title:     "title",
			Body:      "body",
		})
		require.NoError(t, err)
		return msg
	}

	t.Run("recipient may delete", func(t *testing.T) {
		f := newMessageFixture(t)
		msg := send(t, f)

		require.NoError(t, f.svc.Delete(ctx, f.bob, msg.ID))
		_, err := f.messages.Get(ctx, msg.ID)
		require.ErrorIs(t, err, model.ErrMessageNotFound)
	})

	t.Run("sender may not delete", func(t *testing.T) {
		f := newMessageFixture(t)
		msg := send(t, f)

		err := f.svc.Delete(ctx, f.alice, msg.ID)
		require.ErrorIs(t, err, model.ErrInsufficientPrivilege)
	})

	t.Run("admin may delete anything", func(t *testing.T) {
		f := newMessageFixture(t)
		msg := send(t, f)

		admin := model.User{ID: "u-admin", Username: "root", Admin: true}
		require.NoError(t, f.svc.Delete(ctx, admin, msg.ID))
	})

	t.Run("unknown message", func(t *testing.T) {
		f := newMessageFixture(t)
		err := f.svc.Delete(ctx, f.bob, "me_missing")
		require.ErrorIs(t, err, model.ErrMessageNotFound)
	})
}
