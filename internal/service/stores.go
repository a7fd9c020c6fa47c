package service

import (
	"context"

	"go-messenger/internal/model"
)

// Storage contracts the services depend on. Implemented by the pgx
// repositories, the Redis session store, and the in-memory stores.

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u model.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	SetActive(ctx context.Context, userID string, active bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.User, error)
}

type SessionStore interface {
	Put(ctx context.Context, s model.Session) error
	Get(ctx context.Context, id string) (model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

type MessageStore interface {
	Insert(ctx context.Context, m model.Message) error
	Get(ctx context.Context, id string) (model.Message, error)
	ListForRecipient(ctx context.Context, userID string) ([]model.Message, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}
