//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
package store

import (
	"context"

	"github.com/devaloi/guestbook/internal/domain"
)

// Store defines the message persistence interface.
type Store interface {
	// Save persists a message.
	Save(ctx context.Context, msg domain.Message) error
	// List returns every message, oldest first.
	List(ctx context.Context) ([]domain.Message, error)
	// Close releases any resources held by the store.
	Close() error
}
