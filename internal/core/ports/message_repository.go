package ports

import (
	"context"

	"github.com/sirpyerre/chat-system/internal/core/domain"
)

// MessageRepository persists direct messages.
type MessageRepository interface {
	// Append assigns the message ID and CreatedAt and stores it.
	Append(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	// Conversation returns the messages exchanged between a and b in either
	// direction, oldest first.
	Conversation(ctx context.Context, a, b string) ([]*domain.Message, error)
}
