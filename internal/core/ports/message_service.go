package ports

import (
	"context"

	"github.com/sirpyerre/chat-system/internal/core/domain"
)

// SendMessageInput is the DTO passed from the transport layer to MessageService.
type SendMessageInput struct {
	SenderID   string
	ReceiverID string
	Text       string
	// Image is either a data URL / base64 payload to upload, or an already
	// hosted http(s) URL.
	Image string
}

// MessageService implements direct messaging.
type MessageService interface {
	Send(ctx context.Context, in SendMessageInput) (*domain.Message, error)
	Conversation(ctx context.Context, userID, otherID string) ([]*domain.Message, error)
	Contacts(ctx context.Context, userID string) ([]*domain.User, error)
}

// DeliveryNotifier receives messages after they were persisted. Implementations
// must not block and must not report failures back to the sender.
type DeliveryNotifier interface {
	Notify(msg *domain.Message)
}

// LivePusher pushes a message over the receiver's open connection, if any.
type LivePusher interface {
	Push(ctx context.Context, receiverID string, msg *domain.Message) error
}
