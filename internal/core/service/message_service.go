package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/chat-system/internal/core/domain"
	"github.com/sirpyerre/chat-system/internal/core/ports"
	"github.com/sirpyerre/chat-system/internal/pkg/metrics"
)

const (
	messageImageFolder = "message-images"

	// sendLockStripes bounds the per-receiver locks held around
	// persist+notify.
	sendLockStripes = 64
)

type MessageService struct {
	users    ports.UserRepository
	messages ports.MessageRepository
	media    ports.MediaUploader
	notifier ports.DeliveryNotifier
	log      zerolog.Logger

	// sendLocks keep notify order equal to persist order for one receiver.
	sendLocks [sendLockStripes]sync.Mutex
}

// NewMessageService returns a MessageService. notifier may be nil, in which
// case messages are only persisted.
func NewMessageService(
	users ports.UserRepository,
	messages ports.MessageRepository,
	media ports.MediaUploader,
	notifier ports.DeliveryNotifier,
	log zerolog.Logger,
) *MessageService {
	return &MessageService{
		users:    users,
		messages: messages,
		media:    media,
		notifier: notifier,
		log:      log,
	}
}

// Send validates and persists a message, then hands it to the notifier for
// live delivery. The returned message is the persisted one regardless of
// whether the receiver is online.
func (s *MessageService) Send(ctx context.Context, in ports.SendMessageInput) (*domain.Message, error) {
	image := strings.TrimSpace(in.Image)

	// 1. Content check comes first so nothing is stored for empty sends.
	// Text is stored as sent; whitespace only counts as empty.
	if strings.TrimSpace(in.Text) == "" && image == "" {
		return nil, domain.ErrEmptyMessage
	}
	if in.SenderID == "" {
		return nil, domain.ErrUnauthorized
	}

	// 2. Receiver must exist.
	if _, err := s.users.FindByID(ctx, in.ReceiverID); err != nil {
		return nil, err
	}

	// 3. Inline image payloads go to the media host first.
	if image != "" && !isHostedURL(image) {
		url, err := s.media.Upload(ctx, messageImageFolder, image)
		if err != nil {
			return nil, err
		}
		image = url
	}

	// 4. Persist, then notify under the receiver's lock.
	lock := s.sendLock(in.ReceiverID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	msg, err := s.messages.Append(ctx, &domain.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Text:       in.Text,
		Image:      image,
	})
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.MessagePersistDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Error().Err(err).
			Str("sender_id", in.SenderID).
			Str("receiver_id", in.ReceiverID).
			Msg("failed to persist message")
		return nil, err
	}
	metrics.MessagesSentTotal.WithLabelValues(msg.Kind()).Inc()

	// 5. Post-commit side effect.
	s.afterCommit(msg)

	return msg, nil
}

func (s *MessageService) sendLock(receiverID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(receiverID))
	return &s.sendLocks[h.Sum32()%sendLockStripes]
}

func (s *MessageService) afterCommit(msg *domain.Message) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(msg)
}

func (s *MessageService) Conversation(ctx context.Context, userID, otherID string) ([]*domain.Message, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if otherID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	msgs, err := s.messages.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}

// Contacts lists every account except the caller (sidebar).
func (s *MessageService) Contacts(ctx context.Context, userID string) ([]*domain.User, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	users, err := s.users.ListExcluding(ctx, userID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

func isHostedURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
