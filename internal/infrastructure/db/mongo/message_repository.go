package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirpyerre/chat-system/internal/core/domain"
)

const collectionMessages = "messages"

// MessageRepository implements ports.MessageRepository using MongoDB.
type MessageRepository struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewMessageRepository(db *mongo.Database, timeout time.Duration) *MessageRepository {
	return &MessageRepository{col: db.Collection(collectionMessages), timeout: opTimeout(timeout)}
}

type messageDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SenderID   string             `bson:"sender_id"`
	ReceiverID string             `bson:"receiver_id"`
	Text       string             `bson:"text,omitempty"`
	Image      string             `bson:"image,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (d *messageDocument) toDomain() *domain.Message {
	return &domain.Message{
		ID:         d.ID.Hex(),
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		Text:       d.Text,
		Image:      d.Image,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

func newMessageDocument(m *domain.Message, now time.Time) messageDocument {
	return messageDocument{
		ID:         primitive.NewObjectID(),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		Image:      m.Image,
		CreatedAt:  now,
	}
}

// Append stores msg and returns it with its id and timestamp assigned.
func (r *MessageRepository) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// BSON dates keep millisecond precision.
	doc := newMessageDocument(msg, time.Now().UTC().Truncate(time.Millisecond))
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, storageErr("insert message", err)
	}
	return doc.toDomain(), nil
}

// Conversation returns messages between a and b in either direction, oldest
// first. Messages sharing a timestamp keep insertion order through _id.
func (r *MessageRepository) Conversation(ctx context.Context, a, b string) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(conversationSort())

	cur, err := r.col.Find(ctx, conversationFilter(a, b), opts)
	if err != nil {
		return nil, storageErr("find conversation", err)
	}
	defer cur.Close(ctx)

	var docs []messageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storageErr("decode conversation", err)
	}

	msgs := make([]*domain.Message, 0, len(docs))
	for i := range docs {
		msgs = append(msgs, docs[i].toDomain())
	}
	return msgs, nil
}

func conversationFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
}

func conversationSort() bson.D {
	return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
}

// EnsureIndexes creates the compound index serving Conversation.
func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sender_id", Value: 1},
			{Key: "receiver_id", Value: 1},
			{Key: "created_at", Value: 1},
		},
	})
	return err
}
