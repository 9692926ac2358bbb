package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/repository"
)

type MessageRepo struct {
	collection *mongo.Collection
}

var _ repository.MessageRepository = (*MessageRepo)(nil)

func NewMessageRepository(db *DB) *MessageRepo {
	return &MessageRepo{
		collection: db.Database.Collection(models.Message{}.CollectionName()),
	}
}

func (r *MessageRepo) Append(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	if msg.DeliveredAt == nil {
		msg.DeliveredAt = &now
	}
	if len(msg.ReadBy) == 0 {
		msg.ReadBy = []string{msg.SenderID}
	}

	if _, err := r.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListByRoom(ctx context.Context, roomID string) ([]*models.Message, error) {
	// _id is generation-ordered and breaks created_at ties deterministically.
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	var messages []*models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

func (r *MessageRepo) MarkReadBy(ctx context.Context, roomID, readerID string) error {
	update := bson.M{"$addToSet": bson.M{"read_by": readerID}}
	if _, err := r.collection.UpdateMany(ctx, bson.M{"room_id": roomID}, update); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

func (r *MessageRepo) AddReadBy(ctx context.Context, messageID string, readerIDs []string) error {
	update := bson.M{"$addToSet": bson.M{"read_by": bson.M{"$each": readerIDs}}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": messageID}, update)
	if err != nil {
		return fmt.Errorf("add read receipts: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *MessageRepo) CountByRoom(ctx context.Context, roomID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"room_id": roomID})
}

func (r *MessageRepo) CountAll(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// EnsureIndexes creates the room/time index the list path relies on.
func (r *MessageRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "created_at", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}
	return nil
}
