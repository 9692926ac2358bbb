package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/repository"
)

type RoomRepo struct {
	collection *mongo.Collection
}

var _ repository.RoomRepository = (*RoomRepo)(nil)

func NewRoomRepository(db *DB) *RoomRepo {
	return &RoomRepo{
		collection: db.Database.Collection(models.Room{}.CollectionName()),
	}
}

func (r *RoomRepo) GetOrCreate(ctx context.Context, participantA, participantB string) (*models.Room, bool, error) {
	now := time.Now()
	pairKey := models.PairKey(participantA, participantB)

	// Upsert on pair_key keeps room creation idempotent and symmetric even
	// when two sessions race on the same pair.
	filter := bson.M{"pair_key": pairKey}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":             primitive.NewObjectID().Hex(),
			"pair_key":        pairKey,
			"participant_ids": []string{participantA, participantB},
			"unread":          bson.M{},
			"created_at":      now,
			"updated_at":      now,
		},
	}
	created := false
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	switch {
	case mongo.IsDuplicateKeyError(err):
		// Lost the insert race against another session; the unique pair_key
		// index guarantees the room exists, so fall through to the read.
	case err != nil:
		return nil, false, fmt.Errorf("upsert room: %w", err)
	default:
		created = result.UpsertedCount > 0
	}

	var room models.Room
	if err := r.collection.FindOne(ctx, filter).Decode(&room); err != nil {
		return nil, false, fmt.Errorf("load upserted room: %w", err)
	}
	return &room, created, nil
}

func (r *RoomRepo) GetByID(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &room, nil
}

func (r *RoomRepo) FindByPair(ctx context.Context, participantA, participantB string) (*models.Room, error) {
	var room models.Room
	err := r.collection.FindOne(ctx, bson.M{"pair_key": models.PairKey(participantA, participantB)}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room by pair: %w", err)
	}
	return &room, nil
}

func (r *RoomRepo) ListForParticipant(ctx context.Context, participantID string) ([]*models.Room, error) {
	filter := bson.M{"participant_ids": participantID}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	var rooms []*models.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

func (r *RoomRepo) ListAll(ctx context.Context) ([]*models.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list all rooms: %w", err)
	}
	var rooms []*models.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

func (r *RoomRepo) RecordMessage(ctx context.Context, room *models.Room, msg *models.Message) error {
	set := bson.M{
		"last_message": msg,
		"updated_at":   msg.CreatedAt,
	}
	inc := bson.M{}
	for _, id := range room.OtherParticipants(msg.SenderID) {
		inc["unread."+id] = 1
	}

	update := bson.M{"$set": set}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": room.ID}, update); err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

func (r *RoomRepo) MarkRead(ctx context.Context, roomID, viewerID string) error {
	update := bson.M{"$set": bson.M{"unread." + viewerID: 0}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": roomID}, update); err != nil {
		return fmt.Errorf("mark room read: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique pair index room upserts race on.
func (r *RoomRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create room indexes: %w", err)
	}
	return nil
}

func (r *RoomRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *RoomRepo) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"updated_at": bson.M{"$gte": since}})
}
