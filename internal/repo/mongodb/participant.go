package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/repository"
)

// ParticipantRepo reads the directory collection maintained by the identity
// service. The chat core never writes to it.
type ParticipantRepo struct {
	collection *mongo.Collection
}

var _ repository.ParticipantDirectory = (*ParticipantRepo)(nil)

func NewParticipantDirectory(db *DB) *ParticipantRepo {
	return &ParticipantRepo{
		collection: db.Database.Collection(models.Participant{}.CollectionName()),
	}
}

func (r *ParticipantRepo) Resolve(ctx context.Context, participantID string) (*models.Participant, error) {
	var participant models.Participant
	err := r.collection.FindOne(ctx, bson.M{"_id": participantID}).Decode(&participant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve participant: %w", err)
	}
	return &participant, nil
}

func (r *ParticipantRepo) ListByIDs(ctx context.Context, participantIDs []string) ([]models.Participant, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": participantIDs}})
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	var participants []models.Participant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	return participants, nil
}
