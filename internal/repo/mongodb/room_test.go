package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRoomGetOrCreateLostInsertRace(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate key resolves to the existing room", func(mt *mtest.T) {
		repo := &RoomRepo{collection: mt.Coll}

		// Another session won the insert; this one's upsert hits the unique
		// pair_key index and must come back with that session's room.
		now := time.Now().UTC().Truncate(time.Millisecond)
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error index: pair_key_1",
			}),
			mtest.CreateCursorResponse(0, "chat_service.rooms", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "room1"},
				{Key: "pair_key", Value: "1|2"},
				{Key: "participant_ids", Value: bson.A{"1", "2"}},
				{Key: "unread", Value: bson.D{}},
				{Key: "created_at", Value: now},
				{Key: "updated_at", Value: now},
			}),
		)

		room, created, err := repo.GetOrCreate(context.Background(), "1", "2")
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, "room1", room.ID)
		assert.Equal(mt, "1|2", room.PairKey)
	})

	mt.Run("other write errors surface", func(mt *mtest.T) {
		repo := &RoomRepo{collection: mt.Coll}

		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    8000,
			Message: "rate limited",
		}))

		_, _, err := repo.GetOrCreate(context.Background(), "1", "2")
		require.Error(mt, err)
	})
}
