package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/repository"
)

// RoomRepo is the in-memory room registry used by the memory store driver
// and by tests. Mutations mirror the mongo driver's semantics: idempotent,
// viewer-relative unread bookkeeping.
type RoomRepo struct {
	mu     sync.Mutex
	rooms  map[string]*models.Room
	byPair map[string]string
	seq    int
}

var _ repository.RoomRepository = (*RoomRepo)(nil)

func NewRoomRepository() *RoomRepo {
	return &RoomRepo{
		rooms:  make(map[string]*models.Room),
		byPair: make(map[string]string),
	}
}

func (r *RoomRepo) GetOrCreate(_ context.Context, participantA, participantB string) (*models.Room, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pairKey := models.PairKey(participantA, participantB)
	if id, ok := r.byPair[pairKey]; ok {
		return cloneRoom(r.rooms[id]), false, nil
	}

	now := time.Now()
	r.seq++
	room := &models.Room{
		ID:             fmt.Sprintf("room_%d_%d", now.UnixMilli(), r.seq),
		PairKey:        pairKey,
		ParticipantIDs: []string{participantA, participantB},
		Unread:         make(map[string]int),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.rooms[room.ID] = room
	r.byPair[pairKey] = room.ID
	return cloneRoom(room), true, nil
}

func (r *RoomRepo) GetByID(_ context.Context, roomID string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, models.ErrRoomNotFound
	}
	return cloneRoom(room), nil
}

func (r *RoomRepo) FindByPair(_ context.Context, participantA, participantB string) (*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byPair[models.PairKey(participantA, participantB)]
	if !ok {
		return nil, models.ErrRoomNotFound
	}
	return cloneRoom(r.rooms[id]), nil
}

func (r *RoomRepo) ListForParticipant(_ context.Context, participantID string) ([]*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rooms []*models.Room
	for _, room := range r.rooms {
		if room.HasParticipant(participantID) {
			rooms = append(rooms, cloneRoom(room))
		}
	}
	sortByUpdated(rooms)
	return rooms, nil
}

func (r *RoomRepo) ListAll(_ context.Context) ([]*models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]*models.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, cloneRoom(room))
	}
	sortByUpdated(rooms)
	return rooms, nil
}

func (r *RoomRepo) RecordMessage(_ context.Context, room *models.Room, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.rooms[room.ID]
	if !ok {
		return models.ErrRoomNotFound
	}

	msgCopy := *msg
	stored.LastMessage = &msgCopy
	stored.UpdatedAt = msg.CreatedAt
	for _, id := range stored.OtherParticipants(msg.SenderID) {
		stored.Unread[id]++
	}
	return nil
}

func (r *RoomRepo) MarkRead(_ context.Context, roomID, viewerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return models.ErrRoomNotFound
	}
	room.Unread[viewerID] = 0
	return nil
}

func (r *RoomRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rooms)), nil
}

func (r *RoomRepo) CountActiveSince(_ context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, room := range r.rooms {
		if !room.UpdatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func sortByUpdated(rooms []*models.Room) {
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
}

func cloneRoom(room *models.Room) *models.Room {
	clone := *room
	clone.ParticipantIDs = append([]string(nil), room.ParticipantIDs...)
	clone.Unread = make(map[string]int, len(room.Unread))
	for k, v := range room.Unread {
		clone.Unread[k] = v
	}
	if room.LastMessage != nil {
		last := *room.LastMessage
		last.ReadBy = append([]string(nil), room.LastMessage.ReadBy...)
		clone.LastMessage = &last
	}
	return &clone
}
