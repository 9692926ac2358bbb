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

// MessageRepo is the in-memory append-only message log. Read receipts are
// set-semantic, so repeated marks are no-ops.
type MessageRepo struct {
	mu     sync.Mutex
	byRoom map[string][]*models.Message
	byID   map[string]*models.Message
	seq    int
}

var _ repository.MessageRepository = (*MessageRepo)(nil)

func NewMessageRepository() *MessageRepo {
	return &MessageRepo{
		byRoom: make(map[string][]*models.Message),
		byID:   make(map[string]*models.Message),
	}
}

func (r *MessageRepo) Append(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.seq++
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("msg_%d_%d", now.UnixMilli(), r.seq)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	if msg.DeliveredAt == nil {
		msg.DeliveredAt = &now
	}
	if len(msg.ReadBy) == 0 {
		msg.ReadBy = []string{msg.SenderID}
	}

	stored := cloneMessage(msg)
	r.byRoom[msg.RoomID] = append(r.byRoom[msg.RoomID], stored)
	r.byID[msg.ID] = stored
	return nil
}

func (r *MessageRepo) ListByRoom(_ context.Context, roomID string) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.byRoom[roomID]
	messages := make([]*models.Message, len(stored))
	for i, msg := range stored {
		messages[i] = cloneMessage(msg)
	}
	// Append order already breaks created_at ties; a stable sort keeps it.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r *MessageRepo) MarkReadBy(_ context.Context, roomID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range r.byRoom[roomID] {
		addReader(msg, readerID)
	}
	return nil
}

func (r *MessageRepo) AddReadBy(_ context.Context, messageID string, readerIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.byID[messageID]
	if !ok {
		return models.ErrNotFound
	}
	for _, id := range readerIDs {
		addReader(msg, id)
	}
	return nil
}

func (r *MessageRepo) CountByRoom(_ context.Context, roomID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byRoom[roomID])), nil
}

func (r *MessageRepo) CountAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, msgs := range r.byRoom {
		count += int64(len(msgs))
	}
	return count, nil
}

func addReader(msg *models.Message, readerID string) {
	if !msg.IsReadBy(readerID) {
		msg.ReadBy = append(msg.ReadBy, readerID)
	}
}

func cloneMessage(msg *models.Message) *models.Message {
	clone := *msg
	clone.ReadBy = append([]string(nil), msg.ReadBy...)
	if msg.DeliveredAt != nil {
		delivered := *msg.DeliveredAt
		clone.DeliveredAt = &delivered
	}
	return &clone
}
