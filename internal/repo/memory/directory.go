package memory

import (
	"context"
	"sync"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/repository"
)

// Directory is the in-memory participant directory. Entries are loaded by
// the owning collaborator (seed data in demo mode, tests otherwise).
type Directory struct {
	mu           sync.RWMutex
	participants map[string]models.Participant
}

var _ repository.ParticipantDirectory = (*Directory)(nil)

func NewDirectory() *Directory {
	return &Directory{
		participants: make(map[string]models.Participant),
	}
}

func (d *Directory) Put(participant models.Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants[participant.ID] = participant
}

func (d *Directory) Resolve(_ context.Context, participantID string) (*models.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	participant, ok := d.participants[participantID]
	if !ok {
		return nil, models.ErrParticipantNotFound
	}
	return &participant, nil
}

func (d *Directory) ListByIDs(_ context.Context, participantIDs []string) ([]models.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	participants := make([]models.Participant, 0, len(participantIDs))
	for _, id := range participantIDs {
		if participant, ok := d.participants[id]; ok {
			participants = append(participants, participant)
		}
	}
	return participants, nil
}
