package repository

import (
	"context"
	"time"

	"github.com/physiohome/chat-service/internal/models"
)

// RoomRepository owns the set of rooms and their viewer-relative aggregates.
// All mutations are idempotent or commutative so interleaved sessions never
// need cross-session locking.
type RoomRepository interface {
	// GetOrCreate returns the room for the unordered participant pair,
	// creating it when absent. The second return reports creation.
	GetOrCreate(ctx context.Context, participantA, participantB string) (*models.Room, bool, error)
	GetByID(ctx context.Context, roomID string) (*models.Room, error)
	FindByPair(ctx context.Context, participantA, participantB string) (*models.Room, error)
	ListForParticipant(ctx context.Context, participantID string) ([]*models.Room, error)
	ListAll(ctx context.Context) ([]*models.Room, error)
	// RecordMessage sets the denormalized last message, bumps updated_at and
	// increments the unread count of every participant except the sender.
	RecordMessage(ctx context.Context, room *models.Room, msg *models.Message) error
	// MarkRead zeroes the viewer's unread count for the room.
	MarkRead(ctx context.Context, roomID, viewerID string) error
	Count(ctx context.Context) (int64, error)
	CountActiveSince(ctx context.Context, since time.Time) (int64, error)
}

// MessageRepository is the append-only per-room message log.
type MessageRepository interface {
	Append(ctx context.Context, msg *models.Message) error
	ListByRoom(ctx context.Context, roomID string) ([]*models.Message, error)
	// MarkReadBy adds the reader to read_by of every message in the room.
	// Adding an already present reader is a no-op.
	MarkReadBy(ctx context.Context, roomID, readerID string) error
	// AddReadBy adds the given readers to one message, for the simulated
	// delivery echo. Returns models.ErrNotFound when the message is gone.
	AddReadBy(ctx context.Context, messageID string, readerIDs []string) error
	CountByRoom(ctx context.Context, roomID string) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}

// ReportRepository stores moderation reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, reportID string) (*models.Report, error)
	ListByRoom(ctx context.Context, roomID string) ([]*models.Report, error)
	List(ctx context.Context, status models.ReportStatus) ([]*models.Report, error)
	// TransitionFromPending atomically moves a pending report to a terminal
	// status. Returns models.ErrInvalidTransition when the report exists but
	// is no longer pending.
	TransitionFromPending(ctx context.Context, reportID string, to models.ReportStatus, reviewedBy, resolution string) (*models.Report, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error)
}

// ParticipantDirectory resolves participant ids to presentation data.
// Read-only from the chat core's perspective.
type ParticipantDirectory interface {
	Resolve(ctx context.Context, participantID string) (*models.Participant, error)
	ListByIDs(ctx context.Context, participantIDs []string) ([]models.Participant, error)
}
