package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"golang.org/x/sync/errgroup"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/internal/kafka"
	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/realtime"
	"github.com/physiohome/chat-service/internal/repo/storage"
	"github.com/physiohome/chat-service/internal/repository"
	"github.com/physiohome/chat-service/internal/session"
	"github.com/physiohome/chat-service/pkg/util"
)

// SocketBroadcaster pushes chat events to connected room members.
type SocketBroadcaster interface {
	BroadcastMessage(roomID string, msg *models.Message)
	BroadcastRoomUpdated(roomID string)
	BroadcastTyping(roomID string, typists []string)
}

// ChatUseCase is the session-facing facade over the room registry, message
// store, typing tracker and per-viewer connections.
type ChatUseCase struct {
	rooms     repository.RoomRepository
	messages  repository.MessageRepository
	directory repository.ParticipantDirectory
	sessions  *session.Registry
	typing    *realtime.TypingTracker
	storage   storage.Client
	events    kafka.Publisher
	sockets   SocketBroadcaster
	conf      *config.Config
}

func NewChatUseCase(
	rooms repository.RoomRepository,
	messages repository.MessageRepository,
	directory repository.ParticipantDirectory,
	sessions *session.Registry,
	typing *realtime.TypingTracker,
	storageClient storage.Client,
	events kafka.Publisher,
	conf *config.Config,
) *ChatUseCase {
	return &ChatUseCase{
		rooms:     rooms,
		messages:  messages,
		directory: directory,
		sessions:  sessions,
		typing:    typing,
		storage:   storageClient,
		events:    events,
		conf:      conf,
	}
}

// SetBroadcaster wires the socket layer in after construction; the socket
// handler depends on the usecase, so this breaks the cycle.
func (uc *ChatUseCase) SetBroadcaster(b SocketBroadcaster) {
	uc.sockets = b
}

// ListRooms returns the viewer's rooms, newest activity first, annotated
// with the viewer-relative unread count and resolved participants.
func (uc *ChatUseCase) ListRooms(ctx context.Context, viewer models.Viewer) ([]models.RoomView, error) {
	rooms, err := uc.rooms.ListForParticipant(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}

	views := make([]models.RoomView, len(rooms))
	g, gctx := errgroup.WithContext(ctx)
	for i, room := range rooms {
		g.Go(func() error {
			participants, err := uc.directory.ListByIDs(gctx, room.ParticipantIDs)
			if err != nil {
				return err
			}
			views[i] = models.RoomView{
				ID:           room.ID,
				Participants: participants,
				LastMessage:  room.LastMessage,
				UnreadCount:  room.UnreadFor(viewer.ID),
				CreatedAt:    room.CreatedAt,
				UpdatedAt:    room.UpdatedAt,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// SelectRoom makes the room the viewer's active conversation: the room's
// unread count drops to zero and every message gains the viewer's read
// receipt. Returns the room history.
func (uc *ChatUseCase) SelectRoom(ctx context.Context, viewer models.Viewer, roomID string) ([]*models.Message, error) {
	if _, err := uc.memberRoom(ctx, viewer, roomID); err != nil {
		return nil, err
	}
	if err := uc.rooms.MarkRead(ctx, roomID, viewer.ID); err != nil {
		return nil, err
	}
	if err := uc.messages.MarkReadBy(ctx, roomID, viewer.ID); err != nil {
		return nil, err
	}
	return uc.messages.ListByRoom(ctx, roomID)
}

// SendMessage appends a message to the room. It requires the viewer's
// connection to be available, trims empty text drafts, updates the room
// aggregates, clears the sender's typing flag and schedules the simulated
// read echo.
func (uc *ChatUseCase) SendMessage(ctx context.Context, viewer models.Viewer, draft models.MessageDraft) (*models.Message, error) {
	sess, err := uc.requireConnected(viewer)
	if err != nil {
		return nil, err
	}
	room, err := uc.memberRoom(ctx, viewer, draft.RoomID)
	if err != nil {
		return nil, err
	}
	if draft.Type == models.MessageTypeText && strings.TrimSpace(draft.Content) == "" {
		return nil, models.ErrEmptyContent
	}

	msg := &models.Message{
		RoomID:   room.ID,
		SenderID: viewer.ID,
		Type:     draft.Type,
		Content:  draft.Content,
		FileName: draft.FileName,
		FileSize: draft.FileSize,
	}
	if err := uc.messages.Append(ctx, msg); err != nil {
		return nil, err
	}
	if err := uc.rooms.RecordMessage(ctx, room, msg); err != nil {
		return nil, err
	}

	uc.typing.Stop(room.ID, viewer.ID)
	uc.scheduleReadEcho(ctx, sess, room, msg)

	go uc.postProcessSent(ctx, room, msg)

	return msg, nil
}

// scheduleReadEcho models "the other side eventually reads it". The timer
// belongs to the sender's session, so ending the session cancels it; a late
// echo against a vanished message is logged and swallowed.
func (uc *ChatUseCase) scheduleReadEcho(ctx context.Context, sess *session.Session, room *models.Room, msg *models.Message) {
	others := room.OtherParticipants(msg.SenderID)
	if len(others) == 0 {
		return
	}
	sess.Schedule(uc.conf.Chat.ReadEchoDelay, func() {
		echoCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := uc.messages.AddReadBy(echoCtx, msg.ID, others); err != nil {
			log.Warnw(echoCtx, "read echo skipped", "message_id", msg.ID, "error", err)
		}
	})
}

func (uc *ChatUseCase) postProcessSent(ctx context.Context, room *models.Room, msg *models.Message) {
	ctx, cancel := util.NewTimeoutContext(ctx, 10*time.Second)
	defer cancel()

	uc.events.MessageSent(ctx, msg)
	if updated, err := uc.rooms.GetByID(ctx, room.ID); err == nil {
		uc.events.RoomUpdated(ctx, updated)
	}
	if uc.sockets != nil {
		uc.sockets.BroadcastMessage(room.ID, msg)
		uc.sockets.BroadcastRoomUpdated(room.ID)
	}
}

// CreateDirectRoom returns the room for the pair, creating it when absent.
// The operation is idempotent and symmetric in its arguments.
func (uc *ChatUseCase) CreateDirectRoom(ctx context.Context, viewer models.Viewer, participantA, participantB string) (*models.Room, error) {
	if _, err := uc.requireConnected(viewer); err != nil {
		return nil, err
	}
	// A room is an unordered pair of two distinct participants.
	if participantA == participantB {
		return nil, models.ErrSameParticipant
	}
	if _, err := uc.directory.Resolve(ctx, participantA); err != nil {
		return nil, err
	}
	if _, err := uc.directory.Resolve(ctx, participantB); err != nil {
		return nil, err
	}

	if room, err := uc.rooms.FindByPair(ctx, participantA, participantB); err == nil {
		return room, nil
	} else if !errors.Is(err, models.ErrRoomNotFound) {
		return nil, err
	}

	room, created, err := uc.rooms.GetOrCreate(ctx, participantA, participantB)
	if err != nil {
		return nil, err
	}
	if created {
		go func() {
			ctx, cancel := util.NewTimeoutContext(ctx, 10*time.Second)
			defer cancel()
			uc.events.RoomUpdated(ctx, room)
			if uc.sockets != nil {
				uc.sockets.BroadcastRoomUpdated(room.ID)
			}
		}()
	}
	return room, nil
}

// Attachment is the stored stand-in for an uploaded file.
type Attachment struct {
	URL      string             `json:"url"`
	Type     models.MessageType `json:"type"`
	FileName string             `json:"file_name"`
	FileSize int64              `json:"file_size"`
}

// UploadAttachment pushes bytes to attachment storage after the simulated
// processing delay and classifies the result by sniffed MIME type.
func (uc *ChatUseCase) UploadAttachment(ctx context.Context, viewer models.Viewer, fileName string, data []byte) (*Attachment, error) {
	if _, err := uc.requireConnected(viewer); err != nil {
		return nil, err
	}

	select {
	case <-time.After(uc.conf.Chat.UploadDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	ref, err := uc.storage.Upload(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	attachmentType := models.MessageTypeFile
	if strings.HasPrefix(http.DetectContentType(data), "image/") {
		attachmentType = models.MessageTypeImage
	}

	return &Attachment{
		URL:      ref,
		Type:     attachmentType,
		FileName: fileName,
		FileSize: int64(len(data)),
	}, nil
}

// MarkConversationRead zeroes the viewer's unread count and stamps their
// read receipt on the room history.
func (uc *ChatUseCase) MarkConversationRead(ctx context.Context, viewer models.Viewer, roomID string) error {
	if _, err := uc.memberRoom(ctx, viewer, roomID); err != nil {
		return err
	}
	if err := uc.rooms.MarkRead(ctx, roomID, viewer.ID); err != nil {
		return err
	}
	return uc.messages.MarkReadBy(ctx, roomID, viewer.ID)
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, viewer models.Viewer, roomID string) ([]*models.Message, error) {
	if _, err := uc.memberRoom(ctx, viewer, roomID); err != nil {
		return nil, err
	}
	return uc.messages.ListByRoom(ctx, roomID)
}

// StartTyping flags the viewer as typing in the room; the tracker handles
// debounce and expiry.
func (uc *ChatUseCase) StartTyping(viewer models.Viewer, roomID string) {
	uc.typing.Start(roomID, viewer.ID)
}

func (uc *ChatUseCase) StopTyping(viewer models.Viewer, roomID string) {
	uc.typing.Stop(roomID, viewer.ID)
}

// Typists returns who else is typing in the room.
func (uc *ChatUseCase) Typists(viewer models.Viewer, roomID string) []string {
	return uc.typing.Typists(roomID, viewer.ID)
}

func (uc *ChatUseCase) requireConnected(viewer models.Viewer) (*session.Session, error) {
	sess, ok := uc.sessions.Get(viewer.ID)
	if !ok || !sess.Conn.Available() {
		return nil, models.ErrNotConnected
	}
	return sess, nil
}

func (uc *ChatUseCase) memberRoom(ctx context.Context, viewer models.Viewer, roomID string) (*models.Room, error) {
	room, err := uc.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	// Admins oversee conversations without being members.
	if !room.HasParticipant(viewer.ID) && viewer.Role != models.RoleAdmin {
		return nil, models.ErrRoomNotFound
	}
	return room, nil
}
