package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/internal/kafka"
	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/realtime"
	"github.com/physiohome/chat-service/internal/repo/memory"
	"github.com/physiohome/chat-service/internal/repo/storage"
	"github.com/physiohome/chat-service/internal/session"
)

type chatFixture struct {
	uc        *ChatUseCase
	rooms     *memory.RoomRepo
	messages  *memory.MessageRepo
	directory *memory.Directory
	sessions  *session.Registry
	typing    *realtime.TypingTracker
	conf      *config.Config
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	conf := &config.Config{}
	conf.Chat.ConnectSettleDelay = 5 * time.Millisecond
	conf.Chat.FlakyProbeInterval = time.Hour
	conf.Chat.ReconnectDelay = 5 * time.Millisecond
	conf.Chat.TypingTTL = time.Hour
	conf.Chat.ReadEchoDelay = 30 * time.Millisecond
	conf.Chat.UploadDelay = 5 * time.Millisecond

	directory := memory.NewDirectory()
	memory.Seed(directory)

	sessions := session.NewRegistry(realtime.ConnectionConfig{
		SettleDelay:   conf.Chat.ConnectSettleDelay,
		ProbeInterval: conf.Chat.FlakyProbeInterval,
		RecoveryDelay: conf.Chat.ReconnectDelay,
		Rand:          func() float64 { return 1 },
	})
	typing := realtime.NewTypingTracker(conf.Chat.TypingTTL, nil)
	t.Cleanup(func() {
		sessions.CloseAll()
		typing.Close()
	})

	f := &chatFixture{
		rooms:     memory.NewRoomRepository(),
		messages:  memory.NewMessageRepository(),
		directory: directory,
		sessions:  sessions,
		typing:    typing,
		conf:      conf,
	}
	f.uc = NewChatUseCase(
		f.rooms, f.messages, f.directory,
		sessions, typing,
		storage.NewClient(conf),
		kafka.NewPublisher(conf),
		conf,
	)
	return f
}

func (f *chatFixture) connect(t *testing.T, viewer models.Viewer) {
	t.Helper()
	sess := f.sessions.Start(viewer)
	require.Eventually(t, func() bool {
		return sess.Conn.Available()
	}, time.Second, time.Millisecond)
}

func (f *chatFixture) room(t *testing.T, a, b string) *models.Room {
	t.Helper()
	room, _, err := f.rooms.GetOrCreate(context.Background(), a, b)
	require.NoError(t, err)
	return room
}

var (
	patient = models.Viewer{ID: "1", Role: models.RolePatient}
	physio  = models.Viewer{ID: "2", Role: models.RolePhysio}
	admin   = models.Viewer{ID: "adm", Role: models.RoleAdmin}
)

func TestCreateDirectRoomIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.connect(t, patient)

	room, err := f.uc.CreateDirectRoom(ctx, patient, "1", "2")
	require.NoError(t, err)

	again, err := f.uc.CreateDirectRoom(ctx, patient, "2", "1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)

	count, err := f.rooms.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateDirectRoomRejectsSelfPair(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.connect(t, patient)

	_, err := f.uc.CreateDirectRoom(ctx, patient, "1", "1")
	assert.ErrorIs(t, err, models.ErrSameParticipant)

	count, err := f.rooms.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateDirectRoomUnknownParticipant(t *testing.T) {
	f := newChatFixture(t)
	f.connect(t, patient)

	_, err := f.uc.CreateDirectRoom(context.Background(), patient, "1", "99")
	assert.ErrorIs(t, err, models.ErrParticipantNotFound)
}

func TestCreateDirectRoomRequiresConnection(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.uc.CreateDirectRoom(context.Background(), patient, "1", "2")
	assert.ErrorIs(t, err, models.ErrNotConnected)
}

func TestSendMessageLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.connect(t, patient)
	room := f.room(t, "1", "2")

	msg, err := f.uc.SendMessage(ctx, patient, models.MessageDraft{
		RoomID:  room.ID,
		Type:    models.MessageTypeText,
		Content: "Hello Dr. Jones",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.NotNil(t, msg.DeliveredAt)
	assert.Equal(t, []string{"1"}, msg.ReadBy)

	updated, err := f.rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.UnreadFor("1"))
	assert.Equal(t, 1, updated.UnreadFor("2"))
	require.NotNil(t, updated.LastMessage)
	assert.Equal(t, "Hello Dr. Jones", updated.LastMessage.Content)

	// The other side's simulated read receipt lands after the echo delay.
	require.Eventually(t, func() bool {
		messages, err := f.messages.ListByRoom(ctx, room.ID)
		require.NoError(t, err)
		return len(messages) == 1 && messages[0].IsReadBy("2")
	}, time.Second, 5*time.Millisecond)
}

func TestSendMessageRequiresConnection(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	room := f.room(t, "1", "2")

	draft := models.MessageDraft{RoomID: room.ID, Type: models.MessageTypeText, Content: "hi"}

	_, err := f.uc.SendMessage(ctx, patient, draft)
	assert.ErrorIs(t, err, models.ErrNotConnected)

	f.connect(t, patient)
	sess, ok := f.sessions.Get("1")
	require.True(t, ok)
	sess.Conn.Drop()

	_, err = f.uc.SendMessage(ctx, patient, draft)
	assert.ErrorIs(t, err, models.ErrNotConnected)
}

func TestSendMessageEmptyContent(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.connect(t, patient)
	room := f.room(t, "1", "2")

	_, err := f.uc.SendMessage(ctx, patient, models.MessageDraft{
		RoomID:  room.ID,
		Type:    models.MessageTypeText,
		Content: "   \n\t",
	})
	assert.ErrorIs(t, err, models.ErrEmptyContent)

	// File messages carry no text; the trim check only applies to text.
	_, err = f.uc.SendMessage(ctx, patient, models.MessageDraft{
		RoomID:   room.ID,
		Type:     models.MessageTypeFile,
		FileName: "exercise-plan.pdf",
		FileSize: 1024,
	})
	assert.NoError(t, err)
}

func TestSendMessageMembershipGate(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	room := f.room(t, "1", "2")

	outsider := models.Viewer{ID: "3", Role: models.RolePatient}
	f.connect(t, outsider)

	_, err := f.uc.SendMessage(ctx, outsider, models.MessageDraft{
		RoomID: room.ID, Type: models.MessageTypeText, Content: "hi",
	})
	assert.ErrorIs(t, err, models.ErrRoomNotFound)

	_, err = f.uc.SendMessage(ctx, outsider, models.MessageDraft{
		RoomID: "missing", Type: models.MessageTypeText, Content: "hi",
	})
	assert.ErrorIs(t, err, models.ErrRoomNotFound)
}

func TestSendMessageClearsTypingIndicator(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.connect(t, patient)
	room := f.room(t, "1", "2")

	f.uc.StartTyping(patient, room.ID)
	assert.Equal(t, []string{"1"}, f.uc.Typists(physio, room.ID))
	assert.Empty(t, f.uc.Typists(patient, room.ID))

	_, err := f.uc.SendMessage(ctx, patient, models.MessageDraft{
		RoomID: room.ID, Type: models.MessageTypeText, Content: "done typing",
	})
	require.NoError(t, err)
	assert.Empty(t, f.uc.Typists(physio, room.ID))
}

func TestEndingSessionCancelsReadEcho(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.connect(t, patient)
	room := f.room(t, "1", "2")

	msg, err := f.uc.SendMessage(ctx, patient, models.MessageDraft{
		RoomID: room.ID, Type: models.MessageTypeText, Content: "hi",
	})
	require.NoError(t, err)

	f.sessions.End("1")
	time.Sleep(3 * f.conf.Chat.ReadEchoDelay)

	messages, err := f.messages.ListByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.ID, messages[0].ID)
	assert.False(t, messages[0].IsReadBy("2"))
}

func TestSelectRoomMarksEverythingRead(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.connect(t, physio)
	room := f.room(t, "1", "2")

	for _, content := range []string{"one", "two"} {
		_, err := f.uc.SendMessage(ctx, physio, models.MessageDraft{
			RoomID: room.ID, Type: models.MessageTypeText, Content: content,
		})
		require.NoError(t, err)
	}

	updated, err := f.rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	require.Equal(t, 2, updated.UnreadFor("1"))

	messages, err := f.uc.SelectRoom(ctx, patient, room.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "one", messages[0].Content)
	for _, msg := range messages {
		assert.True(t, msg.IsReadBy("1"))
	}

	updated, err = f.rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.UnreadFor("1"))
}

func TestSelectRoomNonMember(t *testing.T) {
	f := newChatFixture(t)
	room := f.room(t, "1", "2")

	_, err := f.uc.SelectRoom(context.Background(), models.Viewer{ID: "3", Role: models.RolePatient}, room.ID)
	assert.ErrorIs(t, err, models.ErrRoomNotFound)

	// Admins oversee any conversation.
	_, err = f.uc.SelectRoom(context.Background(), admin, room.ID)
	assert.NoError(t, err)
}

func TestListRoomsAnnotatesViews(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.connect(t, physio)
	room := f.room(t, "1", "2")
	f.room(t, "1", "4")

	_, err := f.uc.SendMessage(ctx, physio, models.MessageDraft{
		RoomID: room.ID, Type: models.MessageTypeText, Content: "reminder",
	})
	require.NoError(t, err)

	views, err := f.uc.ListRooms(ctx, patient)
	require.NoError(t, err)
	require.Len(t, views, 2)

	// Most recent activity first.
	assert.Equal(t, room.ID, views[0].ID)
	assert.Equal(t, 1, views[0].UnreadCount)
	require.NotNil(t, views[0].LastMessage)
	assert.Equal(t, "reminder", views[0].LastMessage.Content)

	names := make([]string, 0, 2)
	for _, p := range views[0].Participants {
		names = append(names, p.DisplayName)
	}
	assert.ElementsMatch(t, []string{"John Doe", "Dr. Emily Jones"}, names)

	assert.Equal(t, 0, views[1].UnreadCount)
}

func TestUploadAttachmentClassifiesByContent(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.connect(t, patient)

	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	attachment, err := f.uc.UploadAttachment(ctx, patient, "knee.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeImage, attachment.Type)
	assert.Equal(t, "knee.png", attachment.FileName)
	assert.Equal(t, int64(len(pngHeader)), attachment.FileSize)
	assert.Contains(t, attachment.URL, "knee.png")

	attachment, err = f.uc.UploadAttachment(ctx, patient, "notes.txt", []byte("plain text"))
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeFile, attachment.Type)
}

func TestUploadAttachmentGates(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.uc.UploadAttachment(context.Background(), patient, "a.txt", []byte("x"))
	assert.ErrorIs(t, err, models.ErrNotConnected)

	f.connect(t, patient)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.uc.UploadAttachment(ctx, patient, "a.txt", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
