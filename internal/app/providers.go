package app

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/internal/kafka"
	"github.com/physiohome/chat-service/internal/realtime"
	"github.com/physiohome/chat-service/internal/repo/memory"
	"github.com/physiohome/chat-service/internal/repo/mongodb"
	"github.com/physiohome/chat-service/internal/repository"
	"github.com/physiohome/chat-service/internal/session"
	"github.com/physiohome/chat-service/internal/usecase"
)

// newStores selects the store backend. The memory driver is the demo mode
// with seeded participants; mongo is the production path.
func newStores(lc fx.Lifecycle, conf *config.Config) (
	repository.RoomRepository,
	repository.MessageRepository,
	repository.ReportRepository,
	repository.ParticipantDirectory,
	error,
) {
	if conf.Database.Driver == "memory" {
		directory := memory.NewDirectory()
		memory.Seed(directory)
		return memory.NewRoomRepository(),
			memory.NewMessageRepository(),
			memory.NewReportRepository(),
			directory,
			nil
	}

	db, err := mongodb.NewConnection(context.Background(), conf.Database.URI, conf.Database.Database)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	rooms := mongodb.NewRoomRepository(db)
	messages := mongodb.NewMessageRepository(db)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Client.Ping(ctx, nil); err != nil {
				return err
			}
			if err := rooms.EnsureIndexes(ctx); err != nil {
				return err
			}
			return messages.EnsureIndexes(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return db.Close(ctx)
		},
	})

	return rooms,
		messages,
		mongodb.NewReportRepository(db),
		mongodb.NewParticipantDirectory(db),
		nil
}

func newPublisher(lc fx.Lifecycle, conf *config.Config) kafka.Publisher {
	events := kafka.NewPublisher(conf)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return events.Close()
		},
	})
	return events
}

func newSessionRegistry(lc fx.Lifecycle, conf *config.Config) *session.Registry {
	sessions := session.NewRegistry(realtime.ConnectionConfig{
		SettleDelay:   conf.Chat.ConnectSettleDelay,
		ProbeInterval: conf.Chat.FlakyProbeInterval,
		DropChance:    conf.Chat.FlakyDropChance,
		RecoveryDelay: conf.Chat.ReconnectDelay,
	})
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sessions.CloseAll()
			return nil
		},
	})
	return sessions
}

// typingNotifier fans typing changes out to kafka and, once the socket
// layer is wired, to connected clients.
type typingNotifier struct {
	mu      sync.RWMutex
	events  kafka.Publisher
	sockets usecase.SocketBroadcaster
}

func newTypingNotifier(events kafka.Publisher) *typingNotifier {
	return &typingNotifier{events: events}
}

func (n *typingNotifier) SetBroadcaster(b usecase.SocketBroadcaster) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sockets = b
}

func (n *typingNotifier) Notify(roomID string, typists []string) {
	n.events.TypingChanged(context.Background(), roomID, typists)

	n.mu.RLock()
	sockets := n.sockets
	n.mu.RUnlock()
	if sockets != nil {
		sockets.BroadcastTyping(roomID, typists)
	}
}

func newTypingTracker(lc fx.Lifecycle, conf *config.Config, notifier *typingNotifier) *realtime.TypingTracker {
	tracker := realtime.NewTypingTracker(conf.Chat.TypingTTL, notifier.Notify)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			tracker.Close()
			return nil
		},
	})
	return tracker
}
