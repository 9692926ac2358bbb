package app

import (
	"context"

	"github.com/carousell/ct-go/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/internal/kafka"
	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/realtime"
	"github.com/physiohome/chat-service/internal/repo/storage"
	"github.com/physiohome/chat-service/internal/server"
	"github.com/physiohome/chat-service/internal/session"
	"github.com/physiohome/chat-service/internal/usecase"
)

func Invoke(funcs ...any) *fx.App {
	log := logger.MustNamed("app")
	conf := config.MustLoad()
	log.Debugw("config loaded", log.Reflect("config", conf))
	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Unwrap().Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newStores,
			newPublisher,
			newSessionRegistry,
			newTypingNotifier,
			newTypingTracker,

			storage.NewClient,

			usecase.NewChatUseCase,
			usecase.NewModerationUseCase,

			server.NewController,
			server.NewModerationController,
			server.NewSocketHandler,
		),
		fx.Supply(conf),
		fx.Invoke(wireRealtime),
		fx.Invoke(funcs...),
	)
}

// wireRealtime connects the socket layer to the pieces built before it:
// the chat usecase's broadcaster, typing fanout and per-session connection
// state changes.
func wireRealtime(
	chat *usecase.ChatUseCase,
	notifier *typingNotifier,
	sessions *session.Registry,
	events kafka.Publisher,
	socket *server.SocketHandler,
) {
	chat.SetBroadcaster(socket)
	notifier.SetBroadcaster(socket)
	sessions.SetStateObserver(func(viewer models.Viewer, state realtime.ConnState) {
		socket.BroadcastConnectionState(viewer.ID, state)
		events.ConnectionChanged(context.Background(), viewer.ID, string(state))
	})
}
