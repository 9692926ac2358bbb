package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/carousell/ct-go/pkg/logger"
	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/internal/models"
	pkgmdw "github.com/physiohome/chat-service/internal/server/middleware"
)

// NewEcho assembles the HTTP surface: middleware chain, chat and moderation
// routes and the socket.io mount.
func NewEcho(
	conf *config.Config,
	handler Controller,
	moderation ModerationController,
	socket *SocketHandler,
) *echo.Echo {
	httpLog := logger.MustNamed("http")

	e := echo.New()
	e.HideBanner = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(httpLog)

	logConfig := pkgmdw.LogRequestConfig{
		Logger: httpLog,
		Skipper: func(c echo.Context) bool {
			uri := c.Request().RequestURI
			return uri == "/health" || uri == "/metrics"
		},
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return nil
		},
	}))

	e.GET("/health", handler.Health)
	e.Any("/socket.io/", socket.Handler())

	api := e.Group("/api/v1",
		pkgmdw.Auth(conf.Auth.JWTSecret),
		pkgmdw.LogRequest(logConfig),
	)

	api.GET("/rooms", handler.ListRooms)
	api.POST("/rooms", handler.CreateRoom)
	api.GET("/rooms/:id/messages", handler.ListMessages)
	api.POST("/rooms/:id/messages", handler.SendMessage)
	api.POST("/rooms/:id/read", handler.MarkRead)
	api.POST("/rooms/:id/select", handler.SelectRoom)
	api.POST("/attachments", handler.UploadAttachment)
	api.GET("/typing/:room", handler.Typing)
	api.POST("/typing/:room", handler.SetTyping)

	api.POST("/reports", moderation.FileReport)

	admin := api.Group("", pkgmdw.RequireRole(models.RoleAdmin))
	admin.GET("/reports", moderation.ListReports)
	admin.POST("/reports/:id/resolve", moderation.ResolveReport)
	admin.POST("/reports/:id/dismiss", moderation.DismissReport)
	admin.GET("/rooms/:id/risk", moderation.RoomRisk)
	admin.GET("/moderation/conversations", moderation.ListConversations)
	admin.GET("/moderation/analytics", moderation.Analytics)

	return e
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	handler Controller,
	moderation ModerationController,
	socket *SocketHandler,
) {
	e := NewEcho(conf, handler, moderation, socket)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := socket.Serve(); err != nil {
					log.Errorw(ctx, "socket server stopped", "error", err)
				}
			}()
			go func() {
				log.Infow(ctx, "starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := socket.Close(); err != nil {
				log.Warnw(ctx, "socket close", "error", err)
			}
			return e.Shutdown(ctx)
		},
	})
}
