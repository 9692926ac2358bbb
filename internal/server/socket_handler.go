package server

import (
	"strings"

	"github.com/carousell/ct-go/pkg/logger"
	socketio "github.com/googollee/go-socket.io"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/physiohome/chat-service/internal/config"
	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/realtime"
	"github.com/physiohome/chat-service/internal/server/middleware"
	"github.com/physiohome/chat-service/internal/session"
	"github.com/physiohome/chat-service/internal/usecase"
)

var _ usecase.SocketBroadcaster = (*SocketHandler)(nil)

// SocketHandler owns the socket.io server. A socket connection is what
// brings a viewer's chat session up; closing it tears the session down.
type SocketHandler struct {
	server   *socketio.Server
	sessions *session.Registry
	chat     *usecase.ChatUseCase
	secret   string
	log      *logger.Logger
}

func NewSocketHandler(
	conf *config.Config,
	sessions *session.Registry,
	chat *usecase.ChatUseCase,
) *SocketHandler {
	handler := &SocketHandler{
		server:   socketio.NewServer(nil),
		sessions: sessions,
		chat:     chat,
		secret:   conf.Auth.JWTSecret,
		log:      logger.MustNamed("socket"),
	}
	handler.setupEvents()
	return handler
}

func (h *SocketHandler) setupEvents() {
	h.server.OnConnect("/", func(s socketio.Conn) error {
		token := h.extractToken(s)
		if token == "" {
			h.log.Warnw("socket without token", "socket_id", s.ID())
			return s.Close()
		}

		viewer, err := middleware.ParseViewerToken(h.secret, token)
		if err != nil {
			h.log.Warnw("socket token rejected", "socket_id", s.ID(), "error", err)
			return s.Close()
		}

		s.SetContext(viewer)
		h.sessions.Start(viewer)
		h.log.Infow("socket connected", "socket_id", s.ID(), "viewer_id", viewer.ID)
		return nil
	})

	h.server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		viewer, ok := h.viewerOf(s)
		if ok {
			h.sessions.End(viewer.ID)
		}
		h.log.Infow("socket disconnected", "socket_id", s.ID(), "reason", reason)
	})

	h.server.OnEvent("/", "join_room", func(s socketio.Conn, roomID string) {
		viewer, ok := h.viewerOf(s)
		if !ok {
			return
		}
		s.Join(roomID)
		h.log.Infow("joined room", "viewer_id", viewer.ID, "room_id", roomID)
	})

	h.server.OnEvent("/", "leave_room", func(s socketio.Conn, roomID string) {
		viewer, ok := h.viewerOf(s)
		if !ok {
			return
		}
		h.chat.StopTyping(viewer, roomID)
		s.Leave(roomID)
	})

	h.server.OnEvent("/", "typing", func(s socketio.Conn, data map[string]interface{}) {
		viewer, ok := h.viewerOf(s)
		if !ok {
			return
		}

		roomID := cast.ToString(data["room_id"])
		if roomID == "" {
			return
		}

		if cast.ToBool(data["typing"]) {
			h.chat.StartTyping(viewer, roomID)
		} else {
			h.chat.StopTyping(viewer, roomID)
		}
	})

	h.server.OnError("/", func(s socketio.Conn, err error) {
		h.log.Warnw("socket error", "socket_id", s.ID(), "error", err)
	})
}

func (h *SocketHandler) extractToken(s socketio.Conn) string {
	if auth := s.RemoteHeader().Get("Authorization"); auth != "" {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return s.URL().Query().Get("token")
}

func (h *SocketHandler) viewerOf(s socketio.Conn) (models.Viewer, bool) {
	viewer, ok := s.Context().(models.Viewer)
	return viewer, ok
}

// BroadcastMessage pushes a new message to everyone in the room.
func (h *SocketHandler) BroadcastMessage(roomID string, msg *models.Message) {
	h.server.BroadcastToRoom("/", roomID, "message_received", msg)
}

// BroadcastRoomUpdated nudges room members to refresh their room list.
func (h *SocketHandler) BroadcastRoomUpdated(roomID string) {
	h.server.BroadcastToRoom("/", roomID, "room_updated", map[string]interface{}{
		"room_id": roomID,
	})
}

// BroadcastTyping pushes the current typist set for a room.
func (h *SocketHandler) BroadcastTyping(roomID string, typists []string) {
	h.server.BroadcastToRoom("/", roomID, "typing_changed", map[string]interface{}{
		"room_id": roomID,
		"typists": typists,
	})
}

// BroadcastConnectionState tells a viewer's own sockets about their
// simulated link state.
func (h *SocketHandler) BroadcastConnectionState(participantID string, state realtime.ConnState) {
	h.server.ForEach("/", "", func(conn socketio.Conn) {
		if viewer, ok := conn.Context().(models.Viewer); ok && viewer.ID == participantID {
			conn.Emit("connection_state", map[string]interface{}{
				"participant_id": participantID,
				"state":          string(state),
			})
		}
	})
}

func (h *SocketHandler) Serve() error {
	return h.server.Serve()
}

func (h *SocketHandler) Close() error {
	return h.server.Close()
}

// Handler mounts the socket.io server on an echo route.
func (h *SocketHandler) Handler() echo.HandlerFunc {
	return echo.WrapHandler(h.server)
}
