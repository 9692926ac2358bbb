package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/server/middleware"
	"github.com/physiohome/chat-service/internal/usecase"
)

type Controller interface {
	ListRooms(c echo.Context) error
	CreateRoom(c echo.Context) error
	ListMessages(c echo.Context) error
	SendMessage(c echo.Context) error
	MarkRead(c echo.Context) error
	SelectRoom(c echo.Context) error
	UploadAttachment(c echo.Context) error
	Typing(c echo.Context) error
	SetTyping(c echo.Context) error
	Health(c echo.Context) error
}

type controller struct {
	chatUsecase *usecase.ChatUseCase
}

func NewController(chatUsecase *usecase.ChatUseCase) Controller {
	return &controller{
		chatUsecase: chatUsecase,
	}
}

func viewerOf(c echo.Context) (models.Viewer, error) {
	viewer, ok := middleware.GetViewer(c)
	if !ok {
		return models.Viewer{}, echo.NewHTTPError(http.StatusUnauthorized, "missing viewer")
	}
	return viewer, nil
}

func (h *controller) ListRooms(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	rooms, err := h.chatUsecase.ListRooms(c.Request().Context(), viewer)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"rooms": rooms,
	})
}

type createRoomRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

func (h *controller) CreateRoom(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	room, err := h.chatUsecase.CreateDirectRoom(c.Request().Context(), viewer, viewer.ID, req.ParticipantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"room": room,
	})
}

func (h *controller) ListMessages(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	messages, err := h.chatUsecase.ListMessages(c.Request().Context(), viewer, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"messages": messages,
	})
}

func (h *controller) SendMessage(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var draft models.MessageDraft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	draft.RoomID = c.Param("id")
	if err := c.Validate(draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.chatUsecase.SendMessage(c.Request().Context(), viewer, draft)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": msg,
	})
}

func (h *controller) MarkRead(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	if err := h.chatUsecase.MarkConversationRead(c.Request().Context(), viewer, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
	})
}

func (h *controller) SelectRoom(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	messages, err := h.chatUsecase.SelectRoom(c.Request().Context(), viewer, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"messages": messages,
	})
}

func (h *controller) UploadAttachment(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}

	attachment, err := h.chatUsecase.UploadAttachment(c.Request().Context(), viewer, fileHeader.Filename, data)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"attachment": attachment,
	})
}

func (h *controller) Typing(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	typists := h.chatUsecase.Typists(viewer, c.Param("room"))
	return c.JSON(http.StatusOK, map[string]any{
		"typists": typists,
	})
}

type setTypingRequest struct {
	Typing bool `json:"typing"`
}

func (h *controller) SetTyping(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req setTypingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	roomID := c.Param("room")
	if req.Typing {
		h.chatUsecase.StartTyping(viewer, roomID)
	} else {
		h.chatUsecase.StopTyping(viewer, roomID)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
	})
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "chat-service",
	})
}
