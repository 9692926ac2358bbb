package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/physiohome/chat-service/internal/models"
	"github.com/physiohome/chat-service/internal/usecase"
)

type ModerationController interface {
	FileReport(c echo.Context) error
	ListReports(c echo.Context) error
	ResolveReport(c echo.Context) error
	DismissReport(c echo.Context) error
	RoomRisk(c echo.Context) error
	ListConversations(c echo.Context) error
	Analytics(c echo.Context) error
}

type moderationController struct {
	moderationUsecase *usecase.ModerationUseCase
}

func NewModerationController(moderationUsecase *usecase.ModerationUseCase) ModerationController {
	return &moderationController{
		moderationUsecase: moderationUsecase,
	}
}

func (h *moderationController) FileReport(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var params usecase.FileReportParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	report, err := h.moderationUsecase.FileReport(c.Request().Context(), viewer, params)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"report": report,
	})
}

func (h *moderationController) ListReports(c echo.Context) error {
	status := models.ReportStatus(c.QueryParam("status"))

	reports, err := h.moderationUsecase.ListReports(c.Request().Context(), status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"reports": reports,
	})
}

type reviewRequest struct {
	Resolution string `json:"resolution"`
}

func (h *moderationController) ResolveReport(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	report, err := h.moderationUsecase.Resolve(c.Request().Context(), viewer, c.Param("id"), req.Resolution)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"report": report,
	})
}

func (h *moderationController) DismissReport(c echo.Context) error {
	viewer, err := viewerOf(c)
	if err != nil {
		return err
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	report, err := h.moderationUsecase.Dismiss(c.Request().Context(), viewer, c.Param("id"), req.Resolution)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"report": report,
	})
}

func (h *moderationController) RoomRisk(c echo.Context) error {
	summary, err := h.moderationUsecase.RiskSummary(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"risk": summary,
	})
}

func (h *moderationController) ListConversations(c echo.Context) error {
	conversations, err := h.moderationUsecase.ListConversations(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"conversations": conversations,
	})
}

func (h *moderationController) Analytics(c echo.Context) error {
	analytics, err := h.moderationUsecase.Analytics(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"analytics": analytics,
	})
}
