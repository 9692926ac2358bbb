package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/physiohome/chat-service/internal/models"
)

type nopLogger struct{}

func (nopLogger) Debugw(string, ...interface{}) {}
func (nopLogger) Infow(string, ...interface{})  {}
func (nopLogger) Warnw(string, ...interface{})  {}
func (nopLogger) Errorw(string, ...interface{}) {}

func TestErrorHandlerMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err     error
		code    int
		message string
	}{
		{models.ErrRoomNotFound, http.StatusNotFound, "room not found"},
		{models.ErrParticipantNotFound, http.StatusNotFound, "participant not found"},
		{models.ErrEmptyContent, http.StatusBadRequest, "message content is empty"},
		{models.ErrNotConnected, http.StatusServiceUnavailable, "not connected to chat server"},
		{models.ErrInvalidTransition, http.StatusConflict, "report is not pending"},
		{echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot, "short and stout"},
	}

	handler := ErrorHandler(nopLogger{})
	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler(tc.err, c)
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
		assert.False(t, gjson.Get(rec.Body.String(), "success").Bool())
		assert.Equal(t, tc.message, gjson.Get(rec.Body.String(), "error").String())
	}
}

func TestErrorHandlerUnknownError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(nopLogger{})(assert.AnError, c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestErrorHandlerSkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = c.NoContent(http.StatusOK)
	ErrorHandler(nopLogger{})(assert.AnError, c)
	assert.Equal(t, http.StatusOK, rec.Code)
}
