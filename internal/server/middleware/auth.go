package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/physiohome/chat-service/internal/models"
)

const viewerKey = "viewer"

// ViewerClaims is what the identity provider puts in its tokens; the chat
// core consumes the {id, role} pair and nothing else.
type ViewerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseViewerToken validates the token signature and extracts the viewer.
func ParseViewerToken(secret, tokenString string) (models.Viewer, error) {
	claims := &ViewerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Viewer{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return models.Viewer{}, fmt.Errorf("invalid token")
	}
	return models.Viewer{
		ID:   claims.Subject,
		Role: models.Role(claims.Role),
	}, nil
}

// Auth authenticates every request from the identity provider's bearer
// token and stores the viewer in the echo context.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString := strings.TrimPrefix(header, "Bearer ")
			if tokenString == "" || tokenString == header {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			viewer, err := ParseViewerToken(secret, tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(viewerKey, viewer)
			return next(c)
		}
	}
}

// RequireRole gates a route group to one role.
func RequireRole(role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			viewer, ok := GetViewer(c)
			if !ok || viewer.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

func GetViewer(c echo.Context) (models.Viewer, bool) {
	viewer, ok := c.Get(viewerKey).(models.Viewer)
	return viewer, ok
}
