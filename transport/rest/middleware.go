package rest

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gamehubio/gamehub-backend/internal/service"
)

const userIDContextKey = "userID"

// requireAuth expects "Authorization: Bearer <token>" and stashes the
// verified user id in the echo context.
func requireAuth(tokens service.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)

			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			userID, err := tokens.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx.Set(userIDContextKey, userID)

			return next(ctx)
		}
	}
}

func currentUserID(ctx echo.Context) string {
	userID, _ := ctx.Get(userIDContextKey).(string)
	return userID
}
