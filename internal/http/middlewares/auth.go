package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	model "task-board.com/task-board/internal/models"
	"task-board.com/task-board/internal/services"
)

const currentUserCtxKey = "current_user"

// Auth parses the bearer token and loads the user behind it into the
// request context. Requests without a valid session are rejected here; the
// identity itself is only read, never created.
func Auth(auth *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header required")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			userID, err := auth.ParseToken(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			user, err := auth.GetUser(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}

			c.Set(currentUserCtxKey, user)
			return next(c)
		}
	}
}

// AdminOnly gates a route to admin users. Role gating lives here, not in
// the services.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(currentUserCtxKey).(*model.User)
	return user
}
