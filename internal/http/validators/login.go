package validators

import (
	"net/http"

	"github.com/labstack/echo/v4"

	dto "task-board.com/task-board/internal/data_models"
)

func ValidateLoginRequest(r *dto.LoginRequest) error {
	if r.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	if r.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password is required")
	}
	return nil
}
