package validators

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	dto "task-board.com/task-board/internal/data_models"
	model "task-board.com/task-board/internal/models"
)

func ValidateCreateUserRequest(r *dto.CreateUserRequest) error {
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "a valid email is required")
	}
	if r.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password is required")
	}
	if r.Role != "" && r.Role != model.RoleUser && r.Role != model.RoleAdmin {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be user or admin")
	}
	return nil
}
