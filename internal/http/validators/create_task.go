package validators

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	dto "task-board.com/task-board/internal/data_models"
	model "task-board.com/task-board/internal/models"
)

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) error {
	if strings.TrimSpace(r.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if r.Priority != "" && !validPriority(r.Priority) {
		return echo.NewHTTPError(http.StatusBadRequest, "priority must be alta, media or baja")
	}
	return nil
}

func validPriority(p model.Priority) bool {
	switch p {
	case model.PriorityAlta, model.PriorityMedia, model.PriorityBaja:
		return true
	default:
		return false
	}
}
