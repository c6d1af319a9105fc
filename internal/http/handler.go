package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	dto "task-board.com/task-board/internal/data_models"
	apperrors "task-board.com/task-board/internal/errors"
	middleware "task-board.com/task-board/internal/http/middlewares"
	"task-board.com/task-board/internal/http/validators"
	"task-board.com/task-board/internal/services"
)

type Handler struct {
	taskService    *services.TaskService
	authService    *services.AuthService
	cleanupService *services.CleanupService
}

func NewHandler(
	taskService *services.TaskService,
	authService *services.AuthService,
	cleanupService *services.CleanupService,
) *Handler {
	return &Handler{
		taskService:    taskService,
		authService:    authService,
		cleanupService: cleanupService,
	}
}

func (h *Handler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateLoginRequest(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	token, user, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(err, "login failed")
	}

	// Session start doubles as the lazy auto-release check for this user.
	if err := h.cleanupService.CheckUserRelease(ctx, user.ID); err != nil {
		c.Logger().Warnf("auto-release check failed for %s: %v", user.ID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}

func (h *Handler) ListTasks(c echo.Context) error {
	ctx := c.Request().Context()

	if raw := c.QueryParam("view"); raw != "" {
		view, ok := services.ParseTaskView(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "view must be available, assigned or completed")
		}

		tasks, err := h.taskService.ListView(ctx, view)
		if err != nil {
			return httpError(err, "failed to list tasks")
		}

		return c.JSON(http.StatusOK, echo.Map{
			"count": len(tasks),
			"tasks": tasks,
		})
	}

	grouped := echo.Map{}
	for _, view := range []services.TaskView{services.ViewAvailable, services.ViewAssigned, services.ViewCompleted} {
		tasks, err := h.taskService.ListView(ctx, view)
		if err != nil {
			return httpError(err, "failed to list tasks")
		}
		grouped[string(view)] = tasks
	}

	return c.JSON(http.StatusOK, grouped)
}

func (h *Handler) GetTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return httpError(err, "failed to load task")
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateCreateTaskRequest(&req); err != nil {
		return err
	}

	user := middleware.CurrentUser(c)

	task, err := h.taskService.AddTask(c.Request().Context(), services.AddTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
		Priority:    req.Priority,
		CreatedBy:   user.ID,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return httpError(err, "failed to create task")
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), id); err != nil {
		return httpError(err, "failed to delete task")
	}

	return c.NoContent(http.StatusNoContent)
}

// AssignTask claims a task. Non-admins may only claim for themselves;
// admins may hand a task to anyone.
func (h *Handler) AssignTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req dto.AssignTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	user := middleware.CurrentUser(c)
	assignee := req.UserID
	if assignee == "" {
		assignee = user.ID
	}
	if assignee != user.ID && !user.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "only admins may assign tasks to other users")
	}

	if err := h.taskService.AssignTask(c.Request().Context(), id, assignee); err != nil {
		return httpError(err, "failed to assign task")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UnassignTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.UnassignTask(c.Request().Context(), id); err != nil {
		return httpError(err, "failed to unassign task")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CompleteTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.CompleteTask(c.Request().Context(), id); err != nil {
		return httpError(err, "failed to complete task")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ReopenTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.ReopenTask(c.Request().Context(), id); err != nil {
		return httpError(err, "failed to reopen task")
	}

	return c.NoContent(http.StatusNoContent)
}

// ReleaseAssigned releases every pending claim of the calling user and
// resets their auto-release timer.
func (h *Handler) ReleaseAssigned(c echo.Context) error {
	user := middleware.CurrentUser(c)
	ctx := c.Request().Context()

	if err := h.taskService.ClearAssignedTasks(ctx, user.ID); err != nil {
		return httpError(err, "failed to release tasks")
	}

	if err := h.cleanupService.TouchUserRelease(ctx, user.ID); err != nil {
		c.Logger().Warnf("failed to reset release timer for %s: %v", user.ID, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.authService.ListUsers(c.Request().Context())
	if err != nil {
		return httpError(err, "failed to list users")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(users),
		"users": users,
	})
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if err := validators.ValidateCreateUserRequest(&req); err != nil {
		return err
	}

	user, err := h.authService.AddUser(c.Request().Context(), services.AddUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Image:    req.Image,
	})
	if err != nil {
		return httpError(err, "failed to create user")
	}

	return c.JSON(http.StatusCreated, user)
}

// UpdateUser allows admins to edit anyone and users to edit themselves.
// Only admins may change a role.
func (h *Handler) UpdateUser(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}

	actor := middleware.CurrentUser(c)
	if id != actor.ID && !actor.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "cannot edit another user")
	}

	var req dto.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}
	if req.Role != nil && !actor.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "only admins may change roles")
	}

	user, err := h.authService.UpdateUser(c.Request().Context(), id, services.UpdateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Image:    req.Image,
	})
	if err != nil {
		return httpError(err, "failed to update user")
	}

	return c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}

	actor := middleware.CurrentUser(c)

	if err := h.authService.DeleteUser(c.Request().Context(), id, actor.ID); err != nil {
		return httpError(err, "failed to delete user")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CleanupStatus(c echo.Context) error {
	status, err := h.cleanupService.Status(c.Request().Context())
	if err != nil {
		return httpError(err, "failed to read cleanup status")
	}

	return c.JSON(http.StatusOK, status)
}

func (h *Handler) RunCleanup(c echo.Context) error {
	var req dto.CleanupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON payload")
	}

	status, err := h.cleanupService.Check(c.Request().Context(), req.Force)
	if err != nil {
		return httpError(err, "cleanup failed")
	}

	return c.JSON(http.StatusOK, status)
}

func taskID(c echo.Context) (int64, error) {
	raw := c.Param("id")
	if raw == "" {
		return 0, httpError(apperrors.ErrTaskIDRequired, "task id is required")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "task id must be an integer")
	}

	return id, nil
}

func httpError(err error, fallback string) error {
	var exc *apperrors.Exception
	if errors.As(err, &exc) {
		return echo.NewHTTPError(exc.StatusCode, exc.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, fallback)
}
