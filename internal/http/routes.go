package http

import (
	"time"

	"github.com/labstack/echo/v4"

	middleware "task-board.com/task-board/internal/http/middlewares"
	"task-board.com/task-board/internal/services"
)

func Register(e *echo.Echo, h *Handler, auth *services.AuthService, rateLimitPerMinute int) {
	e.Use(middleware.RateLimiter(rateLimitPerMinute, time.Minute))

	e.POST("/login", h.Login)

	api := e.Group("", middleware.Auth(auth))

	api.GET("/tasks", h.ListTasks)
	api.GET("/tasks/:id", h.GetTask)
	api.POST("/tasks", h.CreateTask, middleware.AdminOnly)
	api.DELETE("/tasks/:id", h.DeleteTask, middleware.AdminOnly)
	api.POST("/tasks/:id/assign", h.AssignTask)
	api.POST("/tasks/:id/unassign", h.UnassignTask)
	api.POST("/tasks/:id/complete", h.CompleteTask)
	api.POST("/tasks/:id/reopen", h.ReopenTask)
	api.POST("/tasks/release", h.ReleaseAssigned)

	api.GET("/users", h.ListUsers, middleware.AdminOnly)
	api.POST("/users", h.CreateUser, middleware.AdminOnly)
	api.PATCH("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser, middleware.AdminOnly)

	api.GET("/cleanup", h.CleanupStatus, middleware.AdminOnly)
	api.POST("/cleanup", h.RunCleanup, middleware.AdminOnly)
}
