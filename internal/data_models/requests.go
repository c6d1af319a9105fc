package dto

import model "task-board.com/task-board/internal/models"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateTaskRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Link        string         `json:"link"`
	Priority    model.Priority `json:"priority"`
	AssignedTo  *string        `json:"assigned_to"`
}

type AssignTaskRequest struct {
	UserID string `json:"user_id"`
}

type CreateUserRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
	Image    *string    `json:"image"`
}

type UpdateUserRequest struct {
	Name     *string     `json:"name"`
	Email    *string     `json:"email"`
	Password *string     `json:"password"`
	Role     *model.Role `json:"role"`
	Image    *string     `json:"image"`
}

type CleanupRequest struct {
	Force bool `json:"force"`
}
