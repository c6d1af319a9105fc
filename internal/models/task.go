package model

import "time"

type TaskStatus string

const (
	StatusPendiente  TaskStatus = "pendiente"
	StatusCompletada TaskStatus = "completada"
)

type Priority string

const (
	PriorityAlta  Priority = "alta"
	PriorityMedia Priority = "media"
	PriorityBaja  Priority = "baja"
)

// Rank orders priorities for display: alta before media before baja.
// Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityAlta:
		return 0
	case PriorityMedia:
		return 1
	case PriorityBaja:
		return 2
	default:
		return 3
	}
}

type Task struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `json:"description"`
	Link           *string    `json:"link,omitempty"`
	Priority       Priority   `gorm:"type:varchar(10);not null" json:"priority"`
	CreatedBy      string     `gorm:"size:36;not null" json:"created_by"`
	AssignedTo     *string    `gorm:"size:36" json:"assigned_to,omitempty"`
	Status         TaskStatus `gorm:"type:varchar(20);not null" json:"status"`
	Version        uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAssignedAt *time.Time `json:"last_assigned_at,omitempty"`
}
