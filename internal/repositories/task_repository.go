package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	model "task-board.com/task-board/internal/models"
)

type TaskRepository struct {
	db *gorm.DB
}

var ErrOptimisticLock = errors.New("optimistic locking conflict")

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	task.Version = 1
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns every task in arrival order. Ids are monotonic, so ordering
// by id preserves insertion order even for same-second creations.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).Order("id asc").Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) ListPendingByAssignee(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("assigned_to = ? AND status = ?", userID, model.StatusPendiente).
		Order("id asc").
		Find(&tasks).Error
	return tasks, err
}

// ListAssignees returns the distinct users currently holding a pending claim.
func (r *TaskRepository) ListAssignees(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Distinct("assigned_to").
		Where("assigned_to IS NOT NULL AND status = ?", model.StatusPendiente).
		Pluck("assigned_to", &ids).Error
	return ids, err
}

// Update writes the task back guarded by its version. A concurrent writer
// that got there first leaves RowsAffected at zero and the caller sees
// ErrOptimisticLock.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Updates(map[string]interface{}{
			"title":            task.Title,
			"description":      task.Description,
			"link":             task.Link,
			"priority":         task.Priority,
			"assigned_to":      task.AssignedTo,
			"last_assigned_at": task.LastAssignedAt,
			"status":           task.Status,
			"version":          gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrOptimisticLock
	}

	task.Version++
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id).Error
}

// ClearAssignee releases every pending task claimed by the user. Completed
// tasks keep their claim record.
func (r *TaskRepository) ClearAssignee(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("assigned_to = ? AND status = ?", userID, model.StatusPendiente).
		Updates(map[string]interface{}{
			"assigned_to":      nil,
			"last_assigned_at": nil,
			"version":          gorm.Expr("version + 1"),
		}).Error
}
