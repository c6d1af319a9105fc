package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apperrors "task-board.com/task-board/internal/errors"
	model "task-board.com/task-board/internal/models"
	repository "task-board.com/task-board/internal/repositories"
)

// TaskService owns the task collection and every legal state transition.
// Role gating is the HTTP layer's job; the service only enforces data
// invariants.
type TaskService struct {
	logger zerolog.Logger
	repo   *repository.TaskRepository
}

func NewTaskService(logger zerolog.Logger, repo *repository.TaskRepository) *TaskService {
	return &TaskService{
		logger: logger,
		repo:   repo,
	}
}

type AddTaskParams struct {
	Title       string
	Description string
	Link        string
	Priority    model.Priority
	CreatedBy   string
	AssignedTo  *string
}

func (s *TaskService) AddTask(ctx context.Context, p AddTaskParams) (*model.Task, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if p.CreatedBy == "" {
		return nil, apperrors.ErrCreatorRequired
	}

	priority := p.Priority
	if priority == "" {
		priority = model.PriorityMedia
	}

	now := time.Now().UTC()
	task := &model.Task{
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Link:        normalizeLink(p.Link),
		Priority:    priority,
		CreatedBy:   p.CreatedBy,
		Status:      model.StatusPendiente,
		CreatedAt:   now,
	}

	if p.AssignedTo != nil && *p.AssignedTo != "" {
		task.AssignedTo = p.AssignedTo
		task.LastAssignedAt = &now
	}

	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error().Err(err).Msg("failed to create task")
		return nil, err
	}

	s.logger.Info().Int64("task_id", task.ID).Str("created_by", task.CreatedBy).Msg("task created")
	return task, nil
}

// AssignTask claims the task for userID. An existing claim by another user
// is overwritten; a concurrent racing write surfaces as an optimistic-lock
// conflict instead.
func (s *TaskService) AssignTask(ctx context.Context, taskID int64, userID string) error {
	if userID == "" {
		return apperrors.ErrAssigneeRequired
	}

	return s.mutate(ctx, taskID, func(task *model.Task) {
		now := time.Now().UTC()
		task.AssignedTo = &userID
		task.LastAssignedAt = &now
	})
}

func (s *TaskService) UnassignTask(ctx context.Context, taskID int64) error {
	return s.mutate(ctx, taskID, func(task *model.Task) {
		task.AssignedTo = nil
		task.LastAssignedAt = nil
	})
}

// CompleteTask marks the task done. The claim record is kept so completed
// cards still show who worked on them.
func (s *TaskService) CompleteTask(ctx context.Context, taskID int64) error {
	return s.mutate(ctx, taskID, func(task *model.Task) {
		task.Status = model.StatusCompletada
	})
}

func (s *TaskService) ReopenTask(ctx context.Context, taskID int64) error {
	return s.mutate(ctx, taskID, func(task *model.Task) {
		task.Status = model.StatusPendiente
	})
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID int64) error {
	if _, err := s.repo.FindByID(ctx, taskID); err != nil {
		return s.wrapLookupErr(err, taskID)
	}

	if err := s.repo.Delete(ctx, taskID); err != nil {
		s.logger.Error().Err(err).Int64("task_id", taskID).Msg("failed to delete task")
		return err
	}

	s.logger.Info().Int64("task_id", taskID).Msg("task deleted")
	return nil
}

// ClearAssignedTasks releases every pending task claimed by the user. Used
// by the explicit "release all" action and by the 24h auto-release.
func (s *TaskService) ClearAssignedTasks(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.ErrAssigneeRequired
	}

	if err := s.repo.ClearAssignee(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to release assigned tasks")
		return err
	}

	return nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID int64) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, s.wrapLookupErr(err, taskID)
	}
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return sortByPriority(tasks), nil
}

func (s *TaskService) ListView(ctx context.Context, view TaskView) ([]model.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return sortByPriority(filterView(tasks, view)), nil
}

func (s *TaskService) mutate(ctx context.Context, taskID int64, apply func(*model.Task)) error {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return s.wrapLookupErr(err, taskID)
	}

	apply(task)

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrOptimisticLock) {
			s.logger.Warn().Int64("task_id", taskID).Msg("optimistic lock conflict")
			return apperrors.ErrOptimisticLock
		}
		s.logger.Error().Err(err).Int64("task_id", taskID).Msg("failed to update task")
		return err
	}

	return nil
}

func (s *TaskService) wrapLookupErr(err error, taskID int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrTaskNotFound
	}
	s.logger.Error().Err(err).Int64("task_id", taskID).Msg("failed to load task")
	return err
}

// normalizeLink mirrors the form helper: a value that already carries an
// http(s) scheme is kept, one that merely looks like a URL (starts with
// "www." or contains a dot) gets https:// prepended, anything else is
// stored verbatim. Empty input becomes null.
func normalizeLink(link string) *string {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil
	}

	lower := strings.ToLower(link)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return &link
	}

	if strings.HasPrefix(lower, "www.") || strings.Contains(link, ".") {
		normalized := "https://" + link
		return &normalized
	}

	return &link
}
