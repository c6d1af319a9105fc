package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apperrors "task-board.com/task-board/internal/errors"
	"task-board.com/task-board/internal/kvstore"
	repository "task-board.com/task-board/internal/repositories"
)

const (
	userReleaseKeyPrefix = "task_cleanup:"
	globalCleanupKey     = "last_database_cleanup"
)

// CleanupStatus is returned by the global-cleanup check so callers can show
// a countdown.
type CleanupStatus struct {
	Cleaned         bool      `json:"cleaned"`
	NextCleanupDate time.Time `json:"next_cleanup_date"`
	DaysRemaining   int       `json:"days_remaining"`
}

// CleanupService runs the two time-gated maintenance policies: the per-user
// 24h auto-release of claimed tasks, and the global periodic wipe that keeps
// only the primary admin account. Both are idempotent; timestamps live in
// the key-value store and are only advanced after the work succeeds, so a
// failed run retries on the next check.
type CleanupService struct {
	logger zerolog.Logger
	tasks  *repository.TaskRepository
	users  *repository.UserRepository
	wipe   *repository.CleanupRepository
	kv     kvstore.Store

	primaryAdminEmail string
	cleanupInterval   time.Duration
	autoRelease       time.Duration
	checkInterval     time.Duration

	loopWG   sync.WaitGroup
	loopStop chan struct{}
}

func NewCleanupService(
	logger zerolog.Logger,
	tasks *repository.TaskRepository,
	users *repository.UserRepository,
	wipe *repository.CleanupRepository,
	kv kvstore.Store,
	primaryAdminEmail string,
	cleanupIntervalDays int,
	autoReleaseHours int,
	checkIntervalMinutes int,
) *CleanupService {
	return &CleanupService{
		logger:            logger,
		tasks:             tasks,
		users:             users,
		wipe:              wipe,
		kv:                kv,
		primaryAdminEmail: primaryAdminEmail,
		cleanupInterval:   time.Duration(cleanupIntervalDays) * 24 * time.Hour,
		autoRelease:       time.Duration(autoReleaseHours) * time.Hour,
		checkInterval:     time.Duration(checkIntervalMinutes) * time.Minute,
		loopStop:          make(chan struct{}),
	}
}

// CheckUserRelease applies the auto-release policy for one user. The first
// check only seeds the timestamp; once the configured window has passed
// since the last check, every pending claim of the user is released and the
// timestamp resets.
func (s *CleanupService) CheckUserRelease(ctx context.Context, userID string) error {
	key := userReleaseKeyPrefix + userID
	now := time.Now().UTC()

	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return s.kv.Set(ctx, key, now.Format(time.RFC3339))
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to read release timestamp")
		return err
	}

	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.logger.Warn().Str("user_id", userID).Str("value", raw).Msg("unreadable release timestamp, reseeding")
		return s.kv.Set(ctx, key, now.Format(time.RFC3339))
	}

	if now.Sub(last) < s.autoRelease {
		return nil
	}

	if err := s.tasks.ClearAssignee(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("auto-release failed")
		return err
	}

	s.logger.Info().Str("user_id", userID).Msg("auto-released stale claims")
	return s.kv.Set(ctx, key, now.Format(time.RFC3339))
}

// TouchUserRelease resets the user's auto-release timer, used after a
// manual release-all so the next automatic check starts counting from now.
func (s *CleanupService) TouchUserRelease(ctx context.Context, userID string) error {
	return s.kv.Set(ctx, userReleaseKeyPrefix+userID, time.Now().UTC().Format(time.RFC3339))
}

// Status reports the countdown without wiping. A missing timestamp is seeded
// to now, mirroring the first-run behavior of Check.
func (s *CleanupService) Status(ctx context.Context) (CleanupStatus, error) {
	now := time.Now().UTC()

	last, err := s.lastCleanup(ctx, now)
	if err != nil {
		return CleanupStatus{}, err
	}

	next := last.Add(s.cleanupInterval)
	return CleanupStatus{
		Cleaned:         false,
		NextCleanupDate: next,
		DaysRemaining:   daysRemaining(next, now),
	}, nil
}

// Check runs the global-cleanup policy. The wipe fires when forced or when
// the interval has elapsed: all tasks are deleted and every user except the
// primary admin is removed, in one transaction. The timestamp only advances
// after a successful wipe.
func (s *CleanupService) Check(ctx context.Context, force bool) (CleanupStatus, error) {
	now := time.Now().UTC()

	last, err := s.lastCleanup(ctx, now)
	if err != nil {
		return CleanupStatus{}, err
	}

	next := last.Add(s.cleanupInterval)
	status := CleanupStatus{
		Cleaned:         false,
		NextCleanupDate: next,
		DaysRemaining:   daysRemaining(next, now),
	}

	if !force && now.Before(next) {
		return status, nil
	}

	admin, err := s.users.FindByEmail(ctx, s.primaryAdminEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Str("email", s.primaryAdminEmail).Msg("primary admin not found, refusing to wipe")
			return status, apperrors.ErrPrimaryAdminMissing
		}
		return status, err
	}

	if err := s.wipe.Wipe(ctx, admin.ID); err != nil {
		s.logger.Error().Err(err).Msg("database wipe failed")
		return status, err
	}

	if err := s.kv.Set(ctx, globalCleanupKey, now.Format(time.RFC3339)); err != nil {
		// The wipe itself succeeded; a stale timestamp only means the next
		// check wipes an already-empty database.
		s.logger.Error().Err(err).Msg("failed to store cleanup timestamp")
	}

	s.logger.Info().Time("next_cleanup", now.Add(s.cleanupInterval)).Msg("database wipe completed")

	return CleanupStatus{
		Cleaned:         true,
		NextCleanupDate: now.Add(s.cleanupInterval),
		DaysRemaining:   daysRemaining(now.Add(s.cleanupInterval), now),
	}, nil
}

// StartReleaseLoop checks every user holding a pending claim on the
// configured interval, until Shutdown.
func (s *CleanupService) StartReleaseLoop() {
	s.loopWG.Add(1)
	go s.releaseLoop()
}

func (s *CleanupService) releaseLoop() {
	defer s.loopWG.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.releaseDueClaims()
		case <-s.loopStop:
			return
		}
	}
}

func (s *CleanupService) releaseDueClaims() {
	ctx := context.Background()

	ids, err := s.tasks.ListAssignees(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("release loop: failed to list claim holders")
		return
	}

	for _, id := range ids {
		if err := s.CheckUserRelease(ctx, id); err != nil {
			s.logger.Error().Err(err).Str("user_id", id).Msg("release loop: check failed")
		}
	}
}

func (s *CleanupService) Shutdown() {
	close(s.loopStop)
	s.loopWG.Wait()
}

func (s *CleanupService) lastCleanup(ctx context.Context, now time.Time) (time.Time, error) {
	raw, err := s.kv.Get(ctx, globalCleanupKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			if err := s.kv.Set(ctx, globalCleanupKey, now.Format(time.RFC3339)); err != nil {
				return time.Time{}, err
			}
			return now, nil
		}
		return time.Time{}, err
	}

	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.logger.Warn().Str("value", raw).Msg("unreadable cleanup timestamp, reseeding")
		if err := s.kv.Set(ctx, globalCleanupKey, now.Format(time.RFC3339)); err != nil {
			return time.Time{}, err
		}
		return now, nil
	}

	return last, nil
}

func daysRemaining(next, now time.Time) int {
	days := int(math.Ceil(next.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
