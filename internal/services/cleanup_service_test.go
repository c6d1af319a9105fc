package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "task-board.com/task-board/internal/errors"
	"task-board.com/task-board/internal/kvstore"
	model "task-board.com/task-board/internal/models"
	repository "task-board.com/task-board/internal/repositories"
)

// mockKVStore is a simple in-memory key-value store for testing.
type mockKVStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{values: make(map[string]string)}
}

func (m *mockKVStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return "", kvstore.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *mockKVStore) backdate(key string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = time.Now().UTC().Add(-d).Format(time.RFC3339)
}

const testPrimaryAdminEmail = "primary@example.com"

type cleanupFixture struct {
	service *CleanupService
	tasks   *TaskService
	users   *repository.UserRepository
	kv      *mockKVStore
}

func newCleanupFixture(t *testing.T) *cleanupFixture {
	db := setupTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	kv := newMockKVStore()

	service := NewCleanupService(
		zerolog.Nop(),
		taskRepo,
		userRepo,
		repository.NewCleanupRepository(db),
		kv,
		testPrimaryAdminEmail,
		20,
		24,
		60,
	)

	return &cleanupFixture{
		service: service,
		tasks:   NewTaskService(zerolog.Nop(), taskRepo),
		users:   userRepo,
		kv:      kv,
	}
}

func (f *cleanupFixture) addUser(t *testing.T, email string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: email, Password: "secret", Role: role}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

func TestCheckUserRelease_FirstRunSeedsWithoutReleasing(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	task, _ := f.tasks.AddTask(ctx, AddTaskParams{Title: "T", CreatedBy: "u1"})
	_ = f.tasks.AssignTask(ctx, task.ID, "u2")

	if err := f.service.CheckUserRelease(ctx, "u2"); err != nil {
		t.Fatalf("first check failed: %v", err)
	}

	got, _ := f.tasks.GetTask(ctx, task.ID)
	if got.AssignedTo == nil {
		t.Error("first run must only seed the timestamp, not release")
	}

	if _, err := f.kv.Get(ctx, userReleaseKeyPrefix+"u2"); err != nil {
		t.Errorf("expected seeded timestamp: %v", err)
	}
}

func TestCheckUserRelease_After24Hours(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	task, _ := f.tasks.AddTask(ctx, AddTaskParams{Title: "T", CreatedBy: "u1"})
	_ = f.tasks.AssignTask(ctx, task.ID, "u2")

	f.kv.backdate(userReleaseKeyPrefix+"u2", 25*time.Hour)

	if err := f.service.CheckUserRelease(ctx, "u2"); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	got, _ := f.tasks.GetTask(ctx, task.ID)
	if got.AssignedTo != nil {
		t.Error("stale claim should have been auto-released")
	}
	if got.LastAssignedAt != nil {
		t.Error("release must clear last_assigned_at")
	}

	// The timestamp resets, so an immediate second check is a no-op.
	fresh, _ := f.tasks.AddTask(ctx, AddTaskParams{Title: "T2", CreatedBy: "u1"})
	_ = f.tasks.AssignTask(ctx, fresh.ID, "u2")
	if err := f.service.CheckUserRelease(ctx, "u2"); err != nil {
		t.Fatalf("second check failed: %v", err)
	}
	got, _ = f.tasks.GetTask(ctx, fresh.ID)
	if got.AssignedTo == nil {
		t.Error("claim made after the release must survive the next check")
	}
}

func TestCheckUserRelease_BeforeWindow(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	task, _ := f.tasks.AddTask(ctx, AddTaskParams{Title: "T", CreatedBy: "u1"})
	_ = f.tasks.AssignTask(ctx, task.ID, "u2")

	f.kv.backdate(userReleaseKeyPrefix+"u2", time.Hour)

	if err := f.service.CheckUserRelease(ctx, "u2"); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	got, _ := f.tasks.GetTask(ctx, task.ID)
	if got.AssignedTo == nil {
		t.Error("claim younger than 24h must not be released")
	}
}

func TestCleanupStatus_Countdown(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	f.kv.backdate(globalCleanupKey, 5*24*time.Hour)

	status, err := f.service.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}

	if status.Cleaned {
		t.Error("status must never report a wipe")
	}
	if status.DaysRemaining != 15 {
		t.Errorf("expected 15 days remaining, got %d", status.DaysRemaining)
	}
}

func TestCleanupStatus_SeedsOnFirstCall(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	status, err := f.service.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}

	if status.DaysRemaining != 20 {
		t.Errorf("expected full interval remaining, got %d", status.DaysRemaining)
	}
	if _, err := f.kv.Get(ctx, globalCleanupKey); err != nil {
		t.Errorf("expected seeded global timestamp: %v", err)
	}
}

func TestCleanupCheck_NotDue(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	f.addUser(t, testPrimaryAdminEmail, model.RoleAdmin)
	f.addUser(t, "someone@example.com", model.RoleUser)
	_, _ = f.tasks.AddTask(ctx, AddTaskParams{Title: "T", CreatedBy: "u1"})

	f.kv.backdate(globalCleanupKey, 24*time.Hour)

	status, err := f.service.Check(ctx, false)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if status.Cleaned {
		t.Error("cleanup must not fire before the interval elapses")
	}

	users, _ := f.users.List(ctx)
	if len(users) != 2 {
		t.Errorf("expected users untouched, got %d", len(users))
	}
}

func TestCleanupCheck_Forced(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	admin := f.addUser(t, testPrimaryAdminEmail, model.RoleAdmin)
	f.addUser(t, "worker1@example.com", model.RoleUser)
	f.addUser(t, "worker2@example.com", model.RoleUser)

	_, _ = f.tasks.AddTask(ctx, AddTaskParams{Title: "T1", CreatedBy: admin.ID})
	_, _ = f.tasks.AddTask(ctx, AddTaskParams{Title: "T2", CreatedBy: admin.ID})

	status, err := f.service.Check(ctx, true)
	if err != nil {
		t.Fatalf("forced cleanup failed: %v", err)
	}

	if !status.Cleaned {
		t.Error("forced cleanup must report cleaned")
	}
	if status.DaysRemaining != 20 {
		t.Errorf("expected countdown reset to 20 days, got %d", status.DaysRemaining)
	}

	tasks, _ := f.tasks.ListTasks(ctx)
	if len(tasks) != 0 {
		t.Errorf("expected 0 tasks after wipe, got %d", len(tasks))
	}

	users, _ := f.users.List(ctx)
	if len(users) != 1 || users[0].ID != admin.ID {
		t.Errorf("expected only the primary admin to survive, got %d users", len(users))
	}
}

func TestCleanupCheck_DueByTime(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	f.addUser(t, testPrimaryAdminEmail, model.RoleAdmin)
	f.addUser(t, "worker@example.com", model.RoleUser)

	f.kv.backdate(globalCleanupKey, 21*24*time.Hour)

	status, err := f.service.Check(ctx, false)
	if err != nil {
		t.Fatalf("due cleanup failed: %v", err)
	}
	if !status.Cleaned {
		t.Error("cleanup past the interval must fire without force")
	}

	users, _ := f.users.List(ctx)
	if len(users) != 1 {
		t.Errorf("expected only the primary admin to survive, got %d users", len(users))
	}
}

func TestCleanupCheck_MissingPrimaryAdmin(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	f.addUser(t, "worker@example.com", model.RoleUser)
	f.kv.backdate(globalCleanupKey, 21*24*time.Hour)

	if _, err := f.service.Check(ctx, true); err != apperrors.ErrPrimaryAdminMissing {
		t.Fatalf("expected ErrPrimaryAdminMissing, got %v", err)
	}

	// Nothing was wiped and the timestamp did not advance, so the next
	// check retries.
	users, _ := f.users.List(ctx)
	if len(users) != 1 {
		t.Errorf("expected users untouched, got %d", len(users))
	}

	raw, _ := f.kv.Get(ctx, globalCleanupKey)
	last, _ := time.Parse(time.RFC3339, raw)
	if time.Since(last) < 20*24*time.Hour {
		t.Error("failed cleanup must not advance the timestamp")
	}
}

func TestTouchUserRelease(t *testing.T) {
	f := newCleanupFixture(t)
	ctx := context.Background()

	f.kv.backdate(userReleaseKeyPrefix+"u2", 25*time.Hour)

	if err := f.service.TouchUserRelease(ctx, "u2"); err != nil {
		t.Fatalf("touch failed: %v", err)
	}

	task, _ := f.tasks.AddTask(ctx, AddTaskParams{Title: "T", CreatedBy: "u1"})
	_ = f.tasks.AssignTask(ctx, task.ID, "u2")

	if err := f.service.CheckUserRelease(ctx, "u2"); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	got, _ := f.tasks.GetTask(ctx, task.ID)
	if got.AssignedTo == nil {
		t.Error("touch must reset the timer so the claim survives")
	}
}
