package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	apperrors "task-board.com/task-board/internal/errors"
	model "task-board.com/task-board/internal/models"
	repository "task-board.com/task-board/internal/repositories"
)

func newTestAuthService(t *testing.T) (*AuthService, *repository.UserRepository) {
	repo := repository.NewUserRepository(setupTestDB(t))
	return NewAuthService(zerolog.Nop(), repo, "test-signing-key", 24), repo
}

func seedUser(t *testing.T, repo *repository.UserRepository, email string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: email, Password: "secret", Role: role}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

func TestLogin(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()

	seeded := seedUser(t, repo, "admin@example.com", model.RoleAdmin)

	token, user, err := service.Login(ctx, "admin@example.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("expected user %s, got %s", seeded.ID, user.ID)
	}

	subject, err := service.ParseToken(token)
	if err != nil {
		t.Fatalf("failed to parse issued token: %v", err)
	}
	if subject != seeded.ID {
		t.Errorf("token subject %s, want %s", subject, seeded.ID)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()

	seedUser(t, repo, "admin@example.com", model.RoleAdmin)

	if _, _, err := service.Login(ctx, "admin@example.com", "wrong"); err != apperrors.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, _, err := service.Login(ctx, "nobody@example.com", "secret"); err != apperrors.ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAddUser_DuplicateEmail(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()

	seedUser(t, repo, "taken@example.com", model.RoleUser)

	_, err := service.AddUser(ctx, AddUserParams{Email: "taken@example.com", Password: "pw"})
	if err != apperrors.ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateUser_PartialPatch(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()

	user := seedUser(t, repo, "worker@example.com", model.RoleUser)

	name := "New Name"
	updated, err := service.UpdateUser(ctx, user.ID, UpdateUserParams{Name: &name})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Name != name {
		t.Errorf("expected name %q, got %q", name, updated.Name)
	}
	if updated.Email != user.Email || updated.Role != user.Role {
		t.Error("fields outside the patch must be unchanged")
	}
}

func TestDeleteUser_Self(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()

	admin := seedUser(t, repo, "admin@example.com", model.RoleAdmin)

	if err := service.DeleteUser(ctx, admin.ID, admin.ID); err != apperrors.ErrCannotDeleteSelf {
		t.Errorf("expected ErrCannotDeleteSelf, got %v", err)
	}

	users, _ := repo.List(ctx)
	if len(users) != 1 {
		t.Errorf("expected users unchanged, got %d", len(users))
	}
}

func TestDeleteUser_LastAdmin(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()

	admin := seedUser(t, repo, "admin@example.com", model.RoleAdmin)
	actor := seedUser(t, repo, "worker@example.com", model.RoleUser)

	if err := service.DeleteUser(ctx, admin.ID, actor.ID); err != apperrors.ErrLastAdmin {
		t.Errorf("expected ErrLastAdmin, got %v", err)
	}

	users, _ := repo.List(ctx)
	if len(users) != 2 {
		t.Errorf("expected users unchanged, got %d", len(users))
	}
}

func TestDeleteUser_AdminWithBackup(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()

	first := seedUser(t, repo, "first@example.com", model.RoleAdmin)
	second := seedUser(t, repo, "second@example.com", model.RoleAdmin)

	if err := service.DeleteUser(ctx, second.ID, first.ID); err != nil {
		t.Fatalf("deleting a non-last admin must succeed: %v", err)
	}

	if _, err := service.GetUser(ctx, second.ID); err != apperrors.ErrUserNotFound {
		t.Errorf("expected deleted admin to be gone, got %v", err)
	}
}

func TestEnsureInitialAdmin(t *testing.T) {
	service, repo := newTestAuthService(t)
	ctx := context.Background()

	if err := service.EnsureInitialAdmin(ctx, "primary@example.com", "pw", "Administrador"); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	admins, _ := repo.CountAdmins(ctx)
	if admins != 1 {
		t.Fatalf("expected exactly one admin, got %d", admins)
	}

	// Idempotent: a second call must not create another admin.
	if err := service.EnsureInitialAdmin(ctx, "primary@example.com", "pw", "Administrador"); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	admins, _ = repo.CountAdmins(ctx)
	if admins != 1 {
		t.Errorf("bootstrap must be idempotent, got %d admins", admins)
	}
}
