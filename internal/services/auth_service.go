package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apperrors "task-board.com/task-board/internal/errors"
	model "task-board.com/task-board/internal/models"
	repository "task-board.com/task-board/internal/repositories"
)

// AuthService is the user directory: login, lookup and admin user
// management. Credentials are a plain equality check against the stored
// password; sessions are stateless HS256 bearer tokens.
type AuthService struct {
	logger     zerolog.Logger
	users      *repository.UserRepository
	signingKey []byte
	sessionTTL time.Duration
}

func NewAuthService(
	logger zerolog.Logger,
	users *repository.UserRepository,
	signingKey string,
	sessionTTLHours int,
) *AuthService {
	return &AuthService{
		logger:     logger,
		users:      users,
		signingKey: []byte(signingKey),
		sessionTTL: time.Duration(sessionTTLHours) * time.Hour,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Msg("failed to look up user for login")
		return "", nil, err
	}

	if user.Password != password {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to sign session token")
		return "", nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return token, user, nil
}

// ParseToken returns the user id a valid session token was issued for.
func (s *AuthService) ParseToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}

	return claims.Subject, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

type AddUserParams struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	Image    *string
}

func (s *AuthService) AddUser(ctx context.Context, p AddUserParams) (*model.User, error) {
	if _, err := s.users.FindByEmail(ctx, p.Email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := p.Role
	if role == "" {
		role = model.RoleUser
	}

	user := &model.User{
		Name:     p.Name,
		Email:    p.Email,
		Password: p.Password,
		Role:     role,
		Image:    p.Image,
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

type UpdateUserParams struct {
	Name     *string
	Email    *string
	Password *string
	Role     *model.Role
	Image    *string
}

func (s *AuthService) UpdateUser(ctx context.Context, id string, p UpdateUserParams) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Email != nil && *p.Email != user.Email {
		if _, err := s.users.FindByEmail(ctx, *p.Email); err == nil {
			return nil, apperrors.ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = *p.Email
	}
	if p.Name != nil {
		user.Name = *p.Name
	}
	if p.Password != nil {
		user.Password = *p.Password
	}
	if p.Role != nil {
		user.Role = *p.Role
	}
	if p.Image != nil {
		user.Image = p.Image
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to update user")
		return nil, err
	}

	return user, nil
}

// DeleteUser refuses to remove the acting user's own account and the last
// remaining admin.
func (s *AuthService) DeleteUser(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return apperrors.ErrCannotDeleteSelf
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if user.IsAdmin() {
		admins, err := s.users.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return apperrors.ErrLastAdmin
		}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to delete user")
		return err
	}

	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// EnsureInitialAdmin bootstraps the primary admin account when no admin
// exists yet.
func (s *AuthService) EnsureInitialAdmin(ctx context.Context, email, password, name string) error {
	admins, err := s.users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}

	user := &model.User{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("initial admin created")
	return nil
}
