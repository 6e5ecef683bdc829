package service

import (
	"context"
	"fmt"

	"github.com/ppodrugin/silver-greek-bot/internal/domain/entities"
)

type UserRepo interface {
	SaveUser(ctx context.Context, user *entities.User) error
	GetUser(ctx context.Context, userID int64) (*entities.User, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	SetTracked(ctx context.Context, userID int64, tracked bool) error
	SetAdmin(ctx context.Context, userID int64, admin bool) error
	TrackedUsers(ctx context.Context) ([]*entities.User, error)
}

// UserService manages the collaborator roster.
type UserService struct {
	users UserRepo
}

func NewUserService(users UserRepo) *UserService {
	return &UserService{users: users}
}

// EnsureUser registers a user on first contact and refreshes the username
// on every later one. It reports whether the user was new.
func (s *UserService) EnsureUser(ctx context.Context, userID int64, username string) (bool, error) {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}

	user := entities.NewUser(userID, username)
	if err := s.users.SaveUser(ctx, user); err != nil {
		return false, fmt.Errorf("save user: %w", err)
	}

	return !exists, nil
}

// GetUser returns a user's profile.
func (s *UserService) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	return s.users.GetUser(ctx, userID)
}

// Track marks a user as tracked so their activity counts toward reports
// and they qualify as a fallback owner for unscoped data.
func (s *UserService) Track(ctx context.Context, userID int64, tracked bool) error {
	return s.users.SetTracked(ctx, userID, tracked)
}

// Promote toggles a user's admin flag.
func (s *UserService) Promote(ctx context.Context, userID int64, admin bool) error {
	return s.users.SetAdmin(ctx, userID, admin)
}

// TrackedUsers lists users currently marked as tracked.
func (s *UserService) TrackedUsers(ctx context.Context) ([]*entities.User, error) {
	return s.users.TrackedUsers(ctx)
}
