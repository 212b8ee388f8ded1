package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/coffeeapi/backend/internal/apperr"
	"github.com/coffeeapi/backend/internal/domain"
)

type UserService struct {
	users  domain.UserRepository
	logger *slog.Logger
}

func NewUserService(users domain.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) List(ctx context.Context, offset, limit int) ([]domain.User, error) {
	return s.users.FindAll(ctx, offset, limit)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.UserNotFound("id", strconv.FormatInt(id, 10))
	}
	return user, err
}

func (s *UserService) Update(ctx context.Context, id int64, input domain.UpdateUserInput) (*domain.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	user, err := s.users.Update(ctx, id, input)
	if errors.Is(err, domain.ErrAlreadyExists) {
		field, value := "username", ""
		if input.Username != nil {
			value = *input.Username
		} else if input.Email != nil {
			field, value = "email", *input.Email
		}
		return nil, apperr.UserExists(field, value)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", "user_id", id)
	return user, nil
}

// Delete deactivates the account instead of removing the row. Sessions keep
// their records and are rejected at verification time.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if !user.IsActive {
		return nil
	}

	inactive := false
	if _, err := s.users.Update(ctx, id, domain.UpdateUserInput{IsActive: &inactive}); err != nil {
		return err
	}

	s.logger.Info("user deactivated", "user_id", id)
	return nil
}
