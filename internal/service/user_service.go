package service

import (
	"context"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	store  domain.Store
	logger *zerolog.Logger
}

func NewUserService(store domain.Store, logger *zerolog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.store.CreateUser(ctx, user); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("User created")
	return nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return s.store.GetAllUsers(ctx)
}

// UpdateUser применяет частичное обновление: nil-поля не трогаются.
func (s *UserService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Пустые строки игнорируются так же, как отсутствующие поля
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		user.Name = *patch.Name
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		user.Email = *patch.Email
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("User updated")
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", id).Msg("User deleted")
	return nil
}
