// Package seed загружает стартовый каталог пользователей и вещей из
// YAML-файла. Удобно для демо-стендов и прогона через memory-хранилище.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	yaml "gopkg.in/yaml.v2"
)

type File struct {
	Users []User `yaml:"users"`
	Items []Item `yaml:"items"`
}

type User struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

type Item struct {
	OwnerEmail  string `yaml:"owner_email"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Available   *bool  `yaml:"available"`
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &file, nil
}

func (f *File) Validate() error {
	emails := make(map[string]bool, len(f.Users))
	for i, user := range f.Users {
		if strings.TrimSpace(user.Name) == "" || strings.TrimSpace(user.Email) == "" {
			return fmt.Errorf("seed user %d: name and email are required", i)
		}
		if emails[user.Email] {
			return fmt.Errorf("seed user %d: duplicate email %s", i, user.Email)
		}
		emails[user.Email] = true
	}

	for i, item := range f.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("seed item %d: name is required", i)
		}
		if !emails[item.OwnerEmail] {
			return fmt.Errorf("seed item %d: unknown owner_email %s", i, item.OwnerEmail)
		}
	}

	return nil
}

// Apply заливает каталог в пустое хранилище. Непустое хранилище не
// трогаем, чтобы повторный запуск не плодил дубликаты.
func Apply(ctx context.Context, file *File, store domain.Store, logger *zerolog.Logger) error {
	if err := file.Validate(); err != nil {
		return err
	}

	existing, err := store.GetAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if len(existing) > 0 {
		logger.Info().Msg("Store is not empty, skipping seed")
		return nil
	}

	ownerIDs := make(map[string]int64, len(file.Users))
	for _, u := range file.Users {
		user := &models.User{Name: u.Name, Email: u.Email}
		if err := store.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
		ownerIDs[u.Email] = user.ID
	}

	for _, it := range file.Items {
		available := true
		if it.Available != nil {
			available = *it.Available
		}
		item := &models.Item{
			Name:        it.Name,
			Description: it.Description,
			Available:   available,
			OwnerID:     ownerIDs[it.OwnerEmail],
		}
		if err := store.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("failed to seed item %s: %w", it.Name, err)
		}
	}

	logger.Info().
		Int("users", len(file.Users)).
		Int("items", len(file.Items)).
		Msg("Seed applied")
	return nil
}
