package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"agentlyou/internal/store"
	"agentlyou/shared/go/models"
)

type seedFile struct {
	Users []models.User `yaml:"users"`
}

type userSeeder interface {
	EnsureUser(ctx context.Context, u *models.User) (bool, error)
}

// bootstrapUsers inserts the demo accounts listed in path. Existing accounts
// are left untouched.
func bootstrapUsers(ctx context.Context, users userSeeder, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for i := range seed.Users {
		u := &seed.Users[i]
		created, err := users.EnsureUser(ctx, u)
		if errors.Is(err, store.ErrUserExists) {
			log.Warn().Str("email", u.Email).Msg("seed email belongs to another account")
			continue
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if created {
			log.Info().Str("user_id", u.ID.String()).Str("email", u.Email).Msg("seeded user")
		}
	}
	return nil
}
