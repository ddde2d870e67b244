package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jobboard/internal/db"
	"jobboard/internal/db/repository"
	"jobboard/internal/domain"
)

// seedAdmin creates the bootstrap administrator when no profile exists for
// id. An existing profile is left alone so its role can later be changed
// through the admin routes.
func seedAdmin(ctx context.Context, admin *db.AdminDB, id, email string, logger *slog.Logger) error {
	_, err := repository.NewProfileRepo(admin.DB).Get(ctx, id)
	if err == nil {
		return nil // already seeded
	}
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	if _, err := repository.NewUserRepo(admin.DB).Create(ctx, id, email, domain.RoleAdmin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	logger.Info("bootstrap admin created", "user_id", id)
	return nil
}
