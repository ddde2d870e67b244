package repository

import (
	"context"
	"database/sql"
	"fmt"

	"jobboard/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a user and its profile in one transaction.
func (r *UserRepo) Create(ctx context.Context, id, email string, role domain.Role) (*domain.Profile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2)`, id, email); err != nil {
		return nil, mapDBError(err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (id, email, role) VALUES ($1, $2, $3)`, id, email, string(role)); err != nil {
		return nil, mapDBError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return NewProfileRepo(r.db).Get(ctx, id)
}

// Delete removes the user. Profiles and subscriptions go with it through
// ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapDBError(err)
	}
	return requireAffected(res, "user", id)
}
