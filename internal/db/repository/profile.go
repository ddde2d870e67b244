package repository

import (
	"context"
	"database/sql"

	"jobboard/internal/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetRole reads the current role for id. A NULL role comes back as the
// empty Role, which no role set contains.
func (r *ProfileRepo) GetRole(ctx context.Context, id string) (domain.Role, error) {
	var role sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT role FROM profiles WHERE id = $1`, id).Scan(&role)
	if err != nil {
		return "", mapDBError(err)
	}
	return domain.Role(role.String), nil
}

func (r *ProfileRepo) Get(ctx context.Context, id string) (*domain.Profile, error) {
	var (
		p    domain.Profile
		role sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, updated_at FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Email, &p.FullName, &role, &p.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	p.Role = domain.Role(role.String)
	return &p, nil
}

func (r *ProfileRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Profile, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, full_name, role, updated_at FROM profiles ORDER BY email, id LIMIT $1 OFFSET $2`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var (
			p    domain.Profile
			role sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &role, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		p.Role = domain.Role(role.String)
		profiles = append(profiles, p)
	}
	return profiles, total, rows.Err()
}

func (r *ProfileRepo) SetRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET role = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, string(role), id)
	if err != nil {
		return mapDBError(err)
	}
	return requireAffected(res, "profile", id)
}
