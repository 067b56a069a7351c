// internal/repository/postgres/principal_repo.go
package postgres

import (
	"context"

	"jobboard-service/internal/domain/auth"
	xerrors "jobboard-service/internal/pkg/errors"
)

const principalColumns = `id, email, password_hash, role, company_id, created_at, updated_at`

type PrincipalRepository struct {
	db Querier
}

func NewPrincipalRepository(db Querier) *PrincipalRepository {
	return &PrincipalRepository{db: db}
}

func (r *PrincipalRepository) scan(row interface {
	Scan(dest ...interface{}) error
}) (*auth.Principal, error) {
	var p auth.Principal
	var role string
	if err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &role, &p.CompanyID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = auth.Role(role)
	return &p, nil
}

// FindByID retrieves a principal by id
func (r *PrincipalRepository) FindByID(ctx context.Context, id int64) (*auth.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM users WHERE id = $1`

	p, err := r.scan(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "find user by id")
	}
	return p, nil
}

// FindByEmail retrieves a principal by case-insensitive email
func (r *PrincipalRepository) FindByEmail(ctx context.Context, email string) (*auth.Principal, error) {
	query := `SELECT ` + principalColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	p, err := r.scan(r.db.QueryRow(ctx, query, auth.NormalizeEmail(email)))
	if err != nil {
		return nil, mapError(err, "find user by email")
	}
	return p, nil
}

func (r *PrincipalRepository) Create(ctx context.Context, p *auth.Principal) error {
	query := `
		INSERT INTO users (email, password_hash, role, company_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		auth.NormalizeEmail(p.Email), p.PasswordHash, string(p.Role), p.CompanyID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "create user")
}

func (r *PrincipalRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete user")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *PrincipalRepository) UpdateRole(ctx context.Context, id int64, role auth.Role) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, string(role), id)
	if err != nil {
		return mapError(err, "update user role")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *PrincipalRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return mapError(err, "update password")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
