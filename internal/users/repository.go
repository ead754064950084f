package users

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crustline/crustline/internal/shared"
)

// Repository provides PostgreSQL backed persistence for user profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches a user with roles by id.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Name, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	roles, err := r.loadRoles(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}

// Update applies the non-nil fields and returns the updated user.
func (r *Repository) Update(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	sets, args := updateSets(params)
	if len(sets) > 0 {
		args = append(args, id)
		query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = $" + strconv.Itoa(len(args))
		if _, err := r.pool.Exec(ctx, query, args...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, shared.ErrDuplicate
			}
			return nil, err
		}
	}
	return r.Get(ctx, id)
}

func updateSets(params UpdateParams) ([]string, []any) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.PasswordHash != nil {
		add("password_hash", *params.PasswordHash)
	}
	if len(sets) > 0 {
		sets = append(sets, "updated_at = now()")
	}
	return sets, args
}

func (r *Repository) loadRoles(ctx context.Context, userID int64) ([]shared.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role, COALESCE(object_id, 0) FROM user_roles WHERE user_id = $1 ORDER BY role, object_id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []shared.Role
	for rows.Next() {
		var role shared.Role
		if err := rows.Scan(&role.Role, &role.ObjectID); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
