package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crustline/crustline/internal/platform/db"
	"github.com/crustline/crustline/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateUser(ctx context.Context, name, email, passwordHash string, roles []shared.Role) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateUser inserts a user together with its initial roles.
func (r *PGRepository) CreateUser(ctx context.Context, name, email, passwordHash string, roles []shared.Role) (*User, error) {
	user := &User{Name: name, Email: email, PasswordHash: passwordHash, Roles: roles}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
			name, email, passwordHash,
		).Scan(&user.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return shared.ErrDuplicate
			}
			return err
		}
		for _, role := range roles {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`,
				user.ID, role.Role, nullableID(role.ObjectID),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail fetches a user with roles by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.fetchUser(ctx, `SELECT id, name, email, password_hash FROM users WHERE email = $1`, email)
}

// GetUser fetches a user with roles by id.
func (r *PGRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	return r.fetchUser(ctx, `SELECT id, name, email, password_hash FROM users WHERE id = $1`, id)
}

func (r *PGRepository) fetchUser(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	roles, err := r.loadRoles(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}

func (r *PGRepository) loadRoles(ctx context.Context, userID int64) ([]shared.Role, error) {
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

var _ Repository = (*PGRepository)(nil)
