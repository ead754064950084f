package franchise

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crustline/crustline/internal/platform/db"
	"github.com/crustline/crustline/internal/shared"
)

// Repository defines persistence operations for franchises and stores.
type Repository interface {
	List(ctx context.Context, filter shared.ListFilter) ([]Franchise, bool, error)
	ListForUser(ctx context.Context, userID int64) ([]Franchise, error)
	Create(ctx context.Context, name string, admins []Admin) (*Franchise, error)
	Delete(ctx context.Context, id int64) error
	CreateStore(ctx context.Context, franchiseID int64, name string) (*Store, error)
	DeleteStore(ctx context.Context, franchiseID, storeID int64) error
	FindAdminByEmail(ctx context.Context, email string) (Admin, error)
	FranchiseExists(ctx context.Context, franchiseID int64) (bool, error)
	IsFranchiseAdmin(ctx context.Context, franchiseID, userID int64) (bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filter shared.ListFilter) ([]Franchise, bool, error) {
	query := `SELECT id, name FROM franchises`
	countQuery := `SELECT COUNT(*) FROM franchises`
	args := []any{}
	if filter.Name != "" {
		query += ` WHERE name ILIKE $1`
		countQuery += ` WHERE name ILIKE $1`
		args = append(args, "%"+filter.Name+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, false, err
	}

	query += ` ORDER BY name`
	if filter.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, filter.Limit, filter.Offset())
	}

	franchises, err := r.queryFranchises(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	more := filter.Offset()+len(franchises) < total
	return franchises, more, nil
}

func (r *repository) ListForUser(ctx context.Context, userID int64) ([]Franchise, error) {
	return r.queryFranchises(ctx,
		`SELECT f.id, f.name FROM franchises f
		 JOIN franchise_admins fa ON fa.franchise_id = f.id
		 WHERE fa.user_id = $1 ORDER BY f.name`,
		userID,
	)
}

func (r *repository) queryFranchises(ctx context.Context, query string, args ...any) ([]Franchise, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	franchises := []Franchise{}
	var ids []int64
	for rows.Next() {
		var f Franchise
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		f.Admins = []Admin{}
		f.Stores = []Store{}
		franchises = append(franchises, f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(franchises) == 0 {
		return franchises, nil
	}

	index := make(map[int64]*Franchise, len(franchises))
	for i := range franchises {
		index[franchises[i].ID] = &franchises[i]
	}
	if err := r.attachAdmins(ctx, ids, index); err != nil {
		return nil, err
	}
	if err := r.attachStores(ctx, ids, index); err != nil {
		return nil, err
	}
	return franchises, nil
}

func (r *repository) attachAdmins(ctx context.Context, ids []int64, index map[int64]*Franchise) error {
	rows, err := r.pool.Query(ctx,
		`SELECT fa.franchise_id, u.id, u.name, u.email
		 FROM franchise_admins fa JOIN users u ON u.id = fa.user_id
		 WHERE fa.franchise_id = ANY($1) ORDER BY fa.position`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var fid int64
		var admin Admin
		if err := rows.Scan(&fid, &admin.ID, &admin.Name, &admin.Email); err != nil {
			return err
		}
		if f, ok := index[fid]; ok {
			f.Admins = append(f.Admins, admin)
		}
	}
	return rows.Err()
}

func (r *repository) attachStores(ctx context.Context, ids []int64, index map[int64]*Franchise) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, franchise_id, name FROM stores WHERE franchise_id = ANY($1) ORDER BY id`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var store Store
		if err := rows.Scan(&store.ID, &store.FranchiseID, &store.Name); err != nil {
			return err
		}
		if f, ok := index[store.FranchiseID]; ok {
			f.Stores = append(f.Stores, store)
		}
	}
	return rows.Err()
}

func (r *repository) Create(ctx context.Context, name string, admins []Admin) (*Franchise, error) {
	franchise := &Franchise{Name: name, Admins: admins, Stores: []Store{}}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO franchises (name) VALUES ($1) RETURNING id`, name).
			Scan(&franchise.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return shared.ErrDuplicate
			}
			return err
		}
		for i, admin := range admins {
			if _, err := tx.Exec(ctx,
				`INSERT INTO franchise_admins (franchise_id, user_id, position) VALUES ($1, $2, $3)`,
				franchise.ID, admin.ID, i,
			); err != nil {
				return err
			}
			// Mirror the listing as a scoped franchisee role.
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_roles (user_id, role, object_id) VALUES ($1, $2, $3)`,
				admin.ID, shared.RoleFranchisee, franchise.ID,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return franchise, nil
}

// Delete removes a franchise and everything hanging off it. Deleting an
// unknown id is a no-op success.
func (r *repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM stores WHERE franchise_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM user_roles WHERE role = $1 AND object_id = $2`, shared.RoleFranchisee, id,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM franchise_admins WHERE franchise_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM franchises WHERE id = $1`, id)
		return err
	})
}

func (r *repository) CreateStore(ctx context.Context, franchiseID int64, name string) (*Store, error) {
	store := &Store{FranchiseID: franchiseID, Name: name}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO stores (franchise_id, name) VALUES ($1, $2) RETURNING id`,
		franchiseID, name,
	).Scan(&store.ID)
	if err != nil {
		// A franchise that vanished between the policy check and the
		// insert denies the same way the policy does; existence is
		// never reported through the error.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, shared.Forbiddenf("unable to create a store")
		}
		return nil, err
	}
	return store, nil
}

// DeleteStore removes a store; unknown ids are a no-op success.
func (r *repository) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM stores WHERE franchise_id = $1 AND id = $2`, franchiseID, storeID)
	return err
}

func (r *repository) FindAdminByEmail(ctx context.Context, email string) (Admin, error) {
	var admin Admin
	err := r.pool.QueryRow(ctx, `SELECT id, name, email FROM users WHERE email = $1`, email).
		Scan(&admin.ID, &admin.Name, &admin.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, shared.ErrNotFound
		}
		return Admin{}, err
	}
	return admin, nil
}

func (r *repository) FranchiseExists(ctx context.Context, franchiseID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM franchises WHERE id = $1)`,
		franchiseID,
	).Scan(&exists)
	return exists, err
}

func (r *repository) IsFranchiseAdmin(ctx context.Context, franchiseID, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM franchise_admins WHERE franchise_id = $1 AND user_id = $2)`,
		franchiseID, userID,
	).Scan(&exists)
	return exists, err
}
