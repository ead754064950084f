package order

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crustline/crustline/internal/platform/db"
)

// Repository defines persistence operations for menus and orders.
type Repository interface {
	Menu(ctx context.Context) ([]MenuItem, error)
	AddMenuItem(ctx context.Context, item MenuItem) (*MenuItem, error)
	OrdersForDiner(ctx context.Context, dinerID int64, page, limit int) ([]Order, error)
	CreateOrder(ctx context.Context, dinerID int64, req CreateOrderRequest) (*Order, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Menu(ctx context.Context) ([]MenuItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, image, price FROM menu_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []MenuItem{}
	for rows.Next() {
		var item MenuItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Image, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) AddMenuItem(ctx context.Context, item MenuItem) (*MenuItem, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO menu_items (title, description, image, price) VALUES ($1, $2, $3, $4) RETURNING id`,
		item.Title, item.Description, item.Image, item.Price,
	).Scan(&item.ID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) OrdersForDiner(ctx context.Context, dinerID int64, page, limit int) ([]Order, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, franchise_id, store_id, created_at FROM orders
		 WHERE diner_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		dinerID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	var ids []int64
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.FranchiseID, &o.StoreID, &o.Date); err != nil {
			return nil, err
		}
		o.Items = []Item{}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	index := make(map[int64]*Order, len(orders))
	for i := range orders {
		index[orders[i].ID] = &orders[i]
	}
	itemRows, err := r.pool.Query(ctx,
		`SELECT order_id, menu_id, description, price FROM order_items
		 WHERE order_id = ANY($1) ORDER BY order_id, position`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var orderID int64
		var item Item
		if err := itemRows.Scan(&orderID, &item.MenuID, &item.Description, &item.Price); err != nil {
			return nil, err
		}
		if o, ok := index[orderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return orders, itemRows.Err()
}

func (r *repository) CreateOrder(ctx context.Context, dinerID int64, req CreateOrderRequest) (*Order, error) {
	order := &Order{FranchiseID: req.FranchiseID, StoreID: req.StoreID, Items: req.Items}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO orders (diner_id, franchise_id, store_id) VALUES ($1, $2, $3)
			 RETURNING id, created_at`,
			dinerID, req.FranchiseID, req.StoreID,
		).Scan(&order.ID, &order.Date)
		if err != nil {
			return err
		}
		for i, item := range req.Items {
			if _, err := tx.Exec(ctx,
				`INSERT INTO order_items (order_id, menu_id, description, price, position)
				 VALUES ($1, $2, $3, $4, $5)`,
				order.ID, item.MenuID, item.Description, item.Price, i,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
