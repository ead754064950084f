package order

import "time"

// MenuItem is a purchasable pizza. The menu is append-only.
type MenuItem struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

// Item is a single line of an order.
type Item struct {
	MenuID      int64   `json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Order is an immutable record of a diner's purchase.
type Order struct {
	ID          int64     `json:"id"`
	FranchiseID int64     `json:"franchiseId"`
	StoreID     int64     `json:"storeId"`
	Date        time.Time `json:"date"`
	Items       []Item    `json:"items"`
}

// CreateOrderRequest is the place-order payload.
type CreateOrderRequest struct {
	FranchiseID int64  `json:"franchiseId"`
	StoreID     int64  `json:"storeId"`
	Items       []Item `json:"items"`
}

// History is one page of a diner's past orders. Page echoes the query
// parameter exactly as received; clients depend on that shape.
type History struct {
	DinerID int64   `json:"dinerId"`
	Orders  []Order `json:"orders"`
	Page    any     `json:"page"`
}
