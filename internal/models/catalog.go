package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Order struct {
	ID          int             `json:"id"`
	UserID      int             `json:"user_id"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Stats is the admin dashboard summary. Revenue is the sum of total_amount
// over delivered orders and is zero, never null, when there are none.
type Stats struct {
	Users    int64           `json:"users"`
	Products int64           `json:"products"`
	Orders   int64           `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// MarshalJSON renders revenue as a JSON number rather than decimal's default
// quoted string.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Users    int64       `json:"users"`
		Products int64       `json:"products"`
		Orders   int64       `json:"orders"`
		Revenue  json.Number `json:"revenue"`
	}{
		Users:    s.Users,
		Products: s.Products,
		Orders:   s.Orders,
		Revenue:  json.Number(s.Revenue.String()),
	})
}
