package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "ABERTO"
	OrderStatusConfirmed OrderStatus = "CONFIRMADO"
	OrderStatusPreparing OrderStatus = "EM_PREPARACAO"
	OrderStatusReady     OrderStatus = "PRONTO"
	OrderStatusDelivered OrderStatus = "ENTREGUE"
	OrderStatusCancelled OrderStatus = "CANCELADO"
)

// orderStatuses lists every status in lifecycle order.
var orderStatuses = []OrderStatus{
	OrderStatusOpen,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) IsValid() bool {
	for _, st := range orderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Order struct {
	ID           int64       `db:"id" json:"id"`
	CustomerName string      `db:"customer_name" json:"customer_name"`
	Status       OrderStatus `db:"status" json:"status"`
	ScheduledAt  *time.Time  `db:"scheduled_at" json:"scheduled_at"` // Nullable
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
	Items        []OrderItem `db:"-" json:"items"`
}

type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  decimal.Decimal `db:"quantity" json:"quantity"` // sale units
}
