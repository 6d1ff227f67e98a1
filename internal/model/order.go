package model

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var ErrInvalidStatus = errors.New("invalid order status")

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
)

// OrderStatuses lists every status in workflow order.
var OrderStatuses = []OrderStatus{StatusNew, StatusProcessing, StatusCompleted}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !slices.Contains(OrderStatuses, st) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s OrderStatus) String() string { return string(s) }

type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Order is placed by the storefront. Only Status changes after creation.
type Order struct {
	ID            string      `json:"id,omitempty"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	CustomerEmail string      `json:"customer_email"`
	Items         []LineItem  `json:"items"`
	TotalAmount   string      `json:"total_amount"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}

func (o Order) GetID() string { return o.ID }

// Clone copies the order including its line items.
func (o Order) Clone() Order {
	o.Items = slices.Clone(o.Items)
	return o
}
