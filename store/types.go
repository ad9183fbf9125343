// Package store holds the source-side sample domain used by the end-to-end
// mapping tests and the profile examples.
package store

import (
	"time"
)

// Address is a customer's physical address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Customer represents the user placing orders.
type Customer struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Address  *Address `json:"address,omitempty"`
	IsActive bool     `json:"is_active"`
}

// Order represents a transaction made by a customer.
type Order struct {
	ID        int64       `json:"id"`
	Customer  *Customer   `json:"customer"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	OrderedAt time.Time   `json:"ordered_at"`
}

// TotalCents sums the order's line totals. Exposed as a method so mapping
// by getter convention has something to resolve.
func (o *Order) TotalCents() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}

	return total
}

// OrderItem represents a specific product line within an order.
// It snapshots the price at the time of purchase.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderStatus is a custom type for type-safe status handling.
type OrderStatus int

const (
	StatusUnknown OrderStatus = iota
	StatusPending
	StatusPaid
	StatusShipped
	StatusCancelled
)

// String returns the status name used on the wire.
func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusPaid:
		return "paid"
	case StatusShipped:
		return "shipped"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
