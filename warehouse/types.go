// Package warehouse holds the destination-side sample domain: the flattened
// record shapes the mapping tests and profile examples project into.
package warehouse

import "time"

// OrderRecord is the flattened view of a store order. CustomerFullName and
// CustomerAddressCity resolve purely by naming convention.
type OrderRecord struct {
	ID                  int64     `json:"id"`
	CustomerFullName    string    `json:"customer_full_name"`
	CustomerEmail       string    `json:"customer_email"`
	CustomerAddressCity string    `json:"customer_address_city"`
	Status              string    `json:"status"`
	TotalCents          int64     `json:"total_cents"`
	Items               []ItemRow `json:"items"`
	OrderedAt           time.Time `json:"ordered_at"`
}

// ItemRow is the per-line view inside an OrderRecord.
type ItemRow struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// CustomerRow is a standalone flat view of a customer.
type CustomerRow struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	City     string `json:"city"`
	IsActive bool   `json:"is_active"`
}
