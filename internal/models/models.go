package models

import "time"

// Order is the local ledger row for one purchase intent. The gateway's
// view of the same order is keyed by GatewayOrderID; ReceiptID is the
// idempotency token handed to the gateway at creation time so a lost
// local write can be recovered from the gateway's record alone.
type Order struct {
	ID                string
	GatewayOrderID    string
	GatewayCustomerID *string
	ReceiptID         string
	Amount            int64 // minor units
	Quantity          int
	Paid              bool
	MerchantDecided   bool
	MerchantAccepted  *bool
	Delivered         bool
	Cancelled         bool
	Refunded          bool
	GatewayRefundID   *string
	UserID            string
	MerchantID        string
	ProductID         string
	PriceID           string
	AddressID         string
	PrefillData       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Payment records one gateway-confirmed payment against an order. At
// most one committed row exists per (OrderID, GatewayPaymentID).
type Payment struct {
	ID               string
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	CreatedAt        time.Time
}

// Collaborator rows, consumed read-mostly during intent validation.

type Price struct {
	ID         string
	MerchantID string
	UnitPrice  string // major units, decimal string
	Stock      int
}

type Product struct {
	ID          string
	Name        string
	Description string
}

type Address struct {
	ID     string
	UserID string
}
