package gateway

import (
	"context"
	"errors"
)

// ErrGateway marks any failure talking to the payment gateway. Callers
// treat these as retryable: a later sweep will see the same state.
var ErrGateway = errors.New("payment gateway error")

// Order statuses reported by the gateway.
const (
	OrderStatusCreated   = "created"
	OrderStatusAttempted = "attempted"
	OrderStatusPaid      = "paid"
)

type CreateOrderRequest struct {
	Amount     int64             `json:"amount"` // minor units
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	CustomerID string            `json:"customer_id,omitempty"`
	Notes      map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID         string            `json:"id"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	CustomerID string            `json:"customer_id"`
	Notes      map[string]string `json:"notes"`
	CreatedAt  int64             `json:"created_at"`
}

type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
}

type Refund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// Client is the surface of the external payment API this core consumes.
type Client interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, gatewayOrderID string) (*Order, error)
	FetchOrderPayments(ctx context.Context, gatewayOrderID string) ([]Payment, error)
	ListOrders(ctx context.Context, count, skip int) ([]Order, error)
	CreateRefund(ctx context.Context, gatewayPaymentID string, amount int64) (*Refund, error)
	CapturePayment(ctx context.Context, gatewayPaymentID string, amount int64, currency string) (*Payment, error)
}
