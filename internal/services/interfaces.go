package services

import (
	"context"

	"nextshoptx/internal/models"
)

// Store interfaces are declared here, on the consuming side; the pgx
// implementations live in internal/store. Lookups return (nil, nil) for
// a missing row so the services own the translation into their error
// taxonomy.

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, page, pageSize int) ([]*models.Order, int64, error)
	ListDecisionPending(ctx context.Context, merchantID string, page, pageSize int) ([]*models.Order, int64, error)
	RecordDecision(ctx context.Context, orderID string, accepted bool) (int64, error)
	MarkRefunded(ctx context.Context, orderID, gatewayRefundID string) error
	MarkCancelled(ctx context.Context, orderID string) error
	MarkDelivered(ctx context.Context, orderID string) error
}

type PaymentStore interface {
	ConfirmPayment(ctx context.Context, payment *models.Payment) (bool, error)
	PaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
}

type CatalogStore interface {
	GetPrice(ctx context.Context, priceID string) (*models.Price, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	GetAddress(ctx context.Context, addressID string) (*models.Address, error)
	ReserveStock(ctx context.Context, priceID string, quantity int) (bool, error)
	RestoreStock(ctx context.Context, priceID string, quantity int) error
}

// Notifier delivers customer-facing mail. Send failures never block a
// flow; callers log and move on.
type Notifier interface {
	OrderRejected(ctx context.Context, email, orderID, reason string) error
}
