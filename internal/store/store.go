package store

import (
	"context"
	"database/sql"
	"errors"

	"nextshoptx/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements the persistence interfaces declared by the services.
// Lookups return (nil, nil) when the row does not exist; the services
// translate absence into their own unprocessable errors.
type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

const orderColumns = `
	id, gateway_order_id, gateway_customer_id, receipt_id, amount, quantity,
	paid, merchant_decided, merchant_accepted, delivered, cancelled, refunded,
	gateway_refund_id, user_id, merchant_id, product_id, price_id, address_id,
	prefill_data, created_at, updated_at`

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO orders (
			id, gateway_order_id, gateway_customer_id, receipt_id, amount,
			quantity, paid, user_id, merchant_id, product_id, price_id,
			address_id, prefill_data
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		order.ID,
		order.GatewayOrderID,
		order.GatewayCustomerID,
		order.ReceiptID,
		order.Amount,
		order.Quantity,
		order.Paid,
		order.UserID,
		order.MerchantID,
		order.ProductID,
		order.PriceID,
		order.AddressID,
		order.PrefillData,
	)
	return err
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)
	return scanOrder(row)
}

func (s *Store) GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE gateway_order_id=$1`, gatewayOrderID)
	return scanOrder(row)
}

func (s *Store) GetOrderByReceipt(ctx context.Context, receiptID string) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE receipt_id=$1`, receiptID)
	return scanOrder(row)
}

func (s *Store) ListUnpaidOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE paid=false AND cancelled=false
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string, page, pageSize int) ([]*models.Order, int64, error) {
	return s.listPaged(ctx, `user_id=$1`, userID, page, pageSize)
}

func (s *Store) ListDecisionPending(ctx context.Context, merchantID string, page, pageSize int) ([]*models.Order, int64, error) {
	return s.listPaged(ctx, `merchant_id=$1 AND merchant_decided=false AND paid=true AND cancelled=false`, merchantID, page, pageSize)
}

func (s *Store) listPaged(ctx context.Context, where, arg string, page, pageSize int) ([]*models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE `+where, arg).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, arg, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// RecordDecision fixes the merchant decision once. The guard on
// merchant_decided makes a second decision a no-op at the row level;
// the zero rows-affected count is the caller's already-decided signal.
func (s *Store) RecordDecision(ctx context.Context, orderID string, accepted bool) (int64, error) {
	res, err := s.Pool.Exec(ctx, `
		UPDATE orders
		SET merchant_decided=true, merchant_accepted=$2, updated_at=now()
		WHERE id=$1 AND merchant_decided=false
	`, orderID, accepted)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (s *Store) MarkRefunded(ctx context.Context, orderID, gatewayRefundID string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE orders
		SET cancelled=true, refunded=true, gateway_refund_id=$2, updated_at=now()
		WHERE id=$1
	`, orderID, gatewayRefundID)
	return err
}

func (s *Store) MarkCancelled(ctx context.Context, orderID string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE orders SET cancelled=true, updated_at=now() WHERE id=$1
	`, orderID)
	return err
}

func (s *Store) MarkDelivered(ctx context.Context, orderID string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE orders SET delivered=true, updated_at=now() WHERE id=$1
	`, orderID)
	return err
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	var customerID, refundID sql.NullString
	var accepted sql.NullBool

	err := row.Scan(
		&order.ID,
		&order.GatewayOrderID,
		&customerID,
		&order.ReceiptID,
		&order.Amount,
		&order.Quantity,
		&order.Paid,
		&order.MerchantDecided,
		&accepted,
		&order.Delivered,
		&order.Cancelled,
		&order.Refunded,
		&refundID,
		&order.UserID,
		&order.MerchantID,
		&order.ProductID,
		&order.PriceID,
		&order.AddressID,
		&order.PrefillData,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if customerID.Valid {
		order.GatewayCustomerID = &customerID.String
	}
	if accepted.Valid {
		order.MerchantAccepted = &accepted.Bool
	}
	if refundID.Valid {
		order.GatewayRefundID = &refundID.String
	}
	return &order, nil
}

func scanOrders(rows pgx.Rows) ([]*models.Order, error) {
	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
