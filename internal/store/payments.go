package store

import (
	"context"
	"errors"

	"nextshoptx/internal/models"

	"github.com/jackc/pgx/v5"
)

// ConfirmPayment records a gateway-confirmed payment and flips the order
// to paid, both in one transaction. The UNIQUE(order_id,
// gateway_payment_id) constraint carries the idempotency guarantee: a
// concurrent confirmation loses the insert gracefully (created=false)
// and still re-asserts the paid flag, so a crash between the two writes
// heals on the next attempt from any source.
func (s *Store) ConfirmPayment(ctx context.Context, payment *models.Payment) (bool, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
		INSERT INTO payments (id, order_id, gateway_order_id, gateway_payment_id, signature)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (order_id, gateway_payment_id) DO NOTHING
	`,
		payment.ID,
		payment.OrderID,
		payment.GatewayOrderID,
		payment.GatewayPaymentID,
		payment.Signature,
	)
	if err != nil {
		return false, err
	}
	created := res.RowsAffected() > 0

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET paid=true, updated_at=now() WHERE id=$1 AND paid=false
	`, payment.OrderID); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return created, nil
}

func (s *Store) PaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, order_id, gateway_order_id, gateway_payment_id, signature, created_at
		FROM payments
		WHERE order_id=$1
		ORDER BY created_at
		LIMIT 1
	`, orderID)

	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.GatewayOrderID,
		&payment.GatewayPaymentID,
		&payment.Signature,
		&payment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}
