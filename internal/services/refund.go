package services

import (
	"context"
	"fmt"

	"nextshoptx/internal/gateway"
	"nextshoptx/internal/models"

	"go.uber.org/zap"
)

// RefundCoordinator issues gateway refunds for cancellations and
// rejections. Gateway semantics refund a payment id, not an order, so
// the order's recorded payment is the target; the amount is always the
// full original amount.
type RefundCoordinator struct {
	Payments PaymentStore
	Orders   OrderStore
	Gateway  gateway.Client
	Log      *zap.Logger
}

// Refund returns the gateway refund id. On any failure the order flags
// are left untouched so callers never close an order whose money did
// not move back.
func (c *RefundCoordinator) Refund(ctx context.Context, order *models.Order) (string, error) {
	payment, err := c.Payments.PaymentByOrderID(ctx, order.ID)
	if err != nil {
		return "", err
	}
	if payment == nil {
		return "", fmt.Errorf("%w: no payment recorded for order %s", ErrRefundFailed, order.ID)
	}

	refund, err := c.Gateway.CreateRefund(ctx, payment.GatewayPaymentID, order.Amount)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}

	if err := c.Orders.MarkRefunded(ctx, order.ID, refund.ID); err != nil {
		// The gateway refund exists but the ledger does not know it.
		// Surface the failure; the flags stay unset until a retry lands.
		c.Log.Error("refund created but order not marked",
			zap.String("order_id", order.ID),
			zap.String("gateway_refund_id", refund.ID),
			zap.Error(err))
		return "", err
	}

	c.Log.Info("refund issued",
		zap.String("order_id", order.ID),
		zap.String("gateway_refund_id", refund.ID),
		zap.Int64("amount", order.Amount))
	return refund.ID, nil
}
