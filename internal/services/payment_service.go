package services

import (
	"context"

	"nextshoptx/internal/gateway"
	"nextshoptx/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source names which party delivered a payment confirmation. All three
// race for the same event and all go through Confirm, so the uniqueness
// constraint is enforced on a single code path.
type Source string

const (
	SourceClientCallback Source = "client_callback"
	SourceWebhook        Source = "webhook"
	SourceReconciliation Source = "reconciliation"
)

// PaymentService verifies and records gateway payment confirmations.
type PaymentService struct {
	Orders   OrderStore
	Payments PaymentStore
	Refunds  *RefundCoordinator
	Signer   gateway.Signer
	Log      *zap.Logger
}

// Confirm resolves the order, checks authenticity and records the
// payment idempotently. A duplicate (order, payment) pair is success,
// not an error; the paid flag is re-asserted either way, so a crash
// between the payment write and the flip heals on any later attempt.
// The reconciliation source is trusted and signs for itself.
//
// A confirmation landing on an order the customer already cancelled is
// still recorded (the money did move), then refunded straight back: the
// sweep never revisits cancelled orders, so this is the only path that
// can return that money.
func (s *PaymentService) Confirm(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string, source Source) error {
	order, err := s.Orders.GetOrderByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotProcessable
	}

	if source == SourceReconciliation {
		signature = s.Signer.Sign(gatewayOrderID, gatewayPaymentID)
	} else if !s.Signer.Verify(gatewayOrderID, gatewayPaymentID, signature) {
		// Possible tampering; kept distinct from not-found on purpose.
		s.Log.Warn("payment signature mismatch",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("gateway_payment_id", gatewayPaymentID),
			zap.String("source", string(source)))
		return ErrBadSignature
	}

	created, err := s.Payments.ConfirmPayment(ctx, &models.Payment{
		ID:               uuid.NewString(),
		OrderID:          order.ID,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
		Signature:        signature,
	})
	if err != nil {
		return err
	}

	if created {
		s.Log.Info("payment confirmed",
			zap.String("order_id", order.ID),
			zap.String("gateway_payment_id", gatewayPaymentID),
			zap.String("source", string(source)))
	} else {
		s.Log.Debug("payment already recorded",
			zap.String("order_id", order.ID),
			zap.String("gateway_payment_id", gatewayPaymentID),
			zap.String("source", string(source)))
	}

	if order.Cancelled && !order.Refunded {
		// A failed refund surfaces to the caller; a retried confirmation
		// finds the existing payment row and attempts the refund again.
		if _, err := s.Refunds.Refund(ctx, order); err != nil {
			return err
		}
		s.Log.Warn("late payment on cancelled order refunded",
			zap.String("order_id", order.ID),
			zap.String("gateway_payment_id", gatewayPaymentID),
			zap.String("source", string(source)))
	}
	return nil
}
