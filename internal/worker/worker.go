package worker

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"nextshoptx/internal/gateway"
	"nextshoptx/internal/models"
	"nextshoptx/internal/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the slice of persistence the sweep needs.
type Store interface {
	ListUnpaidOrders(ctx context.Context) ([]*models.Order, error)
	GetOrderByReceipt(ctx context.Context, receiptID string) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
}

// Confirmer is the single payment-confirmation path shared with the
// HTTP surface; the sweep reuses it so its idempotency guarantees apply
// here unchanged.
type Confirmer interface {
	Confirm(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string, source services.Source) error
}

// Worker is the reconciliation sweep: webhooks are not guaranteed
// delivery, so every unpaid order is periodically cross-checked against
// the gateway's view. Each run is a full idempotent pass; overlapping
// runs cannot double-record because the payment uniqueness constraint,
// not the scheduler, is the source of truth.
type Worker struct {
	Store          Store
	Gateway        gateway.Client
	Payments       Confirmer
	Currency       string
	Interval       time.Duration
	Concurrency    int
	RecoverOrphans bool
	OrphanPageSize int
	Log            *zap.Logger
}

const maxOrphanPages = 10

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if err := w.SweepOnce(ctx); err != nil {
			w.Log.Error("sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce reconciles every unpaid, non-cancelled order. Per-order work
// runs in a bounded pool; one order's failure is logged and never aborts
// the rest of the sweep.
func (w *Worker) SweepOnce(ctx context.Context) error {
	orders, err := w.Store.ListUnpaidOrders(ctx)
	if err != nil {
		return err
	}
	w.Log.Info("sweep started", zap.Int("pending", len(orders)))

	g := new(errgroup.Group)
	limit := w.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, order := range orders {
		order := order
		g.Go(func() error {
			if err := w.reconcileOrder(ctx, order); err != nil {
				w.Log.Error("reconcile order failed",
					zap.String("order_id", order.ID),
					zap.String("gateway_order_id", order.GatewayOrderID),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	if w.RecoverOrphans {
		w.recoverOrphans(ctx)
	}
	return nil
}

func (w *Worker) reconcileOrder(ctx context.Context, order *models.Order) error {
	gwOrder, err := w.Gateway.FetchOrder(ctx, order.GatewayOrderID)
	if err != nil {
		return err
	}
	if gwOrder.Status != gateway.OrderStatusPaid {
		return nil
	}

	payments, err := w.Gateway.FetchOrderPayments(ctx, order.GatewayOrderID)
	if err != nil {
		return err
	}

	// Only an exact amount match may confirm; a partial or unrelated
	// payment on the same gateway order is ignored.
	for _, payment := range payments {
		if payment.Amount != order.Amount {
			continue
		}
		return w.Payments.Confirm(ctx, order.GatewayOrderID, payment.ID, "", services.SourceReconciliation)
	}

	w.Log.Warn("paid gateway order has no amount-matched payment",
		zap.String("order_id", order.ID),
		zap.String("gateway_order_id", order.GatewayOrderID),
		zap.Int64("amount", order.Amount))
	return nil
}

// recoverOrphans re-materializes local rows for gateway orders whose
// local write was lost after the gateway create succeeded. Intent is
// rebuilt purely from the receipt tag and notes metadata; the next
// sweep pass confirms any payment on the recovered order.
func (w *Worker) recoverOrphans(ctx context.Context) {
	pageSize := w.OrphanPageSize
	if pageSize < 1 {
		pageSize = 50
	}

	for page := 0; page < maxOrphanPages; page++ {
		gwOrders, err := w.Gateway.ListOrders(ctx, pageSize, page*pageSize)
		if err != nil {
			w.Log.Error("orphan scan: list gateway orders", zap.Error(err))
			return
		}
		for _, gwOrder := range gwOrders {
			if err := w.recoverOne(ctx, gwOrder); err != nil {
				w.Log.Error("orphan recovery failed",
					zap.String("gateway_order_id", gwOrder.ID),
					zap.Error(err))
			}
		}
		if len(gwOrders) < pageSize {
			return
		}
	}
}

func (w *Worker) recoverOne(ctx context.Context, gwOrder gateway.Order) error {
	if !strings.HasPrefix(gwOrder.Receipt, services.ReceiptPrefix) {
		return nil
	}
	existing, err := w.Store.GetOrderByReceipt(ctx, gwOrder.Receipt)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	notes := gwOrder.Notes
	quantity, err := strconv.Atoi(notes["quantity"])
	if err != nil || quantity < 1 {
		quantity = 1
	}
	if notes["user_id"] == "" || notes["merchant_id"] == "" || notes["product_id"] == "" ||
		notes["price_id"] == "" || notes["address_id"] == "" {
		w.Log.Warn("orphan gateway order missing notes metadata",
			zap.String("gateway_order_id", gwOrder.ID))
		return nil
	}

	prefillJSON, err := json.Marshal(services.CheckoutPrefill{
		Amount:         gwOrder.Amount,
		Currency:       w.Currency,
		GatewayOrderID: gwOrder.ID,
		Notes:          notes,
	})
	if err != nil {
		return err
	}

	order := &models.Order{
		ID:             uuid.NewString(),
		GatewayOrderID: gwOrder.ID,
		ReceiptID:      gwOrder.Receipt,
		Amount:         gwOrder.Amount,
		Quantity:       quantity,
		Paid:           false,
		UserID:         notes["user_id"],
		MerchantID:     notes["merchant_id"],
		ProductID:      notes["product_id"],
		PriceID:        notes["price_id"],
		AddressID:      notes["address_id"],
		PrefillData:    string(prefillJSON),
	}
	if err := w.Store.CreateOrder(ctx, order); err != nil {
		return err
	}
	w.Log.Info("orphan gateway order recovered",
		zap.String("order_id", order.ID),
		zap.String("gateway_order_id", gwOrder.ID))
	return nil
}
