package services

import (
	"context"
	"encoding/json"
	"fmt"

	"nextshoptx/internal/gateway"
	"nextshoptx/internal/models"
	"nextshoptx/internal/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptPrefix tags every receipt id this shop hands the gateway, so
// the reconciliation worker can tell our orders from anything else on
// the same gateway account.
const ReceiptPrefix = "NS-RCPT-"

// OrderService owns the order lifecycle: intent creation, checkout
// prefill reload, the merchant decision, customer cancellation and the
// delivery mark. The gateway never learns anything it cannot recover an
// order from: receipt id plus notes metadata mirror the local intent.
type OrderService struct {
	Orders   OrderStore
	Catalog  CatalogStore
	Gateway  gateway.Client
	Refunds  *RefundCoordinator
	Notify   Notifier
	Currency string
	ShopName string
	Log      *zap.Logger
}

type CreateIntentInput struct {
	UserID            string
	ProductID         string
	PriceID           string
	AddressID         string
	Quantity          int
	CustomerName      string
	CustomerEmail     string
	CustomerContact   string
	GatewayCustomerID string
}

type IntentResult struct {
	OrderID string
}

// CheckoutPrefill is the snapshot of everything the client was shown at
// checkout time, persisted on the order so an in-progress payment can be
// safely reloaded.
type CheckoutPrefill struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	GatewayOrderID string            `json:"order_id"`
	CustomerID     string            `json:"customer_id,omitempty"`
	Prefill        ContactPrefill    `json:"prefill"`
	Notes          map[string]string `json:"notes,omitempty"`
}

type ContactPrefill struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// CreateIntent validates the referenced price, stock, product and
// address, fixes the amount from the price row, creates the gateway
// order and persists the local ledger row. No local state is written if
// the gateway call fails; a local write failure after gateway success
// leaves an orphan the reconciliation worker recovers by receipt.
func (s *OrderService) CreateIntent(ctx context.Context, in CreateIntentInput) (*IntentResult, error) {
	if in.Quantity <= 0 {
		return nil, ErrQuantityNotProcessable
	}

	price, err := s.Catalog.GetPrice(ctx, in.PriceID)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, ErrPriceNotProcessable
	}
	if price.Stock < in.Quantity {
		return nil, ErrQuantityNotProcessable
	}

	product, err := s.Catalog.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotProcessable
	}

	address, err := s.Catalog.GetAddress(ctx, in.AddressID)
	if err != nil {
		return nil, err
	}
	if address == nil || address.UserID != in.UserID {
		return nil, ErrAddressNotProcessable
	}

	amount, err := pricing.AmountMinor(price.UnitPrice, in.Quantity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceNotProcessable, err)
	}

	reserved, err := s.Catalog.ReserveStock(ctx, in.PriceID, in.Quantity)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, ErrQuantityNotProcessable
	}

	receiptID := ReceiptPrefix + uuid.NewString()
	gwOrder, err := s.Gateway.CreateOrder(ctx, gateway.CreateOrderRequest{
		Amount:     amount,
		Currency:   s.Currency,
		Receipt:    receiptID,
		CustomerID: in.GatewayCustomerID,
		Notes: map[string]string{
			"user_id":     in.UserID,
			"merchant_id": price.MerchantID,
			"product_id":  in.ProductID,
			"price_id":    in.PriceID,
			"address_id":  in.AddressID,
			"quantity":    fmt.Sprintf("%d", in.Quantity),
		},
	})
	if err != nil {
		if restoreErr := s.Catalog.RestoreStock(ctx, in.PriceID, in.Quantity); restoreErr != nil {
			s.Log.Error("restore stock after gateway failure",
				zap.String("price_id", in.PriceID), zap.Error(restoreErr))
		}
		return nil, err
	}

	prefill := CheckoutPrefill{
		Amount:         gwOrder.Amount,
		Currency:       s.Currency,
		Name:           s.ShopName,
		Description:    product.Name + "'s Payment",
		GatewayOrderID: gwOrder.ID,
		CustomerID:     in.GatewayCustomerID,
		Prefill: ContactPrefill{
			Name:    in.CustomerName,
			Email:   in.CustomerEmail,
			Contact: in.CustomerContact,
		},
		Notes: gwOrder.Notes,
	}
	prefillJSON, err := json.Marshal(prefill)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:             uuid.NewString(),
		GatewayOrderID: gwOrder.ID,
		ReceiptID:      receiptID,
		Amount:         amount,
		Quantity:       in.Quantity,
		Paid:           false,
		UserID:         in.UserID,
		MerchantID:     price.MerchantID,
		ProductID:      in.ProductID,
		PriceID:        in.PriceID,
		AddressID:      in.AddressID,
		PrefillData:    string(prefillJSON),
	}
	if in.GatewayCustomerID != "" {
		order.GatewayCustomerID = &in.GatewayCustomerID
	}

	if err := s.Orders.CreateOrder(ctx, order); err != nil {
		// Gateway order already exists; the worker recovers it by
		// receipt. Stock stays reserved for the recovered order.
		s.Log.Error("local order write failed after gateway create",
			zap.String("gateway_order_id", gwOrder.ID),
			zap.String("receipt_id", receiptID),
			zap.Error(err))
		return nil, err
	}

	s.Log.Info("order intent created",
		zap.String("order_id", order.ID),
		zap.String("gateway_order_id", gwOrder.ID),
		zap.Int64("amount", amount))
	return &IntentResult{OrderID: order.ID}, nil
}

// Prefill returns the persisted checkout snapshot for client reload.
func (s *OrderService) Prefill(ctx context.Context, orderID, userID string) (*CheckoutPrefill, error) {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotProcessable
	}
	if order.UserID != userID {
		return nil, ErrNotAuthorized
	}

	var prefill CheckoutPrefill
	if err := json.Unmarshal([]byte(order.PrefillData), &prefill); err != nil {
		return nil, err
	}
	return &prefill, nil
}

// RecordDecision fixes the merchant's accept/reject exactly once. A
// reject refunds the full amount first; refund failure blocks the
// decision so the order never closes without its money moving back.
func (s *OrderService) RecordDecision(ctx context.Context, orderID, merchantID string, accept bool, reason string) error {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil || order.Cancelled {
		return ErrOrderNotProcessable
	}
	if order.MerchantID != merchantID {
		return ErrNotAuthorized
	}
	if order.MerchantDecided {
		return ErrAlreadyDecided
	}

	if accept {
		rows, err := s.Orders.RecordDecision(ctx, orderID, true)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyDecided
		}
		s.Log.Info("order accepted", zap.String("order_id", orderID))
		return nil
	}

	if order.Paid {
		if _, err := s.Refunds.Refund(ctx, order); err != nil {
			return err
		}
	} else if err := s.Orders.MarkCancelled(ctx, orderID); err != nil {
		return err
	}

	rows, err := s.Orders.RecordDecision(ctx, orderID, false)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyDecided
	}

	if err := s.Catalog.RestoreStock(ctx, order.PriceID, order.Quantity); err != nil {
		s.Log.Error("restore stock after rejection", zap.String("order_id", orderID), zap.Error(err))
	}

	s.notifyRejected(ctx, order, reason)
	s.Log.Info("order rejected", zap.String("order_id", orderID))
	return nil
}

// Cancel is the customer-initiated close-out, valid only before the
// merchant decision. Paid orders refund first; an unpaid intent just
// gets the cancelled flag.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID string) error {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil || order.Cancelled {
		return ErrOrderNotProcessable
	}
	if order.UserID != userID {
		return ErrNotAuthorized
	}
	if order.MerchantDecided {
		return ErrAlreadyDecided
	}

	if order.Paid {
		if _, err := s.Refunds.Refund(ctx, order); err != nil {
			return err
		}
	} else if err := s.Orders.MarkCancelled(ctx, orderID); err != nil {
		return err
	}

	if err := s.Catalog.RestoreStock(ctx, order.PriceID, order.Quantity); err != nil {
		s.Log.Error("restore stock after cancel", zap.String("order_id", orderID), zap.Error(err))
	}

	s.Log.Info("order cancelled", zap.String("order_id", orderID), zap.Bool("was_paid", order.Paid))
	return nil
}

// MarkDelivered is called by the merchant once the accepted order ships.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID, merchantID string) error {
	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil || order.Cancelled {
		return ErrOrderNotProcessable
	}
	if order.MerchantID != merchantID {
		return ErrNotAuthorized
	}
	if !order.MerchantDecided || order.MerchantAccepted == nil || !*order.MerchantAccepted {
		return ErrOrderNotProcessable
	}
	return s.Orders.MarkDelivered(ctx, orderID)
}

func (s *OrderService) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*models.Order, int64, error) {
	return s.Orders.ListOrdersByUser(ctx, userID, page, pageSize)
}

func (s *OrderService) ListDecisionPending(ctx context.Context, merchantID string, page, pageSize int) ([]*models.Order, int64, error) {
	return s.Orders.ListDecisionPending(ctx, merchantID, page, pageSize)
}

func (s *OrderService) notifyRejected(ctx context.Context, order *models.Order, reason string) {
	if s.Notify == nil {
		return
	}
	var prefill CheckoutPrefill
	if err := json.Unmarshal([]byte(order.PrefillData), &prefill); err != nil || prefill.Prefill.Email == "" {
		s.Log.Warn("no customer email for rejection notice", zap.String("order_id", order.ID))
		return
	}
	if err := s.Notify.OrderRejected(ctx, prefill.Prefill.Email, order.ID, reason); err != nil {
		s.Log.Error("rejection notice failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}
