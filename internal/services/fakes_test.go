package services

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"nextshoptx/internal/gateway"
	"nextshoptx/internal/models"
)

// memStore is an in-memory stand-in for the pgx store, implementing
// OrderStore, PaymentStore and CatalogStore with the same contracts:
// (nil, nil) on missing rows, guarded decision update, idempotent
// payment insert that also flips the order.
type memStore struct {
	mu        sync.Mutex
	orders    map[string]*models.Order
	payments  map[string]*models.Payment
	prices    map[string]*models.Price
	products  map[string]*models.Product
	addresses map[string]*models.Address

	failCreateOrder  bool
	failMarkRefunded bool
}

func newMemStore() *memStore {
	return &memStore{
		orders:    make(map[string]*models.Order),
		payments:  make(map[string]*models.Payment),
		prices:    make(map[string]*models.Price),
		products:  make(map[string]*models.Product),
		addresses: make(map[string]*models.Address),
	}
}

func paymentKey(orderID, gatewayPaymentID string) string {
	return orderID + "|" + gatewayPaymentID
}

func (s *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateOrder {
		return errors.New("store down")
	}
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *memStore) GetOrder(_ context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *order
	return &cp, nil
}

func (s *memStore) GetOrderByGatewayOrderID(_ context.Context, gatewayOrderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.GatewayOrderID == gatewayOrderID {
			cp := *order
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListOrdersByUser(_ context.Context, userID string, _, _ int) ([]*models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			cp := *order
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memStore) ListDecisionPending(_ context.Context, merchantID string, _, _ int) ([]*models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Order
	for _, order := range s.orders {
		if order.MerchantID == merchantID && !order.MerchantDecided && order.Paid && !order.Cancelled {
			cp := *order
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (s *memStore) RecordDecision(_ context.Context, orderID string, accepted bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok || order.MerchantDecided {
		return 0, nil
	}
	order.MerchantDecided = true
	order.MerchantAccepted = &accepted
	return 1, nil
}

func (s *memStore) MarkRefunded(_ context.Context, orderID, gatewayRefundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMarkRefunded {
		return errors.New("store down")
	}
	order, ok := s.orders[orderID]
	if !ok {
		return errors.New("order missing")
	}
	order.Cancelled = true
	order.Refunded = true
	order.GatewayRefundID = &gatewayRefundID
	return nil
}

func (s *memStore) MarkCancelled(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return errors.New("order missing")
	}
	order.Cancelled = true
	return nil
}

func (s *memStore) MarkDelivered(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return errors.New("order missing")
	}
	order.Delivered = true
	return nil
}

func (s *memStore) ConfirmPayment(_ context.Context, payment *models.Payment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := paymentKey(payment.OrderID, payment.GatewayPaymentID)
	created := false
	if _, ok := s.payments[key]; !ok {
		cp := *payment
		s.payments[key] = &cp
		created = true
	}
	if order, ok := s.orders[payment.OrderID]; ok && !order.Paid {
		order.Paid = true
	}
	return created, nil
}

func (s *memStore) PaymentByOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payment := range s.payments {
		if payment.OrderID == orderID {
			cp := *payment
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetPrice(_ context.Context, priceID string) (*models.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.prices[priceID]
	if !ok {
		return nil, nil
	}
	cp := *price
	return &cp, nil
}

func (s *memStore) GetProduct(_ context.Context, productID string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		return nil, nil
	}
	cp := *product
	return &cp, nil
}

func (s *memStore) GetAddress(_ context.Context, addressID string) (*models.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	address, ok := s.addresses[addressID]
	if !ok {
		return nil, nil
	}
	cp := *address
	return &cp, nil
}

func (s *memStore) ReserveStock(_ context.Context, priceID string, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.prices[priceID]
	if !ok || price.Stock < quantity {
		return false, nil
	}
	price.Stock -= quantity
	return true, nil
}

func (s *memStore) RestoreStock(_ context.Context, priceID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if price, ok := s.prices[priceID]; ok {
		price.Stock += quantity
	}
	return nil
}

// fakeGateway records calls and serves canned gateway state.
type fakeGateway struct {
	mu        sync.Mutex
	createErr error
	refundErr error
	orders    map[string]*gateway.Order
	payments  map[string][]gateway.Payment
	created   []gateway.CreateOrderRequest
	refunded  []string
	seq       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		orders:   make(map[string]*gateway.Order),
		payments: make(map[string][]gateway.Payment),
	}
}

func (g *fakeGateway) CreateOrder(_ context.Context, req gateway.CreateOrderRequest) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	g.created = append(g.created, req)
	order := &gateway.Order{
		ID:       "order_gw" + strconv.Itoa(g.seq),
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   gateway.OrderStatusCreated,
		Notes:    req.Notes,
	}
	g.orders[order.ID] = order
	return order, nil
}

func (g *fakeGateway) FetchOrder(_ context.Context, gatewayOrderID string) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	order, ok := g.orders[gatewayOrderID]
	if !ok {
		return nil, gateway.ErrGateway
	}
	cp := *order
	return &cp, nil
}

func (g *fakeGateway) FetchOrderPayments(_ context.Context, gatewayOrderID string) ([]gateway.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.payments[gatewayOrderID], nil
}

func (g *fakeGateway) ListOrders(_ context.Context, count, skip int) ([]gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var all []gateway.Order
	for _, order := range g.orders {
		all = append(all, *order)
	}
	if skip >= len(all) {
		return nil, nil
	}
	all = all[skip:]
	if len(all) > count {
		all = all[:count]
	}
	return all, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, gatewayPaymentID string, amount int64) (*gateway.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.seq++
	g.refunded = append(g.refunded, gatewayPaymentID)
	return &gateway.Refund{
		ID:        "rfnd_" + strconv.Itoa(g.seq),
		PaymentID: gatewayPaymentID,
		Amount:    amount,
		Status:    "processed",
	}, nil
}

func (g *fakeGateway) CapturePayment(_ context.Context, gatewayPaymentID string, amount int64, currency string) (*gateway.Payment, error) {
	return &gateway.Payment{ID: gatewayPaymentID, Amount: amount, Currency: currency, Status: "captured"}, nil
}

// recordingNotifier captures rejection notices.
type recordingNotifier struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
}

func (n *recordingNotifier) OrderRejected(_ context.Context, email, orderID, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return n.sendErr
	}
	n.sent = append(n.sent, email+"|"+orderID+"|"+reason)
	return nil
}
