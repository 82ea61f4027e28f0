package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"nextshoptx/internal/models"
	"nextshoptx/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Identity reaches this core as trusted headers set by the auth layer in
// front of it; auth itself is not this service's concern.
const (
	headerUserID   = "X-User-Id"
	headerUserRole = "X-User-Role"

	roleMerchant = "merchant"
)

type Handler struct {
	Orders      *services.OrderService
	Payments    *services.PaymentService
	CustomerURL string
	Log         *zap.Logger
}

func NewHandler(orders *services.OrderService, payments *services.PaymentService, customerURL string, log *zap.Logger) *Handler {
	return &Handler{Orders: orders, Payments: payments, CustomerURL: customerURL, Log: log}
}

type createOrderRequest struct {
	ProductID         string `json:"productId"`
	PriceID           string `json:"priceId"`
	AddressID         string `json:"addressId"`
	Quantity          int    `json:"quantity"`
	CustomerName      string `json:"customerName"`
	CustomerEmail     string `json:"customerEmail"`
	CustomerContact   string `json:"customerContact"`
	GatewayCustomerID string `json:"gatewayCustomerId"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized,
			"missing user id", "Unauthorized", "Sign in to place an order")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"invalid json body", "Bad API Body", "Bad Request to server")
		return
	}

	result, err := h.Orders.CreateIntent(r.Context(), services.CreateIntentInput{
		UserID:            userID,
		ProductID:         req.ProductID,
		PriceID:           req.PriceID,
		AddressID:         req.AddressID,
		Quantity:          req.Quantity,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		CustomerContact:   req.CustomerContact,
		GatewayCustomerID: req.GatewayCustomerID,
	})
	if err != nil {
		h.Log.Error("create order intent", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Order created successfully", map[string]string{
		"orderId": result.OrderID,
	})
}

func (h *Handler) OrderPrefill(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized,
			"missing user id", "Unauthorized", "Sign in to continue checkout")
		return
	}

	prefill, err := h.Orders.Prefill(r.Context(), chi.URLParam(r, "orderId"), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Order prefill fetched successfully", prefill)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized,
			"missing user id", "Unauthorized", "Sign in to view orders")
		return
	}

	page, pageSize := pageParams(r)
	orders, total, err := h.Orders.ListByUser(r.Context(), userID, page, pageSize)
	if err != nil {
		h.Log.Error("list orders", zap.String("user_id", userID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Orders fetched successfully", orderPage(orders, total))
}

func (h *Handler) PendingDecisions(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchant(w, r)
	if !ok {
		return
	}

	page, pageSize := pageParams(r)
	orders, total, err := h.Orders.ListDecisionPending(r.Context(), merchantID, page, pageSize)
	if err != nil {
		h.Log.Error("list pending decisions", zap.String("merchant_id", merchantID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Orders fetched successfully", orderPage(orders, total))
}

type decisionRequest struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason"`
}

func (h *Handler) OrderDecision(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchant(w, r)
	if !ok {
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"invalid json body", "Bad API Body", "Bad Request to server")
		return
	}

	orderID := chi.URLParam(r, "orderId")
	if err := h.Orders.RecordDecision(r.Context(), orderID, merchantID, req.Accept, req.Reason); err != nil {
		h.Log.Error("order decision", zap.String("order_id", orderID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	if req.Accept {
		writeSuccess(w, http.StatusAccepted, "Order accepted", nil)
		return
	}
	writeSuccess(w, http.StatusOK, "Order rejected and refund initiated", nil)
}

func (h *Handler) OrderDelivered(w http.ResponseWriter, r *http.Request) {
	merchantID, ok := h.merchant(w, r)
	if !ok {
		return
	}

	orderID := chi.URLParam(r, "orderId")
	if err := h.Orders.MarkDelivered(r.Context(), orderID, merchantID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Order marked delivered", nil)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized,
			"missing user id", "Unauthorized", "Sign in to cancel an order")
		return
	}

	orderID := chi.URLParam(r, "orderId")
	if err := h.Orders.Cancel(r.Context(), orderID, userID); err != nil {
		h.Log.Error("cancel order", zap.String("order_id", orderID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Order cancelled successfully", nil)
}

type confirmPaymentRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
}

// ConfirmPayment is the client-side completion call: blocking, with
// failure detail returned to the caller.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized,
			"missing user id", "Unauthorized", "Sign in to confirm payment")
		return
	}

	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"invalid json body", "Bad API Body", "Bad Request to server")
		return
	}

	err := h.Payments.Confirm(r.Context(), req.GatewayOrderID, req.GatewayPaymentID, req.Signature, services.SourceClientCallback)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Order placed successfully", nil)
}

// PaymentWebhook receives the gateway's form-encoded confirmation. The
// gateway only ever sees the redirect; internal failures are logged so a
// failed delivery falls through to the reconciliation sweep instead of
// triggering uncontrolled gateway retries.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Log.Error("webhook form parse", zap.Error(err))
		h.finishWebhook(w, r)
		return
	}

	gatewayOrderID := r.PostFormValue("razorpay_order_id")
	gatewayPaymentID := r.PostFormValue("razorpay_payment_id")
	signature := r.PostFormValue("razorpay_signature")

	err := h.Payments.Confirm(r.Context(), gatewayOrderID, gatewayPaymentID, signature, services.SourceWebhook)
	if err != nil {
		h.Log.Error("webhook confirmation failed",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("gateway_payment_id", gatewayPaymentID),
			zap.Error(err))
	}
	h.finishWebhook(w, r)
}

func (h *Handler) finishWebhook(w http.ResponseWriter, r *http.Request) {
	if h.CustomerURL != "" {
		http.Redirect(w, r, h.CustomerURL, http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) merchant(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(headerUserID)
	if userID == "" || r.Header.Get(headerUserRole) != roleMerchant {
		writeError(w, http.StatusUnauthorized, codeUnauthorized,
			"merchant role required", "Unauthorized", "You cannot act on this order")
		return "", false
	}
	return userID, true
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("currentPage"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}

type orderView struct {
	OrderID         string `json:"orderId"`
	Amount          int64  `json:"amount"`
	Quantity        int    `json:"quantity"`
	Paid            bool   `json:"paid"`
	MerchantDecided bool   `json:"merchantDecided"`
	Accepted        *bool  `json:"accepted,omitempty"`
	Delivered       bool   `json:"delivered"`
	Cancelled       bool   `json:"cancelled"`
	Refunded        bool   `json:"refunded"`
	ProductID       string `json:"productId"`
	CreatedAt       string `json:"createdAt"`
}

func orderPage(orders []*models.Order, total int64) map[string]any {
	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, orderView{
			OrderID:         order.ID,
			Amount:          order.Amount,
			Quantity:        order.Quantity,
			Paid:            order.Paid,
			MerchantDecided: order.MerchantDecided,
			Accepted:        order.MerchantAccepted,
			Delivered:       order.Delivered,
			Cancelled:       order.Cancelled,
			Refunded:        order.Refunded,
			ProductID:       order.ProductID,
			CreatedAt:       order.CreatedAt.Format(time.RFC3339),
		})
	}
	return map[string]any{"count": total, "rows": views}
}
