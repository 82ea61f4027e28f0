package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPClient talks to a Razorpay-shaped REST API using basic auth.
type HTTPClient struct {
	baseURL string
	keyID   string
	secret  string
	client  *http.Client
}

func NewHTTPClient(baseURL, keyID, secret string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		keyID:   keyID,
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *HTTPClient) FetchOrder(ctx context.Context, gatewayOrderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(gatewayOrderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *HTTPClient) FetchOrderPayments(ctx context.Context, gatewayOrderID string) ([]Payment, error) {
	var resp collection[Payment]
	endpoint := "/orders/" + url.PathEscape(gatewayOrderID) + "/payments"
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *HTTPClient) ListOrders(ctx context.Context, count, skip int) ([]Order, error) {
	if count < 1 {
		count = 10
	}
	if skip < 0 {
		skip = 0
	}
	values := url.Values{}
	values.Set("count", strconv.Itoa(count))
	values.Set("skip", strconv.Itoa(skip))
	var resp collection[Order]
	if err := c.do(ctx, http.MethodGet, "/orders?"+values.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *HTTPClient) CreateRefund(ctx context.Context, gatewayPaymentID string, amount int64) (*Refund, error) {
	body := map[string]any{"amount": amount, "speed": "normal"}
	endpoint := "/payments/" + url.PathEscape(gatewayPaymentID) + "/refund"
	var refund Refund
	if err := c.do(ctx, http.MethodPost, endpoint, body, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (c *HTTPClient) CapturePayment(ctx context.Context, gatewayPaymentID string, amount int64, currency string) (*Payment, error) {
	body := map[string]any{"amount": amount, "currency": currency}
	endpoint := "/payments/" + url.PathEscape(gatewayPaymentID) + "/capture"
	var payment Payment
	if err := c.do(ctx, http.MethodPost, endpoint, body, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.secret)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(data))
		if msg != "" {
			return fmt.Errorf("%w: http status %d: %s", ErrGateway, resp.StatusCode, msg)
		}
		return fmt.Errorf("%w: http status %d", ErrGateway, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}
	return nil
}

type collection[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}
