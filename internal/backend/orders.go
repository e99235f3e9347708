package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
)

var ErrOrderIDRequired = errors.New("order id is required")

// OrderUpdate is the body of PUT /orders/:id. Only set fields are sent.
type OrderUpdate struct {
	Status string `json:"status,omitempty"`
	Note   string `json:"note,omitempty"`
}

type OrdersClient struct{ c *Client }

func NewOrdersClient(c *Client) *OrdersClient { return &OrdersClient{c: c} }

func (oc *OrdersClient) List(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := oc.c.Do(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (oc *OrdersClient) Details(ctx context.Context, orderID string) (json.RawMessage, error) {
	if orderID == "" {
		return nil, ErrOrderIDRequired
	}
	var out json.RawMessage
	if err := oc.c.Do(ctx, http.MethodGet, "/orders/details/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (oc *OrdersClient) Update(ctx context.Context, orderID string, upd OrderUpdate) (json.RawMessage, error) {
	if orderID == "" {
		return nil, ErrOrderIDRequired
	}
	var out json.RawMessage
	if err := oc.c.Do(ctx, http.MethodPut, "/orders/"+url.PathEscape(orderID), upd, &out); err != nil {
		return nil, err
	}
	return out, nil
}
