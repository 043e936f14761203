package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/example/ec-storefront/internal/readmodel"
)

var (
	ErrEmptyOrder       = errors.New("order must contain at least one item")
	ErrMissingUserID    = errors.New("user id is required")
	ErrMissingAuthToken = errors.New("auth token is required")
)

func checkUser(userID, token string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	if token == "" {
		return ErrMissingAuthToken
	}
	return nil
}

// CreateOrder posts order under orders/<userID> and returns the generated ID.
func (c *Client) CreateOrder(ctx context.Context, userID, token string, order readmodel.Order) (string, error) {
	if err := checkUser(userID, token); err != nil {
		return "", err
	}
	if len(order.Items) == 0 {
		return "", ErrEmptyOrder
	}

	order.ID = ""
	var resp struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodPost, c.dbURL("orders/"+userID, token, nil), "orders", order, &resp); err != nil {
		return "", err
	}
	return resp.Name, nil
}

// ListOrders returns the user's orders, newest first.
func (c *Client) ListOrders(ctx context.Context, userID, token string) ([]readmodel.Order, error) {
	if err := checkUser(userID, token); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.dbURL("orders/"+userID, token, nil), "orders", nil, &raw); err != nil {
		return nil, err
	}
	orders, err := decodeCollection(raw, func(o *readmodel.Order, id string) { o.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}
