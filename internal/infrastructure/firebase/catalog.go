package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/ec-storefront/internal/readmodel"
)

var ErrProductNotFound = errors.New("product not found")

func (c *Client) ListCategories(ctx context.Context) ([]readmodel.Category, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.dbURL("categories", "", nil), "categories", nil, &raw); err != nil {
		return nil, err
	}
	categories, err := decodeCollection(raw, func(cat *readmodel.Category, id string) {
		if cat.ID == "" {
			cat.ID = id
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]readmodel.Product, error) {
	return c.listProducts(ctx, nil)
}

// ProductsByCategory asks the database to filter on categoryId, which requires an
// ".indexOn" rule for that field.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID string) ([]readmodel.Product, error) {
	params := url.Values{
		"orderBy": {strconv.Quote("categoryId")},
		"equalTo": {strconv.Quote(categoryID)},
	}
	return c.listProducts(ctx, params)
}

func (c *Client) listProducts(ctx context.Context, params url.Values) ([]readmodel.Product, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, c.dbURL("products", "", params), "products", nil, &raw); err != nil {
		return nil, err
	}
	products, err := decodeCollection(raw, func(p *readmodel.Product, id string) {
		if p.ID == "" {
			p.ID = id
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// GetProductByID scans the full product list; the database has no lookup by the
// product's own id field.
func (c *Client) GetProductByID(ctx context.Context, productID string) (*readmodel.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == productID {
			return &products[i], nil
		}
	}
	return nil, ErrProductNotFound
}
