package query

import (
	"context"
	"errors"

	"github.com/example/ec-storefront/internal/apperrors"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/infrastructure/firebase"
	"github.com/example/ec-storefront/internal/logging"
	"github.com/example/ec-storefront/internal/readmodel"
	"github.com/sirupsen/logrus"
)

type Catalog interface {
	ListCategories(ctx context.Context) ([]readmodel.Category, error)
	ListProducts(ctx context.Context) ([]readmodel.Product, error)
	ProductsByCategory(ctx context.Context, categoryID string) ([]readmodel.Product, error)
	GetProductByID(ctx context.Context, productID string) (*readmodel.Product, error)
}

type Accounts interface {
	ListOrders(ctx context.Context, userID, token string) ([]readmodel.Order, error)
	GetProfile(ctx context.Context, userID, token string) (*readmodel.Profile, error)
}

type Credentials interface {
	RequireCredentials() (userID, token string, err error)
}

type Handler struct {
	catalog  Catalog
	accounts Accounts
	creds    Credentials
	cart     *cart.Store
	log      logrus.FieldLogger
}

func NewHandler(catalog Catalog, accounts Accounts, creds Credentials, cartStore *cart.Store, log logrus.FieldLogger) *Handler {
	return &Handler{
		catalog:  catalog,
		accounts: accounts,
		creds:    creds,
		cart:     cartStore,
		log:      logging.Component(log, "query"),
	}
}

// Categories
func (h *Handler) ListCategories(ctx context.Context) ([]readmodel.Category, error) {
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		h.log.WithError(err).Warn("error listing categories")
		return nil, err
	}
	return categories, nil
}

// Products

// ListProducts lists the whole catalog, or one category when categoryID is set.
func (h *Handler) ListProducts(ctx context.Context, categoryID string) ([]readmodel.Product, error) {
	var (
		products []readmodel.Product
		err      error
	)
	if categoryID == "" {
		products, err = h.catalog.ListProducts(ctx)
	} else {
		products, err = h.catalog.ProductsByCategory(ctx, categoryID)
	}
	if err != nil {
		h.log.WithError(err).WithField("category_id", categoryID).Warn("error listing products")
		return nil, err
	}
	return products, nil
}

func (h *Handler) GetProduct(ctx context.Context, id string) (*readmodel.Product, error) {
	p, err := h.catalog.GetProductByID(ctx, id)
	if errors.Is(err, firebase.ErrProductNotFound) {
		return nil, apperrors.New(apperrors.Validation, "get product", err)
	}
	if err != nil {
		h.log.WithError(err).WithField("product_id", id).Warn("error getting product")
		return nil, err
	}
	return p, nil
}

// Cart
func (h *Handler) GetCart() cart.State {
	return h.cart.State()
}

// Orders

// ListOrders returns the signed-in user's orders, newest first.
func (h *Handler) ListOrders(ctx context.Context) ([]readmodel.Order, error) {
	userID, token, err := h.creds.RequireCredentials()
	if err != nil {
		return nil, err
	}
	orders, err := h.accounts.ListOrders(ctx, userID, token)
	if err != nil {
		h.log.WithError(err).Warn("error listing orders")
		return nil, err
	}
	return orders, nil
}

// Profile

// GetProfile returns an empty profile for users who never saved one.
func (h *Handler) GetProfile(ctx context.Context) (*readmodel.Profile, error) {
	userID, token, err := h.creds.RequireCredentials()
	if err != nil {
		return nil, err
	}
	profile, err := h.accounts.GetProfile(ctx, userID, token)
	if err != nil {
		h.log.WithError(err).Warn("error getting profile")
		return nil, err
	}
	if profile == nil {
		profile = &readmodel.Profile{}
	}
	return profile, nil
}
