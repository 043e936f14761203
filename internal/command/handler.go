package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/ec-storefront/internal/apperrors"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/infrastructure/firebase"
	"github.com/example/ec-storefront/internal/infrastructure/maps"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/logging"
	"github.com/example/ec-storefront/internal/readmodel"
	"github.com/sirupsen/logrus"
)

var (
	ErrInsufficientStock       = validation("not enough stock available")
	ErrItemNotInCart           = validation("item is not in the cart")
	ErrEmptyCart               = validation("cart is empty")
	ErrMissingCredentials      = validation("email and password are required")
	ErrStoreLocatorUnavailable = validation("store locator is not configured (MAPS_API_KEY is not set)")
)

func validation(msg string) error {
	return apperrors.New(apperrors.Validation, "", errors.New(msg))
}

// Gateway is the remote side the handler writes to.
type Gateway interface {
	GetProductByID(ctx context.Context, productID string) (*readmodel.Product, error)
	CreateOrder(ctx context.Context, userID, token string, o readmodel.Order) (string, error)
	SignIn(ctx context.Context, email, password string) (*firebase.AuthResult, error)
	SignUp(ctx context.Context, email, password string) (*firebase.AuthResult, error)
	UpdateProfile(ctx context.Context, userID, token string, profile readmodel.Profile) error
}

// Session is the signed-in user as seen by the handler.
type Session interface {
	Establish(ctx context.Context, record store.SessionRecord) error
	Logout(ctx context.Context) error
	RequireCredentials() (userID, token string, err error)
	Session() *store.SessionRecord
}

type StoreLocator interface {
	FindStores(ctx context.Context, address string, opts maps.SearchOptions) ([]readmodel.Store, error)
}

type Handler struct {
	cart    *cart.Store
	gateway Gateway
	session Session
	locator StoreLocator
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewHandler wires the handler. locator may be nil when no maps key is configured.
func NewHandler(
	cartStore *cart.Store,
	gateway Gateway,
	session Session,
	locator StoreLocator,
	log logrus.FieldLogger,
) *Handler {
	return &Handler{
		cart:    cartStore,
		gateway: gateway,
		session: session,
		locator: locator,
		log:     logging.Component(log, "command"),
		now:     time.Now,
	}
}

// AddToCart looks up the product's current stock and adds it to the cart. Adding more
// than is in stock fails with ErrInsufficientStock and leaves the cart unchanged.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (cart.State, error) {
	if cmd.ProductID == "" {
		return h.cart.State(), apperrors.New(apperrors.Validation, "add to cart", cart.ErrInvalidProduct)
	}
	if cmd.Quantity < 0 {
		return h.cart.State(), apperrors.New(apperrors.Validation, "add to cart", cart.ErrInvalidQuantity)
	}
	if cmd.Quantity == 0 {
		cmd.Quantity = 1
	}

	p, err := h.product(ctx, cmd.ProductID)
	if err != nil {
		return h.cart.State(), err
	}

	item := cart.LineItem{
		ProductID:      p.ID,
		Title:          p.Title,
		UnitPrice:      p.Price,
		AvailableStock: p.Stock,
		Image:          p.Image,
	}
	if !cart.CanAdd(h.cart.State(), item, cmd.Quantity) {
		return h.cart.State(), ErrInsufficientStock
	}

	state, ok := h.cart.Dispatch(cart.AddItem{Item: item, Quantity: cmd.Quantity})
	if !ok {
		return state, ErrInsufficientStock
	}

	h.log.WithFields(logrus.Fields{
		"product_id": p.ID,
		"quantity":   cmd.Quantity,
	}).Info("added to cart")
	return state, nil
}

// UpdateQuantity clamps the requested quantity to [1, stock] before dispatching, since
// the reducer does not check stock on updates.
func (h *Handler) UpdateQuantity(ctx context.Context, cmd UpdateQuantity) (cart.State, error) {
	if _, ok := h.cart.State().Find(cmd.ProductID); !ok {
		return h.cart.State(), ErrItemNotInCart
	}

	p, err := h.product(ctx, cmd.ProductID)
	if err != nil {
		return h.cart.State(), err
	}
	if p.Stock < 1 {
		return h.cart.State(), ErrInsufficientStock
	}

	quantity := cmd.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if quantity > p.Stock {
		quantity = p.Stock
	}

	state, _ := h.cart.Dispatch(cart.UpdateQuantity{ProductID: cmd.ProductID, Quantity: quantity})
	return state, nil
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (cart.State, error) {
	state, ok := h.cart.Dispatch(cart.RemoveItem{ProductID: cmd.ProductID})
	if !ok {
		return state, ErrItemNotInCart
	}
	return state, nil
}

// ClearCart empties the cart. The sync layer clears the cached copy.
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) (cart.State, error) {
	state, _ := h.cart.Dispatch(cart.Clear{})
	return state, nil
}

// PlaceOrder submits the cart as an order for the signed-in user and empties the cart.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*readmodel.Order, error) {
	userID, token, err := h.session.RequireCredentials()
	if err != nil {
		return nil, err
	}

	o, err := order.FromCart(h.cart.State(), h.now())
	if errors.Is(err, order.ErrEmptyOrder) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}

	id, err := h.gateway.CreateOrder(ctx, userID, token, o)
	if err != nil {
		return nil, err
	}
	o.ID = id

	h.cart.Dispatch(cart.Clear{})

	h.log.WithFields(logrus.Fields{
		"order_id":  id,
		"reference": o.Reference,
		"total":     o.TotalAmount,
	}).Info("order placed")
	return &o, nil
}

func (h *Handler) SignIn(ctx context.Context, cmd SignIn) (*store.SessionRecord, error) {
	email, err := checkCredentials(cmd.Email, cmd.Password)
	if err != nil {
		return nil, err
	}
	res, err := h.gateway.SignIn(ctx, email, cmd.Password)
	if err != nil {
		return nil, err
	}
	return h.establish(ctx, email, res)
}

// SignUp creates the account and, when a display name is given, its profile. A failed
// profile write does not undo the sign-up.
func (h *Handler) SignUp(ctx context.Context, cmd SignUp) (*store.SessionRecord, error) {
	email, err := checkCredentials(cmd.Email, cmd.Password)
	if err != nil {
		return nil, err
	}
	res, err := h.gateway.SignUp(ctx, email, cmd.Password)
	if err != nil {
		return nil, err
	}
	record, err := h.establish(ctx, email, res)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(cmd.DisplayName); name != "" {
		profile := readmodel.Profile{DisplayName: name, Email: record.Email}
		if err := h.gateway.UpdateProfile(ctx, record.LocalID, record.Token, profile); err != nil {
			h.log.WithError(err).Warn("failed to create profile after sign-up")
		}
	}
	return record, nil
}

func checkCredentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}
	return email, nil
}

func (h *Handler) establish(ctx context.Context, email string, res *firebase.AuthResult) (*store.SessionRecord, error) {
	record := store.SessionRecord{
		Email:        res.Email,
		LocalID:      res.LocalID,
		Token:        res.IDToken,
		RefreshToken: res.RefreshToken,
		CreatedAt:    h.now(),
	}
	if record.Email == "" {
		record.Email = email
	}
	if err := h.session.Establish(ctx, record); err != nil {
		return nil, err
	}
	h.log.WithField("user_id", record.LocalID).Info("signed in")
	return &record, nil
}

// SignOut forgets the session. The cart stays on the device.
func (h *Handler) SignOut(ctx context.Context, cmd SignOut) error {
	return h.session.Logout(ctx)
}

// UpdateProfile saves the profile fields, taking the email from the session.
func (h *Handler) UpdateProfile(ctx context.Context, cmd UpdateProfile) error {
	userID, token, err := h.session.RequireCredentials()
	if err != nil {
		return err
	}

	profile := readmodel.Profile{
		DisplayName: cmd.DisplayName,
		Phone:       cmd.Phone,
		DateOfBirth: cmd.DateOfBirth,
		Address:     cmd.Address,
		Bio:         cmd.Bio,
		Occupation:  cmd.Occupation,
		Website:     cmd.Website,
	}
	if s := h.session.Session(); s != nil {
		profile.Email = s.Email
	}

	err = h.gateway.UpdateProfile(ctx, userID, token, profile)
	if errors.Is(err, firebase.ErrDisplayNameRequired) {
		return apperrors.New(apperrors.Validation, "update profile", err)
	}
	return err
}

func (h *Handler) FindStores(ctx context.Context, cmd FindStores) ([]readmodel.Store, error) {
	if h.locator == nil {
		return nil, ErrStoreLocatorUnavailable
	}
	stores, err := h.locator.FindStores(ctx, cmd.Address, maps.SearchOptions{
		RadiusMeters: cmd.RadiusMeters,
		Keyword:      cmd.Keyword,
	})
	if errors.Is(err, maps.ErrEmptyAddress) || errors.Is(err, maps.ErrAddressNotFound) {
		return nil, apperrors.New(apperrors.Validation, "find stores", err)
	}
	return stores, err
}

func (h *Handler) product(ctx context.Context, productID string) (*readmodel.Product, error) {
	p, err := h.gateway.GetProductByID(ctx, productID)
	if errors.Is(err, firebase.ErrProductNotFound) {
		return nil, apperrors.New(apperrors.Validation, "find product", err)
	}
	return p, err
}
