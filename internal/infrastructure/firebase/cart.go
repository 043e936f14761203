package firebase

import (
	"context"
	"net/http"
	"time"

	"github.com/example/ec-storefront/internal/domain/cart"
)

type cartLine struct {
	ProductID string  `json:"productId"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

type cartDocument struct {
	Items         []cartLine `json:"items"`
	TotalQuantity int        `json:"totalQuantity"`
	TotalPrice    float64    `json:"totalPrice"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PutCart overwrites carts/<userID> with the given state.
func (c *Client) PutCart(ctx context.Context, userID, token string, state cart.State) error {
	if err := checkUser(userID, token); err != nil {
		return err
	}

	doc := cartDocument{
		Items:         make([]cartLine, 0, len(state.Items)),
		TotalQuantity: state.TotalQuantity,
		TotalPrice:    state.TotalPrice,
		UpdatedAt:     state.LastUpdatedAt.UTC(),
	}
	for _, item := range state.Items {
		doc.Items = append(doc.Items, cartLine{
			ProductID: item.ProductID,
			Title:     item.Title,
			Price:     item.UnitPrice,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	return c.do(ctx, http.MethodPut, c.dbURL("carts/"+userID, token, nil), "carts", doc, nil)
}

// Credentials supplies the signed-in user. ok is false when nobody is signed in.
type Credentials interface {
	Credentials() (userID, token string, ok bool)
}

// CartMirror copies every persisted cart to the user's remote cart document.
type CartMirror struct {
	client *Client
	creds  Credentials
}

func NewCartMirror(client *Client, creds Credentials) *CartMirror {
	return &CartMirror{client: client, creds: creds}
}

func (m *CartMirror) Name() string { return "firebase" }

// MirrorCart is a no-op while signed out.
func (m *CartMirror) MirrorCart(ctx context.Context, state cart.State) error {
	userID, token, ok := m.creds.Credentials()
	if !ok {
		return nil
	}
	return m.client.PutCart(ctx, userID, token, state)
}
