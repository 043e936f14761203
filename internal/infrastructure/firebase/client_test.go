package firebase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/apperrors"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   map[string]any
}

// newTestServer serves a single canned response and records every request.
func newTestServer(t *testing.T, status int, response string) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: map[string]string{}}
		for k := range r.URL.Query() {
			rec.Query[k] = r.URL.Query().Get(k)
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
		requests = append(requests, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		APIKey:      "test-key",
		DatabaseURL: srv.URL + "/",
		IdentityURL: srv.URL + "/v1",
		TokenURL:    srv.URL + "/v1/token",
	})
	return client, &requests
}

// ============================================
// Identity Tests
// ============================================

func TestSignIn_Success(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{
		"idToken": "id-1", "email": "a@example.com", "refreshToken": "rt-1",
		"expiresIn": "3600", "localId": "user-1"
	}`)

	res, err := client.SignIn(context.Background(), "a@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "id-1", res.IDToken)
	assert.Equal(t, "rt-1", res.RefreshToken)
	assert.Equal(t, "user-1", res.LocalID)
	assert.Equal(t, time.Hour, res.ExpiresIn)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/accounts:signInWithPassword", req.Path)
	assert.Equal(t, "test-key", req.Query["key"])
	assert.Equal(t, "a@example.com", req.Body["email"])
	assert.Equal(t, true, req.Body["returnSecureToken"])
}

func TestSignUp_EmailExists(t *testing.T) {
	client, _ := newTestServer(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"EMAIL_EXISTS","errors":[{"message":"EMAIL_EXISTS"}]}}`)

	_, err := client.SignUp(context.Background(), "a@example.com", "secret")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode())
	assert.Equal(t, "EMAIL_EXISTS", apiErr.Code)
	assert.Equal(t, apperrors.Validation, apperrors.Classify(err))
}

func TestSignUp_WeakPasswordSplitsCode(t *testing.T) {
	client, _ := newTestServer(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"WEAK_PASSWORD : Password should be at least 6 characters"}}`)

	_, err := client.SignUp(context.Background(), "a@example.com", "x")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "WEAK_PASSWORD", apiErr.Code)
	assert.Equal(t, "Password should be at least 6 characters", apiErr.Message)
}

func TestRefreshToken_Success(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{
		"access_token": "at-2", "id_token": "at-2", "refresh_token": "rt-2",
		"expires_in": "3600", "user_id": "user-1"
	}`)

	tok, err := client.RefreshToken(context.Background(), "rt-1")
	require.NoError(t, err)

	assert.Equal(t, "at-2", tok.AccessToken)
	assert.Equal(t, "rt-2", tok.RefreshToken)
	assert.Equal(t, "user-1", tok.UserID)

	require.Len(t, *reqs, 1)
	assert.Equal(t, "/v1/token", (*reqs)[0].Path)
	assert.Equal(t, "refresh_token", (*reqs)[0].Body["grant_type"])
	assert.Equal(t, "rt-1", (*reqs)[0].Body["refresh_token"])
}

func TestRefreshToken_Empty(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{}`)

	_, err := client.RefreshToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingRefreshToken)
	assert.Empty(t, *reqs)
}

func TestRefreshToken_Rejected(t *testing.T) {
	client, _ := newTestServer(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"INVALID_REFRESH_TOKEN","status":"INVALID_ARGUMENT"}}`)

	_, err := client.RefreshToken(context.Background(), "stale")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", apiErr.Code)
}

// ============================================
// Database Tests
// ============================================

func TestListCategories_Array(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK,
		`[null, {"name": "Phones"}, {"id": "laptops", "name": "Laptops"}]`)

	cats, err := client.ListCategories(context.Background())
	require.NoError(t, err)

	require.Len(t, cats, 2)
	assert.Equal(t, readmodel.Category{ID: "1", Name: "Phones"}, cats[0])
	assert.Equal(t, "laptops", cats[1].ID)
	assert.Equal(t, "/categories.json", (*reqs)[0].Path)
}

func TestListProducts_Map(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, `{
		"b": {"title": "Tablet", "price": 300, "stock": 2},
		"a": {"title": "Phone", "price": 500, "stock": 5}
	}`)

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "a", products[0].ID)
	assert.Equal(t, "Phone", products[0].Title)
	assert.Equal(t, 5, products[0].Stock)
	assert.Equal(t, "b", products[1].ID)
}

func TestListProducts_Null(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, `null`)

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductsByCategory_Query(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{}`)

	_, err := client.ProductsByCategory(context.Background(), "phones")
	require.NoError(t, err)

	q := (*reqs)[0].Query
	assert.Equal(t, `"categoryId"`, q["orderBy"])
	assert.Equal(t, `"phones"`, q["equalTo"])
}

func TestGetProductByID(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, `{"p1": {"title": "Phone"}, "p2": {"title": "Tablet"}}`)

	p, err := client.GetProductByID(context.Background(), "p2")
	require.NoError(t, err)
	assert.Equal(t, "Tablet", p.Title)

	_, err = client.GetProductByID(context.Background(), "p3")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateOrder(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{"name": "-Nabc"}`)

	id, err := client.CreateOrder(context.Background(), "user-1", "tok", readmodel.Order{
		Reference:   "ref-1",
		Items:       []readmodel.OrderItem{{ProductID: "p1", Title: "Phone", Price: 10, Quantity: 2}},
		TotalAmount: 20,
		Status:      readmodel.OrderStatusPlaced,
	})
	require.NoError(t, err)
	assert.Equal(t, "-Nabc", id)

	req := (*reqs)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/orders/user-1.json", req.Path)
	assert.Equal(t, "tok", req.Query["auth"])
	assert.Equal(t, float64(20), req.Body["totalAmount"])
}

func TestCreateOrder_Validation(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{}`)

	_, err := client.CreateOrder(context.Background(), "user-1", "tok", readmodel.Order{})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = client.CreateOrder(context.Background(), "", "tok", readmodel.Order{})
	assert.ErrorIs(t, err, ErrMissingUserID)

	assert.Empty(t, *reqs)
}

func TestListOrders_NewestFirst(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, `{
		"-A": {"reference": "old", "createdAt": "2024-01-01T00:00:00Z"},
		"-B": {"reference": "new", "createdAt": "2024-03-01T00:00:00Z"}
	}`)

	orders, err := client.ListOrders(context.Background(), "user-1", "tok")
	require.NoError(t, err)

	require.Len(t, orders, 2)
	assert.Equal(t, "-B", orders[0].ID)
	assert.Equal(t, "new", orders[0].Reference)
	assert.Equal(t, "-A", orders[1].ID)
}

func TestListOrders_PermissionDenied(t *testing.T) {
	client, _ := newTestServer(t, http.StatusUnauthorized, `{"error": "Permission denied"}`)

	_, err := client.ListOrders(context.Background(), "user-1", "expired")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Permission denied", apiErr.Code)
	assert.Equal(t, apperrors.Authentication, apperrors.Classify(err))
}

func TestGetProfile_Absent(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, `null`)

	p, err := client.GetProfile(context.Background(), "user-1", "tok")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestUpdateProfile(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{}`)

	err := client.UpdateProfile(context.Background(), "user-1", "tok", readmodel.Profile{
		DisplayName: "  Ada ",
		Phone:       "555",
	})
	require.NoError(t, err)

	req := (*reqs)[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/users/user-1.json", req.Path)
	assert.Equal(t, "Ada", req.Body["displayName"])
	assert.NotContains(t, req.Body, "bio")
}

func TestUpdateProfile_RequiresDisplayName(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{}`)

	err := client.UpdateProfile(context.Background(), "user-1", "tok", readmodel.Profile{DisplayName: " "})
	assert.ErrorIs(t, err, ErrDisplayNameRequired)
	assert.Empty(t, *reqs)
}

// ============================================
// Cart Mirror Tests
// ============================================

type staticCreds struct {
	userID, token string
	ok            bool
}

func (c staticCreds) Credentials() (string, string, bool) { return c.userID, c.token, c.ok }

func TestCartMirror_PutsCart(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{}`)
	mirror := NewCartMirror(client, staticCreds{userID: "user-1", token: "tok", ok: true})

	state := cart.State{
		Items:         []cart.LineItem{{ProductID: "p1", Title: "Phone", UnitPrice: 10, Quantity: 2}},
		TotalQuantity: 2,
		TotalPrice:    20,
	}
	require.NoError(t, mirror.MirrorCart(context.Background(), state))

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/carts/user-1.json", req.Path)
	assert.Equal(t, float64(2), req.Body["totalQuantity"])
	assert.Equal(t, "firebase", mirror.Name())
}

func TestCartMirror_SkipsWhenSignedOut(t *testing.T) {
	client, reqs := newTestServer(t, http.StatusOK, `{}`)
	mirror := NewCartMirror(client, staticCreds{})

	require.NoError(t, mirror.MirrorCart(context.Background(), cart.State{}))
	assert.Empty(t, *reqs)
}

// ============================================
// Transport Tests
// ============================================

func TestDo_NetworkErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(Config{DatabaseURL: srv.URL, Timeout: time.Second})
	_, err := client.ListOrders(context.Background(), "user-1", "secret-token")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.Equal(t, apperrors.Network, apperrors.Classify(err))
}
