// Package firebase talks to the Firebase identity endpoints and the Realtime Database
// over REST, using the signed-in user's ID token.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/ec-storefront/internal/logging"
	"github.com/sirupsen/logrus"
)

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL    = "https://securetoken.googleapis.com/v1/token"
)

// Config configures a Client.
type Config struct {
	APIKey      string
	DatabaseURL string
	IdentityURL string
	TokenURL    string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      logrus.FieldLogger
}

// Client is a thin request/response gateway. It never retries.
type Client struct {
	apiKey      string
	databaseURL string
	identityURL string
	tokenURL    string
	http        *http.Client
	log         logrus.FieldLogger
}

// NewClient creates a Client, filling in default endpoints.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	identityURL := cfg.IdentityURL
	if identityURL == "" {
		identityURL = DefaultIdentityURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &Client{
		apiKey:      cfg.APIKey,
		databaseURL: strings.TrimRight(cfg.DatabaseURL, "/"),
		identityURL: strings.TrimRight(identityURL, "/"),
		tokenURL:    tokenURL,
		http:        hc,
		log:         logging.Component(cfg.Logger, "firebase"),
	}
}

// APIError is a non-2xx response from Firebase.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" && e.Message != e.Code {
		return fmt.Sprintf("firebase: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("firebase: %d %s", e.Status, e.Code)
}

// StatusCode returns the HTTP status.
func (e *APIError) StatusCode() int {
	return e.Status
}

// parseAPIError understands both the identity shape {"error":{"message":"CODE"}} and the
// database shape {"error":"text"}.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Code: http.StatusText(status)}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		if text := strings.TrimSpace(string(body)); text != "" {
			apiErr.Message = text
		}
		return apiErr
	}

	var text string
	if err := json.Unmarshal(envelope.Error, &text); err == nil {
		apiErr.Code = text
		return apiErr
	}

	var detail struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil && detail.Message != "" {
		// e.g. "WEAK_PASSWORD : Password should be at least 6 characters"
		code, msg, found := strings.Cut(detail.Message, " : ")
		apiErr.Code = strings.TrimSpace(code)
		if found {
			apiErr.Message = strings.TrimSpace(msg)
		}
	}
	return apiErr
}

// do sends a JSON request and decodes a JSON response into out (if non-nil). label is
// used in errors and logs instead of the URL, which may carry a token.
func (c *Client) do(ctx context.Context, method, rawURL, label string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", label, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", label, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error embeds the full URL, auth token included.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("%s %s: %w", method, label, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, label, err)
	}

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"resource": label,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("firebase request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, label, err)
	}
	return nil
}

// dbURL builds <databaseURL>/<path>.json with the auth token and extra query params.
func (c *Client) dbURL(path, token string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if token != "" {
		q.Set("auth", token)
	}
	u := c.databaseURL + "/" + strings.Trim(path, "/") + ".json"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) keyURL(base string) string {
	return base + "?" + url.Values{"key": {c.apiKey}}.Encode()
}
