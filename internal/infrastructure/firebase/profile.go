package firebase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/example/ec-storefront/internal/readmodel"
)

var ErrDisplayNameRequired = errors.New("display name is required")

// GetProfile returns nil when the user has never saved a profile.
func (c *Client) GetProfile(ctx context.Context, userID, token string) (*readmodel.Profile, error) {
	if err := checkUser(userID, token); err != nil {
		return nil, err
	}

	var profile *readmodel.Profile
	if err := c.do(ctx, http.MethodGet, c.dbURL("users/"+userID, token, nil), "users", nil, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile merges the non-empty fields of profile into users/<userID>.
func (c *Client) UpdateProfile(ctx context.Context, userID, token string, profile readmodel.Profile) error {
	if err := checkUser(userID, token); err != nil {
		return err
	}
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)
	if profile.DisplayName == "" {
		return ErrDisplayNameRequired
	}
	return c.do(ctx, http.MethodPatch, c.dbURL("users/"+userID, token, nil), "users", profile, nil)
}
