// Package maps finds nearby physical stores through the Google Maps geocoding and
// places APIs.
package maps

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/ec-storefront/internal/logging"
	"github.com/example/ec-storefront/internal/readmodel"
	"github.com/sirupsen/logrus"
	gmaps "googlemaps.github.io/maps"
)

const (
	DefaultRadiusMeters = 5000
	DefaultKeyword      = "electronics store"
)

var (
	ErrMissingAPIKey   = errors.New("maps api key is required")
	ErrEmptyAddress    = errors.New("address is required")
	ErrAddressNotFound = errors.New("address not found")
)

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Locator resolves an address to nearby stores.
type Locator struct {
	client *gmaps.Client
	log    logrus.FieldLogger
}

func NewLocator(cfg Config) (*Locator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts := []gmaps.ClientOption{gmaps.WithAPIKey(cfg.APIKey)}
	if cfg.HTTPClient != nil {
		opts = append(opts, gmaps.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, gmaps.WithBaseURL(cfg.BaseURL))
	}

	client, err := gmaps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Locator{client: client, log: logging.Component(cfg.Logger, "maps")}, nil
}

// SearchOptions narrows a store search. Zero values fall back to the defaults.
type SearchOptions struct {
	RadiusMeters uint
	Keyword      string
}

// FindStores geocodes address and lists stores around the first match.
func (l *Locator) FindStores(ctx context.Context, address string, opts SearchOptions) ([]readmodel.Store, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyAddress
	}
	if opts.RadiusMeters == 0 {
		opts.RadiusMeters = DefaultRadiusMeters
	}
	if opts.Keyword == "" {
		opts.Keyword = DefaultKeyword
	}

	geo, err := l.client.Geocode(ctx, &gmaps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}
	if len(geo) == 0 {
		return nil, ErrAddressNotFound
	}
	origin := geo[0].Geometry.Location

	resp, err := l.client.NearbySearch(ctx, &gmaps.NearbySearchRequest{
		Location: &origin,
		Radius:   opts.RadiusMeters,
		Keyword:  opts.Keyword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search nearby stores: %w", err)
	}

	stores := make([]readmodel.Store, 0, len(resp.Results))
	for _, r := range resp.Results {
		store := readmodel.Store{
			PlaceID:   r.PlaceID,
			Name:      r.Name,
			Address:   r.Vicinity,
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
			Rating:    r.Rating,
		}
		if store.Address == "" {
			store.Address = r.FormattedAddress
		}
		if r.OpeningHours != nil {
			store.OpenNow = r.OpeningHours.OpenNow
		}
		stores = append(stores, store)
	}

	l.log.WithFields(logrus.Fields{
		"origin": geo[0].FormattedAddress,
		"count":  len(stores),
	}).Info("found nearby stores")
	return stores, nil
}
