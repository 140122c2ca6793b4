// Package geo acquires device coordinates and reverse-geocodes them into
// a display address. Resolution is a best-effort enrichment for the post
// composer, never a blocking precondition.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"tangle/internal/config"
	"tangle/internal/models"
)

// Coordinates is a device position fix.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// String formats coordinates for display, used as the fallback address
// when geocoding fails.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude)
}

// Locator supplies the device's current position.
type Locator interface {
	Current(ctx context.Context) (Coordinates, error)
}

// Resolver reverse-geocodes coordinates against an external service with
// its own timeout budget.
type Resolver struct {
	endpoint string
	http     *http.Client
}

// NewResolver builds a Resolver from configuration.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		endpoint: cfg.GeocoderURL,
		http:     &http.Client{Timeout: cfg.GeocodeTimeout()},
	}
}

// ReverseGeocode returns the display address for the coordinates.
func (r *Resolver) ReverseGeocode(ctx context.Context, c Coordinates) (string, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", c.Latitude))
	q.Set("lon", fmt.Sprintf("%f", c.Longitude))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", models.NewTransportError(err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return "", models.NewTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", models.NewServerError("")
	}
	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", models.NewServerError("")
	}
	if body.DisplayName == "" {
		return "", models.NewServerError("")
	}
	return body.DisplayName, nil
}

// ResolveAddress acquires the device position and geocodes it. A geocoding
// failure degrades to the formatted coordinate string; only a failed
// position fix returns an error.
func ResolveAddress(ctx context.Context, locator Locator, resolver *Resolver) (string, Coordinates, error) {
	coords, err := locator.Current(ctx)
	if err != nil {
		return "", Coordinates{}, err
	}
	if resolver == nil {
		return coords.String(), coords, nil
	}
	address, err := resolver.ReverseGeocode(ctx, coords)
	if err != nil {
		return coords.String(), coords, nil
	}
	return address, coords, nil
}
