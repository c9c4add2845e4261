package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"haul/internal/domain"
)

// ErrNoMatch is returned when the geocoder finds no candidates for an
// address. Callers surface this as input validation, not as a failure.
var ErrNoMatch = errors.New("address could not be resolved")

// Resolver resolves a free-text address to coordinates.
type Resolver interface {
	Resolve(ctx context.Context, address string) (*domain.Coordinates, error)
}

// Client is an HTTP client for a Nominatim-style geocoding API:
// GET <base>?q=<address>&format=json returns a candidate list with
// string-encoded lat/lon fields.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geocoding client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type candidate struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve returns the best (first) candidate for the address.
// An empty candidate list yields ErrNoMatch.
func (c *Client) Resolve(ctx context.Context, address string) (*domain.Coordinates, error) {
	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "haul-dispatch")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var candidates []candidate
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("geocoder response decode failed: %w", err)
	}

	if len(candidates) == 0 {
		return nil, ErrNoMatch
	}

	lat, err := strconv.ParseFloat(candidates[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder returned bad latitude %q", candidates[0].Lat)
	}
	lng, err := strconv.ParseFloat(candidates[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder returned bad longitude %q", candidates[0].Lon)
	}

	return &domain.Coordinates{Lat: lat, Lng: lng}, nil
}

// Ensure Client implements Resolver.
var _ Resolver = (*Client)(nil)
