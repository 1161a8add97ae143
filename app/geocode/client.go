package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/rss-sheet/app/cache"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

var (
	ErrEmptyAddress = errors.New("address is required")
	ErrNotFound     = errors.New("location not found")
)

// APIError is returned when the geocoding service answers with a status
// other than OK.
type APIError struct {
	Status string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s", e.Status)
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type response struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location *Location `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      cache.Cache
	ttl        time.Duration
}

func NewClient(httpClient *http.Client, baseURL, apiKey string, c cache.Cache, ttl time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cache:      c,
		ttl:        ttl,
	}
}

// Lookup geocodes address, optionally restricted to a country region.
// Successful answers are cached per (address, region).
func (c *Client) Lookup(ctx context.Context, address, region string) (Location, error) {
	address = strings.TrimSpace(address)
	region = strings.TrimSpace(region)
	if address == "" {
		return Location{}, ErrEmptyAddress
	}

	key := cache.Fingerprint("geocode", address, region)
	if loc, ok := c.cached(ctx, key); ok {
		return loc, nil
	}

	loc, err := c.fetch(ctx, address, region)
	if err != nil {
		return Location{}, err
	}

	c.store(ctx, key, address, loc)

	return loc, nil
}

func (c *Client) store(ctx context.Context, key, address string, loc Location) {
	if c.cache == nil {
		return
	}

	encoded, err := json.Marshal(loc)
	if err != nil {
		slog.Warn("Failed to encode geocode result", "address", address, "error", err)
		return
	}
	if err := c.cache.Put(ctx, key, string(encoded), c.ttl); err != nil {
		slog.Warn("Failed to cache geocode result", "address", address, "error", err)
	}
}

func (c *Client) cached(ctx context.Context, key string) (Location, bool) {
	if c.cache == nil {
		return Location{}, false
	}

	value, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Geocode cache lookup failed", "error", err)
		return Location{}, false
	}
	if !ok {
		return Location{}, false
	}

	var loc Location
	if err := json.Unmarshal([]byte(value), &loc); err != nil {
		return Location{}, false
	}
	return loc, true
}

func (c *Client) fetch(ctx context.Context, address, region string) (Location, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)
	if region != "" {
		params.Set("components", "country:"+region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Location{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("failed to call geocoding API: %w", err)
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("failed to decode geocoding response (HTTP %d): %w", resp.StatusCode, err)
	}

	if body.Status != "OK" {
		return Location{}, &APIError{Status: body.Status}
	}
	if len(body.Results) == 0 || body.Results[0].Geometry.Location == nil {
		return Location{}, ErrNotFound
	}

	return *body.Results[0].Geometry.Location, nil
}
