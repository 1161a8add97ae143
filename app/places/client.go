package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lysyi3m/rss-sheet/app/cache"
)

const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

const (
	FieldWebsite = "website"
	FieldPhone   = "formatted_phone_number"
	FieldAddress = "formatted_address"
	FieldPhotos  = "photos"

	DefaultPhotoWidth = 400
)

var (
	ErrEmptyName     = errors.New("place name is required")
	ErrEmptyField    = errors.New("field is required")
	ErrNotFound      = errors.New("place not found")
	ErrFieldNotFound = errors.New("field not found")
	ErrNoPhoto       = errors.New("no image found")
)

// APIError carries a non-OK status from the Places service.
type APIError struct {
	Op      string
	Status  string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Status)
}

type findPlaceResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Candidates   []struct {
		PlaceID string `json:"place_id"`
	} `json:"candidates"`
}

type detailsResponse struct {
	Status       string                     `json:"status"`
	ErrorMessage string                     `json:"error_message"`
	Result       map[string]json.RawMessage `json:"result"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	bias       string
	cache      cache.Cache
	ttl        time.Duration
}

// NewClient returns a Places client. bias is appended to every place name
// to steer the text search, e.g. "São Paulo, Brasil".
func NewClient(httpClient *http.Client, baseURL, apiKey, bias string, c cache.Cache, ttl time.Duration) *Client {
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
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bias:       strings.TrimSpace(bias),
		cache:      c,
		ttl:        ttl,
	}
}

// Lookup returns the raw JSON value of field for the place best matching
// name. Values are cached per (input, field) and place ids per input.
func (c *Client) Lookup(ctx context.Context, name, field string) (json.RawMessage, error) {
	name = strings.TrimSpace(name)
	field = strings.TrimSpace(field)
	if name == "" {
		return nil, ErrEmptyName
	}
	if field == "" {
		return nil, ErrEmptyField
	}

	input := c.input(name)
	key := cache.Fingerprint("places", input, field)
	if value, ok := c.cached(ctx, key); ok {
		return json.RawMessage(value), nil
	}

	placeID, err := c.FindPlaceID(ctx, input)
	if err != nil {
		return nil, err
	}

	value, err := c.Details(ctx, placeID, field)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, string(value))

	return value, nil
}

// PhotoURL builds the image URL of the first photo of the place.
func (c *Client) PhotoURL(ctx context.Context, name string, maxWidth int) (string, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultPhotoWidth
	}

	raw, err := c.Lookup(ctx, name, FieldPhotos)
	if errors.Is(err, ErrFieldNotFound) {
		return "", ErrNoPhoto
	}
	if err != nil {
		return "", err
	}

	var photos []struct {
		PhotoReference string `json:"photo_reference"`
	}
	if err := json.Unmarshal(raw, &photos); err != nil || len(photos) == 0 || photos[0].PhotoReference == "" {
		return "", ErrNoPhoto
	}

	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photoreference", photos[0].PhotoReference)
	params.Set("key", c.apiKey)

	return c.baseURL + "/photo?" + params.Encode(), nil
}

// FindPlaceID resolves free text to a place id. Ids are cached per input.
func (c *Client) FindPlaceID(ctx context.Context, input string) (string, error) {
	key := cache.Fingerprint("placeid", input)
	if placeID, ok := c.cached(ctx, key); ok {
		return placeID, nil
	}

	params := url.Values{}
	params.Set("input", input)
	params.Set("inputtype", "textquery")
	params.Set("fields", "place_id")
	params.Set("key", c.apiKey)

	var body findPlaceResponse
	if err := c.getJSON(ctx, "/findplacefromtext/json", params, &body); err != nil {
		return "", err
	}

	if body.Status == "ZERO_RESULTS" {
		return "", ErrNotFound
	}
	if body.Status != "OK" {
		return "", &APIError{Op: "find place", Status: body.Status, Message: body.ErrorMessage}
	}
	if len(body.Candidates) == 0 || body.Candidates[0].PlaceID == "" {
		return "", ErrNotFound
	}

	placeID := body.Candidates[0].PlaceID
	c.store(ctx, key, placeID)

	return placeID, nil
}

// Details fetches a single field of a place. The value is not cached here.
func (c *Client) Details(ctx context.Context, placeID, field string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", field)
	params.Set("key", c.apiKey)

	var body detailsResponse
	if err := c.getJSON(ctx, "/details/json", params, &body); err != nil {
		return nil, err
	}

	if body.Status != "OK" {
		return nil, &APIError{Op: "place details", Status: body.Status, Message: body.ErrorMessage}
	}

	value, ok := body.Result[field]
	if !ok || string(value) == "null" {
		return nil, ErrFieldNotFound
	}

	return value, nil
}

func (c *Client) input(name string) string {
	if c.bias == "" {
		return name
	}
	return name + ", " + c.bias
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call places API: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode places response (HTTP %d): %w", resp.StatusCode, err)
	}

	return nil
}

func (c *Client) cached(ctx context.Context, key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}

	value, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Places cache lookup failed", "error", err)
		return "", false
	}
	return value, ok
}

func (c *Client) store(ctx context.Context, key, value string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(ctx, key, value, c.ttl); err != nil {
		slog.Warn("Failed to cache places result", "error", err)
	}
}
