package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-sheet/app/feed"
	"github.com/lysyi3m/rss-sheet/app/geocode"
	"github.com/lysyi3m/rss-sheet/app/places"
)

// NewHandler wires the HTTP handlers. geocoder and placesClient may be nil,
// which disables the matching lookup endpoints.
func NewHandler(runner RunnerInterface, sheets SheetReaderInterface, geocoder GeocoderInterface, placesClient PlacesInterface,
	tab string, sources int, runTimeout time.Duration, version string) *Handler {
	return &Handler{
		runner:     runner,
		sheets:     sheets,
		geocoder:   geocoder,
		places:     placesClient,
		tab:        tab,
		sources:    sources,
		runTimeout: runTimeout,
		version:    version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sources":   h.sources,
		"tab":       h.tab,
	}

	if rows, updatedAt, err := h.sheets.Stats(c.Request.Context(), h.tab); err == nil {
		health["rows"] = rows
		if updatedAt != nil {
			health["updated_at"] = updatedAt.In(time.Local).Format(time.RFC3339)
		}
	} else {
		slog.Error("Database error", "operation", "sheet_stats", "tab", h.tab, "error", err)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIAggregate(c *gin.Context) {
	ctx := c.Request.Context()
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	result, err := h.runner.Run(ctx)
	if errors.Is(err, feed.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("Aggregation failed", "tab", h.tab, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Aggregation failed", "result": result})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) APIGetRows(c *gin.Context) {
	rows, err := h.sheets.Rows(c.Request.Context(), h.tab)
	if err != nil {
		slog.Error("Database error", "operation", "get_rows", "tab", h.tab, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tab":   h.tab,
		"rows":  rows,
		"total": len(rows),
	})
}

func (h *Handler) APIGeocode(c *gin.Context) {
	if h.geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Geocoding disabled (MAPS_API_KEY not set)"})
		return
	}

	loc, err := h.geocoder.Lookup(c.Request.Context(), c.Query("address"), c.Query("region"))

	var apiErr *geocode.APIError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, loc)
	case errors.Is(err, geocode.ErrEmptyAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, geocode.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Error()})
	default:
		slog.Error("Geocode lookup failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unexpected error"})
	}
}

func (h *Handler) APIPlaces(c *gin.Context) {
	if h.places == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Places lookups disabled (MAPS_API_KEY not set)"})
		return
	}

	name := c.Query("name")
	field := c.DefaultQuery("field", places.FieldWebsite)

	value, err := h.places.Lookup(c.Request.Context(), name, field)
	if err != nil {
		placesError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":  name,
		"field": field,
		"value": value,
	})
}

func (h *Handler) APIPlacePhoto(c *gin.Context) {
	if h.places == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Places lookups disabled (MAPS_API_KEY not set)"})
		return
	}

	maxWidth := 0
	if raw := c.Query("max_width"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_width must be a positive integer"})
			return
		}
		maxWidth = parsed
	}

	photoURL, err := h.places.PhotoURL(c.Request.Context(), c.Query("name"), maxWidth)
	if err != nil {
		placesError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": photoURL})
}

func placesError(c *gin.Context, err error) {
	var apiErr *places.APIError
	switch {
	case errors.Is(err, places.ErrEmptyName), errors.Is(err, places.ErrEmptyField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, places.ErrNotFound), errors.Is(err, places.ErrFieldNotFound), errors.Is(err, places.ErrNoPhoto):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Error()})
	default:
		slog.Error("Places lookup failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unexpected error"})
	}
}
