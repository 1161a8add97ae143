package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lysyi3m/rss-sheet/app/database"
	"github.com/lysyi3m/rss-sheet/app/feed"
	"github.com/lysyi3m/rss-sheet/app/geocode"
	"github.com/lysyi3m/rss-sheet/app/places"
)

type RunnerInterface interface {
	Run(ctx context.Context) (feed.Result, error)
}

type SheetReaderInterface interface {
	Rows(ctx context.Context, tab string) ([][]string, error)
	Stats(ctx context.Context, tab string) (int, *time.Time, error)
}

type GeocoderInterface interface {
	Lookup(ctx context.Context, address, region string) (geocode.Location, error)
}

type PlacesInterface interface {
	Lookup(ctx context.Context, name, field string) (json.RawMessage, error)
	PhotoURL(ctx context.Context, name string, maxWidth int) (string, error)
}

var (
	_ RunnerInterface      = (*feed.Aggregator)(nil)
	_ SheetReaderInterface = (*database.SheetRepository)(nil)
	_ GeocoderInterface    = (*geocode.Client)(nil)
	_ PlacesInterface      = (*places.Client)(nil)
)

type Handler struct {
	runner     RunnerInterface
	sheets     SheetReaderInterface
	geocoder   GeocoderInterface
	places     PlacesInterface
	tab        string
	sources    int
	runTimeout time.Duration
	version    string
}
