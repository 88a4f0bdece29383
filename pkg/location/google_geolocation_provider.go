package location

import (
	"context"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

// GoogleGeolocationProvider uses the Google Maps API to get location data.
type GoogleGeolocationProvider struct {
	client     *maps.Client // Maps API client for making geolocation requests
	modemIndex int
	logger     zerolog.Logger
}

// NewGoogleGeolocationProvider creates a new GoogleGeolocationProvider instance.
func NewGoogleGeolocationProvider(apiKey string, modemIndex int, logger zerolog.Logger, opts ...maps.ClientOption) (*GoogleGeolocationProvider, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &GoogleGeolocationProvider{
		client:     c,
		modemIndex: modemIndex,
		logger:     logger,
	}, nil
}

// GetLocation locates the host from nearby Wi-Fi access points and cell towers.
// Missing radio data is not fatal; high accuracy disables the IP fallback.
func (g *GoogleGeolocationProvider) GetLocation(ctx context.Context, accuracy Accuracy) (Position, error) {
	wifiAPs, err := getWiFiAccessPoints(ctx)
	if err != nil {
		g.logger.Debug().Err(err).Msg("Wi-Fi scan unavailable")
	}

	cellTowers, err := getCellTowers(ctx, g.modemIndex)
	if err != nil {
		g.logger.Debug().Err(err).Int("modem", g.modemIndex).Msg("Cell tower data unavailable")
	}

	req := &maps.GeolocationRequest{
		ConsiderIP:       accuracy != AccuracyHigh || (len(wifiAPs) == 0 && len(cellTowers) == 0),
		WiFiAccessPoints: wifiAPs,
		CellTowers:       cellTowers,
	}

	resp, err := g.client.Geolocate(ctx, req)
	if err != nil {
		return Position{}, err
	}

	return Position{
		GeoPoint: GeoPoint{Latitude: resp.Location.Lat, Longitude: resp.Location.Lng},
		Accuracy: resp.Accuracy,
	}, nil
}
