package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"customer-registry/internal/config"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/infrastructure/monitoring"

	"googlemaps.github.io/maps"
)

const defaultTimeout = 5 * time.Second

// GoogleGeocoder resolves addresses with the Google Geocoding API.
type GoogleGeocoder struct {
	client  *maps.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ customer.Geocoder = (*GoogleGeocoder)(nil)

func NewGoogleGeocoder(cfg config.GeocodingConfig, logger *slog.Logger) (*GoogleGeocoder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("geocoding API key is empty in configuration")
	}

	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create geocoding client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &GoogleGeocoder{
		client:  client,
		timeout: timeout,
		logger:  logger.With("component", "GoogleGeocoder"),
	}, nil
}

// Resolve returns the first match for address. Every failure wraps customer.ErrAddressNotFound;
// a timeout or cancellation stays visible through errors.Is.
func (g *GoogleGeocoder) Resolve(ctx context.Context, address string) (customer.Coordinates, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		monitoring.RecordGeocoding(monitoring.ResultEmpty)
		return customer.Coordinates{}, fmt.Errorf("%w: address is empty", customer.ErrAddressNotFound)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results, err := g.client.Geocode(callCtx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		monitoring.RecordGeocoding(monitoring.ResultFailure)
		g.logger.WarnContext(ctx, "Geocoding request failed", slog.String("address", address), slog.Any("error", err))
		if cerr := callCtx.Err(); cerr != nil && !errors.Is(err, cerr) {
			return customer.Coordinates{}, fmt.Errorf("%w: %w: %w", customer.ErrAddressNotFound, cerr, err)
		}
		return customer.Coordinates{}, fmt.Errorf("%w: %w", customer.ErrAddressNotFound, err)
	}

	if len(results) == 0 {
		monitoring.RecordGeocoding(monitoring.ResultEmpty)
		g.logger.InfoContext(ctx, "Geocoding returned no results", slog.String("address", address))
		return customer.Coordinates{}, fmt.Errorf("%w: no results for %q", customer.ErrAddressNotFound, address)
	}

	monitoring.RecordGeocoding(monitoring.ResultSuccess)
	loc := results[0].Geometry.Location
	return customer.Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
