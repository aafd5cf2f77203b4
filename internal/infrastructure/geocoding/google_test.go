package geocoding

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"customer-registry/internal/config"
	"customer-registry/internal/domain/customer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const okResponse = `{
  "status": "OK",
  "results": [
    {
      "formatted_address": "Av. Paulista, 1000 - Bela Vista, São Paulo - SP, Brazil",
      "geometry": { "location": { "lat": -23.5614, "lng": -46.6559 }, "location_type": "ROOFTOP" },
      "place_id": "ChIJ-test"
    },
    {
      "formatted_address": "Paulista, PE, Brazil",
      "geometry": { "location": { "lat": -7.9408, "lng": -34.8731 } },
      "place_id": "ChIJ-other"
    }
  ]
}`

func newGeocoder(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *GoogleGeocoder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewGoogleGeocoder(config.GeocodingConfig{APIKey: "AIza-test", BaseURL: srv.URL, Timeout: timeout}, logger)
	require.NoError(t, err)
	return g
}

func TestGoogleGeocoder_Resolve(t *testing.T) {
	t.Run("First result wins", func(t *testing.T) {
		var gotAddress string
		g := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			gotAddress = r.URL.Query().Get("address")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(okResponse))
		}, time.Second)

		coords, err := g.Resolve(context.Background(), " Av. Paulista, 1000 ")

		require.NoError(t, err)
		assert.Equal(t, "Av. Paulista, 1000", gotAddress)
		assert.Equal(t, customer.Coordinates{Latitude: -23.5614, Longitude: -46.6559}, coords)
	})

	t.Run("Zero results is address not found", func(t *testing.T) {
		g := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		}, time.Second)

		_, err := g.Resolve(context.Background(), "nowhere at all")

		assert.ErrorIs(t, err, customer.ErrAddressNotFound)
	})

	t.Run("API error status is address not found", func(t *testing.T) {
		g := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`))
		}, time.Second)

		_, err := g.Resolve(context.Background(), "Av. Paulista, 1000")

		assert.ErrorIs(t, err, customer.ErrAddressNotFound)
	})

	t.Run("Timeout keeps deadline in the chain", func(t *testing.T) {
		release := make(chan struct{})
		g := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}, 20*time.Millisecond)
		defer close(release)

		_, err := g.Resolve(context.Background(), "Av. Paulista, 1000")

		assert.ErrorIs(t, err, customer.ErrAddressNotFound)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Caller cancellation is visible", func(t *testing.T) {
		g := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(okResponse))
		}, time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := g.Resolve(ctx, "Av. Paulista, 1000")

		assert.ErrorIs(t, err, customer.ErrAddressNotFound)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Blank address never leaves the process", func(t *testing.T) {
		called := false
		g := newGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		}, time.Second)

		_, err := g.Resolve(context.Background(), "   ")

		assert.ErrorIs(t, err, customer.ErrAddressNotFound)
		assert.False(t, called)
	})
}

func TestNewGoogleGeocoder_RequiresAPIKey(t *testing.T) {
	_, err := NewGoogleGeocoder(config.GeocodingConfig{}, logger)
	assert.Error(t, err)
}
