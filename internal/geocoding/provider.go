package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/addressbook/internal/models"
)

// Geocoder converts a free-form address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.Coordinates, error)
}

// ReverseGeocoder converts coordinates into postal address components.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, coords models.Coordinates) (*models.Place, error)
}

// Provider is a geocoding service that works in both directions.
type Provider interface {
	Geocoder
	ReverseGeocoder
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// statusError is returned by getJSON for any non-200 response.
type statusError struct {
	provider string
	code     int
	body     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.provider, e.code, e.body)
}

// getJSON performs a GET request and decodes a 200 response body into out.
func getJSON(
	ctx context.Context,
	client HTTPClient,
	log *slog.Logger,
	provider, reqURL string,
	header http.Header,
	out any,
) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.ErrorContext(ctx, "Geocoding API error", "provider", provider, "status", resp.StatusCode, "body", string(body))
		return &statusError{provider: provider, code: resp.StatusCode, body: string(body)}
	}

	log.DebugContext(ctx, "Geocoding raw response", "provider", provider, "body", string(body))

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", provider, err)
	}

	return nil
}

// IsNoResult reports whether err means the provider found nothing, as opposed
// to a transport or API failure.
func IsNoResult(err error) bool {
	return errors.Is(err, ErrOpenCageEmptyResponse) ||
		errors.Is(err, ErrNominatimEmptyResponse) ||
		errors.Is(err, ErrEmptyResponse)
}
