package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/UnknownOlympus/addressbook/internal/models"
	"golang.org/x/time/rate"
)

// OpenCageBaseURL -- OpenCage geocoding API endpoint.
const OpenCageBaseURL = "https://api.opencagedata.com/geocode/v1/json"

// OpenCageProvider implements geocoding using the OpenCage API.
type OpenCageProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the OpenCage API
	apiKey  string        // API key
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for OpenCage provider.
var (
	ErrOpenCageEmptyResponse = errors.New("opencage API returned empty response")
	ErrOpenCageEmptyAddress  = errors.New("opencage provider got empty address")
	ErrOpenCageUnauthorized  = errors.New("opencage API unauthorized (invalid or exhausted API key)")
)

type openCageResponse struct {
	Results []struct {
		Components models.Place `json:"components"`
		Geometry   struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
}

// NewOpenCageProvider creates a new OpenCage provider allowing rateLimit requests per second.
func NewOpenCageProvider(apiKey string, rateLimit int, log *slog.Logger) *OpenCageProvider {
	const timeout = 10

	return &OpenCageProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: OpenCageBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewOpenCageProviderWithClient allows injecting custom HTTP client.
func NewOpenCageProviderWithClient(
	client HTTPClient,
	apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *OpenCageProvider {
	return &OpenCageProvider{
		client:  client,
		baseURL: OpenCageBaseURL,
		apiKey:  apiKey,
		log:     log,
		limiter: limiter,
	}
}

// Reverse looks up the postal components of the given position.
// The query is sent as "lat+lng".
func (op *OpenCageProvider) Reverse(ctx context.Context, coords models.Coordinates) (*models.Place, error) {
	op.log.DebugContext(ctx, "Reverse geocoding using OpenCage", "lat", coords.Latitude, "lon", coords.Longitude)

	query := strconv.FormatFloat(coords.Latitude, 'f', -1, 64) + " " +
		strconv.FormatFloat(coords.Longitude, 'f', -1, 64)

	result, err := op.query(ctx, query)
	if err != nil {
		return nil, err
	}

	place := result.Results[0].Components
	op.log.InfoContext(ctx, "OpenCage found place", "city", place.Locality(), "postcode", place.Postcode)

	return &place, nil
}

// Geocode converts address into geographic coordinates.
func (op *OpenCageProvider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	op.log.DebugContext(ctx, "Geocoding using OpenCage", "address", address)

	if address == "" {
		return nil, ErrOpenCageEmptyAddress
	}

	result, err := op.query(ctx, address)
	if err != nil {
		return nil, err
	}

	geometry := result.Results[0].Geometry
	op.log.InfoContext(ctx, "OpenCage found result", "address", address, "lat", geometry.Lat, "lon", geometry.Lng)

	return &models.Coordinates{Latitude: geometry.Lat, Longitude: geometry.Lng}, nil
}

func (op *OpenCageProvider) query(ctx context.Context, q string) (*openCageResponse, error) {
	if err := op.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL, err := url.Parse(op.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", q)
	query.Set("key", op.apiKey)
	query.Set("limit", "1")
	query.Set("no_annotations", "1")
	reqURL.RawQuery = query.Encode()

	header := http.Header{}
	header.Set("Accept", "application/json")

	var result openCageResponse
	err = getJSON(ctx, op.client, op.log, "opencage", reqURL.String(), header, &result)

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		switch statusErr.code {
		case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
			return nil, ErrOpenCageUnauthorized
		}
	}
	if err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return nil, ErrOpenCageEmptyResponse
	}

	return &result, nil
}
