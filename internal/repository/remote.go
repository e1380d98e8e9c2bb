package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UnknownOlympus/addressbook/internal/models"
	"github.com/sony/gobreaker/v2"
)

// AddressesPath is the backend collection endpoint for the signed-in user.
const AddressesPath = "/api/users/addresses"

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// BreakerConfig configures the circuit breaker guarding backend calls.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32        // requests allowed while half-open
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // open-state duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig trips after half of at least five calls fail.
func DefaultBreakerConfig() BreakerConfig {
	const (
		interval = 60 * time.Second
		timeout  = 30 * time.Second
		ratio    = 0.5
		minReqs  = 5
	)

	return BreakerConfig{
		Name:         "addressbook-api",
		MaxRequests:  1,
		Interval:     interval,
		Timeout:      timeout,
		FailureRatio: ratio,
		MinRequests:  minReqs,
	}
}

// Remote talks to the backend REST API on behalf of a signed-in user.
type Remote struct {
	client  HTTPClient
	baseURL string
	token   string
	log     *slog.Logger
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// envelope is the backend response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// remoteAddress accepts both "id" and the Mongo-style "_id".
type remoteAddress struct {
	models.Address

	MongoID string `json:"_id,omitempty"`
}

func (ra remoteAddress) toModel() models.Address {
	addr := ra.Address
	if addr.ID == "" {
		addr.ID = ra.MongoID
	}

	return addr
}

// NewRemote creates a backend repository authenticated with the bearer token.
// onStateChange, when not nil, is told about every breaker transition.
func NewRemote(
	client HTTPClient,
	baseURL, token string,
	cbCfg BreakerConfig,
	log *slog.Logger,
	onStateChange func(to gobreaker.State),
) *Remote {
	settings := gobreaker.Settings{
		Name:        cbCfg.Name,
		MaxRequests: cbCfg.MaxRequests,
		Interval:    cbCfg.Interval,
		Timeout:     cbCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cbCfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cbCfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if onStateChange != nil {
				onStateChange(to)
			}
		},
	}

	return &Remote{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		log:     log,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// State returns the current breaker state.
func (r *Remote) State() gobreaker.State {
	return r.breaker.State()
}

func (r *Remote) List(ctx context.Context) ([]models.Address, error) {
	var wire []remoteAddress
	if err := r.call(ctx, http.MethodGet, AddressesPath, nil, &wire); err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}

	addresses := make([]models.Address, 0, len(wire))
	for _, ra := range wire {
		addresses = append(addresses, ra.toModel())
	}
	r.log.DebugContext(ctx, "Addresses fetched from backend", "count", len(addresses))

	return addresses, nil
}

func (r *Remote) Create(ctx context.Context, addr models.Address) (models.Address, error) {
	var created remoteAddress
	if err := r.call(ctx, http.MethodPost, AddressesPath, addr, &created); err != nil {
		return models.Address{}, fmt.Errorf("failed to create address: %w", err)
	}

	stored := created.toModel()
	if stored.ID == "" {
		return models.Address{}, fmt.Errorf("failed to create address: %w: record without id", ErrUnexpectedAPI)
	}

	return stored, nil
}

// Update sends the patch and returns only the fields present in the response.
// The backend may echo a partial record or no record at all.
func (r *Remote) Update(ctx context.Context, id string, patch models.AddressPatch) (models.AddressPatch, error) {
	var reported models.AddressPatch
	if err := r.call(ctx, http.MethodPut, addressPath(id), patch, &reported); err != nil {
		return models.AddressPatch{}, fmt.Errorf("failed to update address %s: %w", id, err)
	}

	return reported, nil
}

func (r *Remote) Delete(ctx context.Context, id string) error {
	if err := r.call(ctx, http.MethodDelete, addressPath(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete address %s: %w", id, err)
	}

	return nil
}

func (r *Remote) SetDefault(ctx context.Context, id string) error {
	if err := r.call(ctx, http.MethodPatch, addressPath(id)+"/set-default", nil, nil); err != nil {
		return fmt.Errorf("failed to set default address %s: %w", id, err)
	}

	return nil
}

func addressPath(id string) string {
	return AddressesPath + "/" + url.PathEscape(id)
}

// call sends one request through the breaker and decodes the envelope's data into out.
func (r *Remote) call(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.breaker.Execute(func() (*http.Response, error) {
		resp, doErr := r.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// 5xx counts against the breaker.
		if resp.StatusCode >= http.StatusInternalServerError {
			defer resp.Body.Close()
			raw, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnexpectedAPI, resp.StatusCode, string(raw))
		}
		return resp, nil
	})
	if err != nil {
		r.log.ErrorContext(ctx, "Backend request failed", "method", method, "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: status %d: %s", ErrUnexpectedAPI, resp.StatusCode, string(raw))
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return fmt.Errorf("%w: empty body", ErrUnexpectedAPI)
		}
		return nil
	}

	var env envelope
	if err = json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", ErrUnsuccessful, env.Message)
	}
	// Missing data leaves out untouched.
	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err = json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}

	return nil
}
