package backfill

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/UnknownOlympus/addressbook/internal/geocoding"
	"github.com/UnknownOlympus/addressbook/internal/metrics"
	"github.com/UnknownOlympus/addressbook/internal/models"
)

// maxAttempts is how many failed lookups an address gets before it is skipped.
const maxAttempts = 5

// AddressSource is the address store as seen by the backfill.
type AddressSource interface {
	Addresses() []models.Address
	UpdateAddress(ctx context.Context, id string, patch models.AddressPatch) error
}

// Service periodically geocodes saved addresses that have no coordinates yet
// and writes the result back through the store.
type Service struct {
	log           *slog.Logger       // Logger for logging service activities
	source        AddressSource      // Store holding the addresses
	geocoder      geocoding.Geocoder // Forward geocoding provider
	providerName  string             // Name of the provider for metrics labeling
	metrics       *metrics.Metrics   // Metrics for tracking service performance
	numWorkers    int                // Number of concurrent workers for processing
	pollInterval  time.Duration      // Interval between passes, zero disables the service
	addressPrefix string             // Prepended to every query (country, region, etc.)

	mu       sync.Mutex
	attempts map[string]int // failed lookups per address id
}

// NewService creates a new coordinate backfill service.
func NewService(
	log *slog.Logger,
	source AddressSource,
	geocoder geocoding.Geocoder,
	providerName string,
	metrics *metrics.Metrics,
	numWorkers int,
	pollInterval time.Duration,
	addressPrefix string,
) *Service {
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &Service{
		log:           log,
		source:        source,
		geocoder:      geocoder,
		providerName:  providerName,
		metrics:       metrics,
		numWorkers:    numWorkers,
		pollInterval:  pollInterval,
		addressPrefix: addressPrefix,
		attempts:      make(map[string]int),
	}
}

// Run processes a batch on every tick until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if s.pollInterval <= 0 {
		s.log.InfoContext(ctx, "Coordinate backfill disabled")
		return
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.log.InfoContext(ctx, "Coordinate backfill started...", "interval", s.pollInterval)

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Coordinate backfill stopped.")
			return
		case <-ticker.C:
			s.log.DebugContext(ctx, "Polling for addresses without coordinates...")
			s.processBatch(ctx)
		}
	}
}

// processBatch feeds every pending address to a worker pool and waits for it to drain.
func (s *Service) processBatch(ctx context.Context) {
	pending := s.pending()
	if len(pending) == 0 {
		s.log.DebugContext(ctx, "No addresses to geocode.")
		return
	}

	s.log.InfoContext(ctx, "Found addresses to geocode. Starting worker pool.",
		"jobs", len(pending), "num_workers", s.numWorkers)

	jobs := make(chan models.Address, len(pending))
	var wgr sync.WaitGroup

	for i := 1; i <= s.numWorkers; i++ {
		wgr.Add(1)
		go s.worker(ctx, i, &wgr, jobs)
	}

	for _, addr := range pending {
		jobs <- addr
	}
	close(jobs)

	wgr.Wait()
	s.log.InfoContext(ctx, "Backfill batch finished")
}

func (s *Service) pending() []models.Address {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []models.Address
	for _, addr := range s.source.Addresses() {
		if addr.HasCoordinates() || s.attempts[addr.ID] >= maxAttempts {
			continue
		}
		pending = append(pending, addr)
	}

	return pending
}

func (s *Service) worker(ctx context.Context, idx int, wg *sync.WaitGroup, jobs <-chan models.Address) {
	defer wg.Done()
	for addr := range jobs {
		s.metrics.ActiveWorkers.Inc()
		s.process(ctx, idx, addr)
		s.metrics.ActiveWorkers.Dec()
	}
}

func (s *Service) process(ctx context.Context, idx int, addr models.Address) {
	query := s.addressPrefix + FormatAddress(addr)
	s.log.DebugContext(ctx, "Processing address", "worker", idx, "id", addr.ID, "query", query)

	startTime := time.Now()
	coords, err := s.geocoder.Geocode(ctx, query)
	s.metrics.RequestSeconds.WithLabelValues(s.providerName).Observe(time.Since(startTime).Seconds())

	if err != nil {
		s.log.ErrorContext(ctx, "Failed to geocode", "worker", idx, "id", addr.ID, "error", err)
		s.metrics.BackfillProcessed.WithLabelValues("failure").Inc()
		s.metrics.APIErrors.Inc()
		s.recordFailure(addr.ID)
		return
	}

	if err = s.source.UpdateAddress(ctx, addr.ID, models.CoordinatesPatch(*coords)); err != nil {
		s.log.ErrorContext(ctx, "Failed to store coordinates", "worker", idx, "id", addr.ID, "error", err)
		s.metrics.BackfillProcessed.WithLabelValues("failure").Inc()
		s.recordFailure(addr.ID)
		return
	}

	s.metrics.BackfillProcessed.WithLabelValues("success").Inc()
	s.log.DebugContext(ctx, "Worker successfully geocoded the address", "worker", idx, "id", addr.ID)
}

func (s *Service) recordFailure(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[id]++
}

// FormatAddress builds a single-line geocoding query, skipping empty parts:
// "line1, line2, city, state pincode, country".
func FormatAddress(addr models.Address) string {
	statePin := strings.TrimSpace(addr.State + " " + addr.Pincode)

	var parts []string
	for _, part := range []string{addr.AddressLine1, addr.AddressLine2, addr.City, statePin, addr.Country} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	return strings.Join(parts, ", ")
}
