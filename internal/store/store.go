// Package store holds the current user's address list and keeps it in sync
// with the selected repository.
package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/UnknownOlympus/addressbook/internal/alert"
	"github.com/UnknownOlympus/addressbook/internal/metrics"
	"github.com/UnknownOlympus/addressbook/internal/models"
	"github.com/UnknownOlympus/addressbook/internal/repository"
)

// User-facing failure messages.
const (
	MsgFetchFailed      = "Failed to fetch addresses. Using default address."
	MsgAddFailed        = "Failed to add address"
	MsgUpdateFailed     = "Failed to update address"
	MsgLastAddress      = "You must have at least one address"
	MsgDeleteFailed     = "Failed to delete address"
	MsgSetDefaultFailed = "Failed to set default address"
)

var (
	// ErrLastAddress is returned when deleting would leave the book empty.
	ErrLastAddress = errors.New("at least one address is required")
	// ErrNotFound is returned for ids the store does not hold.
	ErrNotFound = repository.ErrNotFound
)

// Store is the address list of one user session. All methods are safe for
// concurrent use; mutations are serialized.
type Store struct {
	mu        sync.Mutex
	repo      repository.Interface
	notifier  alert.Notifier
	log       *slog.Logger
	metrics   *metrics.Metrics
	addresses []models.Address
	pending   string // alert shown once mu is released
}

// New creates an empty store backed by repo.
func New(repo repository.Interface, notifier alert.Notifier, log *slog.Logger, m *metrics.Metrics) *Store {
	return &Store{
		repo:     repo,
		notifier: notifier,
		log:      log,
		metrics:  m,
	}
}

// FetchAddresses replaces the list with the repository contents. When the
// repository fails, the fallback address is used instead.
func (s *Store) FetchAddresses(ctx context.Context) []models.Address {
	s.mu.Lock()
	defer s.unlock()

	addresses, err := s.repo.List(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to fetch addresses", "error", err)
		s.addresses = models.FallbackAddresses()
		s.fail("fetch", MsgFetchFailed)
		return slices.Clone(s.addresses)
	}

	s.addresses = addresses
	s.succeed("fetch")
	s.log.DebugContext(ctx, "Addresses fetched", "count", len(addresses))

	return slices.Clone(s.addresses)
}

// AddAddress persists addr and appends it. The first address is always the default.
func (s *Store) AddAddress(ctx context.Context, addr models.Address) (models.Address, error) {
	s.mu.Lock()
	defer s.unlock()

	if len(s.addresses) == 0 {
		addr.IsDefault = true
	}

	created, err := s.repo.Create(ctx, addr)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to add address", "error", err)
		s.fail("add", MsgAddFailed)
		return models.Address{}, err
	}

	if created.IsDefault {
		s.clearDefault()
	}
	s.addresses = append(s.addresses, created)
	s.succeed("add")
	s.log.InfoContext(ctx, "Address added", "id", created.ID, "default", created.IsDefault)

	return created, nil
}

// UpdateAddress applies patch to the address with the given id. Unknown ids are ignored.
func (s *Store) UpdateAddress(ctx context.Context, id string, patch models.AddressPatch) error {
	s.mu.Lock()
	defer s.unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		s.log.DebugContext(ctx, "Update skipped, address not held", "id", id)
		return nil
	}

	reported, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to update address", "id", id, "error", err)
		s.fail("update", MsgUpdateFailed)
		return err
	}

	// Fields the repository did not report keep their local values.
	merged := reported.Apply(patch.Apply(s.addresses[idx]))
	if merged.IsDefault && !s.addresses[idx].IsDefault {
		s.clearDefault()
	}
	s.addresses[idx] = merged
	s.succeed("update")

	return nil
}

// DeleteAddress removes the address with the given id. The last remaining
// address cannot be deleted. Removing the default promotes the first
// remaining address.
func (s *Store) DeleteAddress(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.unlock()

	if len(s.addresses) <= 1 {
		s.fail("delete", MsgLastAddress)
		return ErrLastAddress
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.ErrorContext(ctx, "Failed to delete address", "id", id, "error", err)
		s.fail("delete", MsgDeleteFailed)
		return err
	}

	wasDefault := s.addresses[idx].IsDefault
	s.addresses = slices.Delete(s.addresses, idx, idx+1)
	s.succeed("delete")

	if wasDefault {
		promoted := s.addresses[0].ID
		if err := s.repo.SetDefault(ctx, promoted); err != nil {
			s.log.WarnContext(ctx, "Failed to persist promoted default address", "id", promoted, "error", err)
		}
		s.addresses[0].IsDefault = true
		s.log.InfoContext(ctx, "Default address promoted", "id", promoted)
	}

	return nil
}

// SetDefaultAddress makes id the only default address.
func (s *Store) SetDefaultAddress(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.unlock()

	if s.indexOf(id) < 0 {
		return ErrNotFound
	}

	if err := s.repo.SetDefault(ctx, id); err != nil {
		s.log.ErrorContext(ctx, "Failed to set default address", "id", id, "error", err)
		s.fail("set_default", MsgSetDefaultFailed)
		return err
	}

	for i := range s.addresses {
		s.addresses[i].IsDefault = s.addresses[i].ID == id
	}
	s.succeed("set_default")

	return nil
}

// DefaultAddress returns the first address flagged default, else the first
// address. The second value is false when the list is empty.
func (s *Store) DefaultAddress() (models.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, addr := range s.addresses {
		if addr.IsDefault {
			return addr, true
		}
	}
	if len(s.addresses) > 0 {
		return s.addresses[0], true
	}

	return models.Address{}, false
}

// Addresses returns a copy of the list.
func (s *Store) Addresses() []models.Address {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.addresses)
}

// Get returns the address with the given id.
func (s *Store) Get(id string) (models.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return models.Address{}, false
	}

	return s.addresses[idx], true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.addresses)
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.addresses, func(a models.Address) bool { return a.ID == id })
}

func (s *Store) clearDefault() {
	for i := range s.addresses {
		s.addresses[i].IsDefault = false
	}
}

func (s *Store) succeed(op string) {
	s.metrics.Operations.WithLabelValues(op, "success").Inc()
	s.metrics.Addresses.Set(float64(len(s.addresses)))
}

func (s *Store) fail(op, message string) {
	s.metrics.Operations.WithLabelValues(op, "failure").Inc()
	s.metrics.Addresses.Set(float64(len(s.addresses)))
	s.pending = message
}

// unlock releases mu, then shows the pending failure alert.
func (s *Store) unlock() {
	message := s.pending
	s.pending = ""
	s.mu.Unlock()

	if message != "" {
		s.notifier.Alert(alert.TitleError, message)
	}
}
