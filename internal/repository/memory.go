package repository

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/UnknownOlympus/addressbook/internal/models"
)

// Memory keeps addresses in process memory. It backs the local-only mode used
// when no user session exists, so nothing survives a restart.
type Memory struct {
	mu        sync.Mutex
	addresses []models.Address
	log       *slog.Logger
	now       func() time.Time
	lastID    int64
}

// NewMemory creates an in-memory repository holding a copy of seed.
func NewMemory(seed []models.Address, log *slog.Logger) *Memory {
	return &Memory{
		addresses: slices.Clone(seed),
		log:       log,
		now:       time.Now,
	}
}

// WithClock replaces the clock used to mint ids.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) List(_ context.Context) ([]models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.addresses), nil
}

// Create stores addr under a new timestamp id (milliseconds since epoch).
// Ids minted within the same millisecond are bumped to stay unique.
func (m *Memory) Create(ctx context.Context, addr models.Address) (models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.now().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	addr.ID = strconv.FormatInt(id, 10)

	if addr.IsDefault {
		m.clearDefault()
	}
	m.addresses = append(m.addresses, addr)

	m.log.DebugContext(ctx, "Address stored in memory", "id", addr.ID)

	return addr, nil
}

func (m *Memory) Update(_ context.Context, id string, patch models.AddressPatch) (models.AddressPatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return models.AddressPatch{}, ErrNotFound
	}

	if patch.IsDefault != nil && *patch.IsDefault {
		m.clearDefault()
	}
	m.addresses[idx] = patch.Apply(m.addresses[idx])

	return models.RecordPatch(m.addresses[idx]), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return ErrNotFound
	}
	m.addresses = slices.Delete(m.addresses, idx, idx+1)

	return nil
}

func (m *Memory) SetDefault(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexOf(id) < 0 {
		return ErrNotFound
	}
	for i := range m.addresses {
		m.addresses[i].IsDefault = m.addresses[i].ID == id
	}

	return nil
}

func (m *Memory) indexOf(id string) int {
	return slices.IndexFunc(m.addresses, func(a models.Address) bool { return a.ID == id })
}

func (m *Memory) clearDefault() {
	for i := range m.addresses {
		m.addresses[i].IsDefault = false
	}
}
