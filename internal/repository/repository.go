package repository

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/addressbook/internal/models"
)

// Common repository errors.
var (
	ErrNotFound      = errors.New("address not found")
	ErrUnauthorized  = errors.New("unauthorized: session token rejected")
	ErrUnsuccessful  = errors.New("backend reported an unsuccessful operation")
	ErrUnexpectedAPI = errors.New("unexpected API response")
)

// Interface is the persistence strategy behind the address store.
// It is chosen once at startup: Remote with a session, Memory or Postgres without.
// Update reports the fields the repository knows after the change; a nil
// field means the repository did not return it.
type Interface interface {
	List(ctx context.Context) ([]models.Address, error)
	Create(ctx context.Context, addr models.Address) (models.Address, error)
	Update(ctx context.Context, id string, patch models.AddressPatch) (models.AddressPatch, error)
	Delete(ctx context.Context, id string) error
	SetDefault(ctx context.Context, id string) error
}

// Pinger is implemented by repositories that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}
