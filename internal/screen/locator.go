package screen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/addressbook/internal/models"
)

// Locator provides the device position.
type Locator interface {
	RequestPermission(ctx context.Context) (bool, error)
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// ErrInvalidLocation is returned by ParseLocation for malformed input.
var ErrInvalidLocation = errors.New(`invalid location, expected "lat,lng"`)

// StaticLocator reports a fixed position. Without a position, permission is denied.
type StaticLocator struct {
	position *models.Coordinates
}

// NewStaticLocator creates a locator for position. A nil position denies access.
func NewStaticLocator(position *models.Coordinates) *StaticLocator {
	return &StaticLocator{position: position}
}

func (l *StaticLocator) RequestPermission(_ context.Context) (bool, error) {
	return l.position != nil, nil
}

func (l *StaticLocator) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, err
	}
	if l.position == nil {
		return models.Coordinates{}, ErrPermissionDenied
	}

	return *l.position, nil
}

// ParseLocation parses "lat,lng". An empty string yields nil.
func ParseLocation(raw string) (*models.Coordinates, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	latRaw, lngRaw, found := strings.Cut(raw, ",")
	if !found {
		return nil, ErrInvalidLocation
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: latitude %q", ErrInvalidLocation, latRaw)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("%w: longitude %q", ErrInvalidLocation, lngRaw)
	}

	return &models.Coordinates{Latitude: lat, Longitude: lng}, nil
}
