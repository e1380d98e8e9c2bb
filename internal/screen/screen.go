// Package screen implements the address management screen: a list of saved
// addresses and an add/edit form with location-assisted autofill.
package screen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/addressbook/internal/alert"
	"github.com/UnknownOlympus/addressbook/internal/geocoding"
	"github.com/UnknownOlympus/addressbook/internal/models"
	"github.com/UnknownOlympus/addressbook/internal/store"
	"github.com/UnknownOlympus/addressbook/internal/validation"
)

// Mode is the screen state.
type Mode int

const (
	ModeList Mode = iota
	ModeForm
)

// Form field names accepted by SetField.
const (
	FieldName         = "name"
	FieldPhone        = "phone"
	FieldAddressLine1 = "addressLine1"
	FieldAddressLine2 = "addressLine2"
	FieldCity         = "city"
	FieldState        = "state"
	FieldPincode      = "pincode"
	FieldCountry      = "country"
)

// User-facing messages.
const (
	MsgAddressUpdated   = "Address updated successfully"
	MsgAddressAdded     = "Address added successfully"
	MsgDeleteConfirm    = "Are you sure you want to delete this address?"
	MsgPermissionDenied = "Location permission denied"
	MsgPermissionFailed = "Failed to request location permission"
	MsgLocationFailed   = "Failed to get current location"
	MsgReverseFailed    = "Failed to fetch address from location"
)

const (
	defaultCountry       = "India"
	defaultLocateTimeout = 15 * time.Second
)

var (
	ErrUnknownField     = errors.New("unknown form field")
	ErrPermissionDenied = errors.New("location permission denied")
)

// AddressStore is the part of the address store the screen drives.
type AddressStore interface {
	FetchAddresses(ctx context.Context) []models.Address
	AddAddress(ctx context.Context, addr models.Address) (models.Address, error)
	UpdateAddress(ctx context.Context, id string, patch models.AddressPatch) error
	DeleteAddress(ctx context.Context, id string) error
	SetDefaultAddress(ctx context.Context, id string) error
	Addresses() []models.Address
	Get(id string) (models.Address, bool)
	Len() int
}

// Options tune the screen. Zero values select the defaults.
type Options struct {
	DefaultCountry string
	LocateTimeout  time.Duration
}

// Screen is the address management controller. It is driven from a single goroutine.
type Screen struct {
	store    AddressStore
	geocoder geocoding.ReverseGeocoder
	locator  Locator
	notifier alert.Notifier
	log      *slog.Logger
	opts     Options

	mode      Mode
	editingID string
	form      models.Address
	loading   bool
	locating  bool
}

// New creates a screen in list mode. Call Load to populate it.
func New(
	addressStore AddressStore,
	geocoder geocoding.ReverseGeocoder,
	locator Locator,
	notifier alert.Notifier,
	log *slog.Logger,
	opts Options,
) *Screen {
	if opts.DefaultCountry == "" {
		opts.DefaultCountry = defaultCountry
	}
	if opts.LocateTimeout <= 0 {
		opts.LocateTimeout = defaultLocateTimeout
	}

	scr := &Screen{
		store:    addressStore,
		geocoder: geocoder,
		locator:  locator,
		notifier: notifier,
		log:      log,
		opts:     opts,
		loading:  true,
	}
	scr.resetForm()

	return scr
}

// Load fetches the address list.
func (s *Screen) Load(ctx context.Context) {
	s.loading = true
	s.store.FetchAddresses(ctx)
	s.loading = false
}

func (s *Screen) Mode() Mode           { return s.mode }
func (s *Screen) Loading() bool        { return s.loading }
func (s *Screen) Locating() bool       { return s.locating }
func (s *Screen) EditingID() string    { return s.editingID }
func (s *Screen) Form() models.Address { return s.form }

// StartCreate opens an empty form.
func (s *Screen) StartCreate() {
	s.resetForm()
	s.editingID = ""
	s.mode = ModeForm
}

// StartEdit opens the form pre-filled with the address id.
func (s *Screen) StartEdit(id string) error {
	addr, ok := s.store.Get(id)
	if !ok {
		return store.ErrNotFound
	}

	s.form = addr
	s.editingID = id
	s.mode = ModeForm

	return nil
}

// SetField sets one form field by name.
func (s *Screen) SetField(name, value string) error {
	switch name {
	case FieldName:
		s.form.Name = value
	case FieldPhone:
		s.form.Phone = value
	case FieldAddressLine1:
		s.form.AddressLine1 = value
	case FieldAddressLine2:
		s.form.AddressLine2 = value
	case FieldCity:
		s.form.City = value
	case FieldState:
		s.form.State = value
	case FieldPincode:
		s.form.Pincode = value
	case FieldCountry:
		s.form.Country = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	return nil
}

// Cancel returns to the list. The form content is kept until the next StartCreate.
func (s *Screen) Cancel() {
	s.mode = ModeList
	s.editingID = ""
}

// Save validates the form and adds or updates the address. On a store
// failure the form stays open so the user can retry.
func (s *Screen) Save(ctx context.Context) error {
	if err := validation.ValidateAddress(s.form); err != nil {
		s.notifier.Alert(alert.TitleError, validation.Message(err))
		return err
	}

	if s.editingID != "" {
		if err := s.store.UpdateAddress(ctx, s.editingID, models.PatchFrom(s.form)); err != nil {
			return err
		}
		s.notifier.Alert(alert.TitleSuccess, MsgAddressUpdated)
	} else {
		addr := s.form
		addr.ID = ""
		addr.IsDefault = s.store.Len() == 0
		if _, err := s.store.AddAddress(ctx, addr); err != nil {
			return err
		}
		s.notifier.Alert(alert.TitleSuccess, MsgAddressAdded)
	}

	s.resetForm()
	s.editingID = ""
	s.mode = ModeList

	return nil
}

// RequestDelete asks for confirmation and deletes the address.
func (s *Screen) RequestDelete(ctx context.Context, id string) error {
	if s.store.Len() <= 1 {
		s.notifier.Alert(alert.TitleError, store.MsgLastAddress)
		return store.ErrLastAddress
	}

	if !s.notifier.Confirm(alert.TitleDeleteAddress, MsgDeleteConfirm) {
		s.log.DebugContext(ctx, "Delete cancelled", "id", id)
		return nil
	}

	return s.store.DeleteAddress(ctx, id)
}

// SetDefault makes id the default address.
func (s *Screen) SetDefault(ctx context.Context, id string) error {
	return s.store.SetDefaultAddress(ctx, id)
}

// UseCurrentLocation fills the address part of the form from the device
// position. On any failure the form is left unchanged.
func (s *Screen) UseCurrentLocation(ctx context.Context) error {
	s.locating = true
	defer func() { s.locating = false }()

	granted, err := s.locator.RequestPermission(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Location permission request failed", "error", err)
		s.notifier.Alert(alert.TitleError, MsgPermissionFailed)
		return fmt.Errorf("failed to request location permission: %w", err)
	}
	if !granted {
		s.notifier.Alert(alert.TitlePermissionDenied, MsgPermissionDenied)
		return ErrPermissionDenied
	}

	locCtx, cancel := context.WithTimeout(ctx, s.opts.LocateTimeout)
	defer cancel()

	position, err := s.locator.CurrentPosition(locCtx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get current position", "error", err)
		s.notifier.Alert(alert.TitleError, MsgLocationFailed)
		return fmt.Errorf("failed to get current location: %w", err)
	}

	place, err := s.geocoder.Reverse(ctx, position)
	if geocoding.IsNoResult(err) || (err == nil && place == nil) {
		s.log.InfoContext(ctx, "No address found for position", "lat", position.Latitude, "lon", position.Longitude)
		return nil
	}
	if err != nil {
		s.log.ErrorContext(ctx, "Reverse geocoding failed", "error", err)
		s.notifier.Alert(alert.TitleError, MsgReverseFailed)
		return fmt.Errorf("failed to fetch address from location: %w", err)
	}

	s.form.AddressLine1 = place.Line1()
	s.form.City = place.Locality()
	s.form.State = place.State
	s.form.Pincode = place.Postcode
	if s.form.Country == "" && place.Country != "" {
		s.form.Country = place.Country
	}
	lat, lng := position.Latitude, position.Longitude
	s.form.Latitude, s.form.Longitude = &lat, &lng

	return nil
}

func (s *Screen) resetForm() {
	s.form = models.Address{Country: s.opts.DefaultCountry}
}
