package screen_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/addressbook/internal/alert"
	"github.com/UnknownOlympus/addressbook/internal/geocoding"
	"github.com/UnknownOlympus/addressbook/internal/metrics"
	"github.com/UnknownOlympus/addressbook/internal/models"
	"github.com/UnknownOlympus/addressbook/internal/repository"
	"github.com/UnknownOlympus/addressbook/internal/screen"
	"github.com/UnknownOlympus/addressbook/internal/store"
	"github.com/UnknownOlympus/addressbook/internal/validation"
	"github.com/UnknownOlympus/addressbook/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var position = models.Coordinates{Latitude: 19.076, Longitude: 72.8777}

type fixture struct {
	screen   *screen.Screen
	store    *store.Store
	notifier *mocks.Notifier
	locator  *mocks.Locator
	geocoder *mocks.Provider
}

func newFixture(t *testing.T, seed []models.Address) fixture {
	t.Helper()
	notifier := mocks.NewNotifier(t)
	locator := mocks.NewLocator(t)
	geocoder := mocks.NewProvider(t)
	repo := repository.NewMemory(seed, slog.Default())
	addressStore := store.New(repo, notifier, slog.Default(), metrics.NewMetrics(prometheus.NewRegistry()))
	scr := screen.New(addressStore, geocoder, locator, notifier, slog.Default(), screen.Options{})
	scr.Load(t.Context())

	return fixture{screen: scr, store: addressStore, notifier: notifier, locator: locator, geocoder: geocoder}
}

func fillForm(t *testing.T, scr *screen.Screen) {
	t.Helper()
	for name, value := range map[string]string{
		screen.FieldName:         "Priya Patel",
		screen.FieldPhone:        "91234 56780",
		screen.FieldAddressLine1: "14 Paud Road",
		screen.FieldCity:         "Pune",
		screen.FieldState:        "Maharashtra",
		screen.FieldPincode:      "411038",
	} {
		require.NoError(t, scr.SetField(name, value))
	}
}

func TestScreen_Load(t *testing.T) {
	f := newFixture(t, models.FallbackAddresses())

	assert.False(t, f.screen.Loading())
	assert.Equal(t, screen.ModeList, f.screen.Mode())
	assert.Equal(t, 1, f.store.Len())
}

func TestScreen_StartCreate(t *testing.T) {
	f := newFixture(t, models.FallbackAddresses())
	require.NoError(t, f.screen.SetField(screen.FieldName, "leftover"))

	f.screen.StartCreate()

	assert.Equal(t, screen.ModeForm, f.screen.Mode())
	assert.Empty(t, f.screen.EditingID())
	assert.Equal(t, models.Address{Country: "India"}, f.screen.Form())
}

func TestScreen_StartEdit(t *testing.T) {
	t.Run("loads address into form", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())

		require.NoError(t, f.screen.StartEdit("1"))

		assert.Equal(t, screen.ModeForm, f.screen.Mode())
		assert.Equal(t, "1", f.screen.EditingID())
		assert.Equal(t, "Rahul Sharma", f.screen.Form().Name)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())

		require.ErrorIs(t, f.screen.StartEdit("missing"), store.ErrNotFound)
		assert.Equal(t, screen.ModeList, f.screen.Mode())
	})
}

func TestScreen_SetField(t *testing.T) {
	f := newFixture(t, nil)
	f.screen.StartCreate()

	require.NoError(t, f.screen.SetField(screen.FieldAddressLine2, "Flat 2"))
	assert.Equal(t, "Flat 2", f.screen.Form().AddressLine2)

	require.ErrorIs(t, f.screen.SetField("zip", "411038"), screen.ErrUnknownField)
}

func TestScreen_Cancel(t *testing.T) {
	f := newFixture(t, models.FallbackAddresses())
	require.NoError(t, f.screen.StartEdit("1"))

	f.screen.Cancel()

	assert.Equal(t, screen.ModeList, f.screen.Mode())
	assert.Empty(t, f.screen.EditingID())
	assert.Equal(t, "Rahul Sharma", f.screen.Form().Name, "form content is kept")
}

func TestScreen_Save(t *testing.T) {
	t.Run("validation failure alerts and changes nothing", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())
		f.screen.StartCreate()
		fillForm(t, f.screen)
		require.NoError(t, f.screen.SetField(screen.FieldPincode, "4110"))
		f.notifier.On("Alert", alert.TitleError, "Please enter a valid 6-digit pincode").Once()

		err := f.screen.Save(t.Context())

		require.ErrorIs(t, err, validation.ErrInvalidPincode)
		assert.Equal(t, screen.ModeForm, f.screen.Mode())
		assert.Equal(t, 1, f.store.Len())
	})

	t.Run("missing fields reported first", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())
		f.screen.StartCreate()
		require.NoError(t, f.screen.SetField(screen.FieldPhone, "123"))
		f.notifier.On("Alert", alert.TitleError, "Please fill all required fields").Once()

		require.ErrorIs(t, f.screen.Save(t.Context()), validation.ErrMissingFields)
	})

	t.Run("create adds a non-default address", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())
		f.screen.StartCreate()
		fillForm(t, f.screen)
		f.notifier.On("Alert", alert.TitleSuccess, screen.MsgAddressAdded).Once()

		require.NoError(t, f.screen.Save(t.Context()))

		assert.Equal(t, screen.ModeList, f.screen.Mode())
		addresses := f.store.Addresses()
		require.Len(t, addresses, 2)
		assert.Equal(t, "Priya Patel", addresses[1].Name)
		assert.Equal(t, "India", addresses[1].Country)
		assert.False(t, addresses[1].IsDefault)
		assert.Equal(t, models.Address{Country: "India"}, f.screen.Form(), "form is reset")
	})

	t.Run("create on empty list becomes default", func(t *testing.T) {
		f := newFixture(t, nil)
		f.screen.StartCreate()
		fillForm(t, f.screen)
		f.notifier.On("Alert", alert.TitleSuccess, screen.MsgAddressAdded).Once()

		require.NoError(t, f.screen.Save(t.Context()))

		def, ok := f.store.DefaultAddress()
		require.True(t, ok)
		assert.True(t, def.IsDefault)
		assert.Equal(t, "Priya Patel", def.Name)
	})

	t.Run("fallback phone needs editing before save", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())
		require.NoError(t, f.screen.StartEdit("1"))
		f.notifier.On("Alert", alert.TitleError, "Please enter a valid Indian phone number").Once()

		err := f.screen.Save(t.Context())

		require.ErrorIs(t, err, validation.ErrInvalidPhone)
		assert.Equal(t, screen.ModeForm, f.screen.Mode())
		assert.Equal(t, "1", f.screen.EditingID())
	})

	t.Run("edit updates in place", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())
		require.NoError(t, f.screen.StartEdit("1"))
		require.NoError(t, f.screen.SetField(screen.FieldCity, "Thane"))
		require.NoError(t, f.screen.SetField(screen.FieldPhone, "9876543210"))
		f.notifier.On("Alert", alert.TitleSuccess, screen.MsgAddressUpdated).Once()

		require.NoError(t, f.screen.Save(t.Context()))

		addr, ok := f.store.Get("1")
		require.True(t, ok)
		assert.Equal(t, "Thane", addr.City)
		assert.True(t, addr.IsDefault)
		assert.Equal(t, 1, f.store.Len())
		assert.Empty(t, f.screen.EditingID())
	})
}

func TestScreen_RequestDelete(t *testing.T) {
	t.Run("last address is refused without asking", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())
		f.notifier.On("Alert", alert.TitleError, store.MsgLastAddress).Once()

		require.ErrorIs(t, f.screen.RequestDelete(t.Context(), "1"), store.ErrLastAddress)

		f.notifier.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
		assert.Equal(t, 1, f.store.Len())
	})

	t.Run("declined confirmation keeps the address", func(t *testing.T) {
		f := newFixture(t, append(models.FallbackAddresses(), models.Address{ID: "2", Name: "Office"}))
		f.notifier.On("Confirm", alert.TitleDeleteAddress, screen.MsgDeleteConfirm).Return(false).Once()

		require.NoError(t, f.screen.RequestDelete(t.Context(), "2"))

		assert.Equal(t, 2, f.store.Len())
	})

	t.Run("confirmed delete removes the address", func(t *testing.T) {
		f := newFixture(t, append(models.FallbackAddresses(), models.Address{ID: "2", Name: "Office"}))
		f.notifier.On("Confirm", alert.TitleDeleteAddress, screen.MsgDeleteConfirm).Return(true).Once()

		require.NoError(t, f.screen.RequestDelete(t.Context(), "2"))

		assert.Equal(t, 1, f.store.Len())
		_, ok := f.store.Get("2")
		assert.False(t, ok)
	})
}

func TestScreen_SetDefault(t *testing.T) {
	f := newFixture(t, append(models.FallbackAddresses(), models.Address{ID: "2", Name: "Office"}))

	require.NoError(t, f.screen.SetDefault(t.Context(), "2"))

	def, _ := f.store.DefaultAddress()
	assert.Equal(t, "2", def.ID)
}

func TestScreen_UseCurrentLocation(t *testing.T) {
	t.Run("fills the form", func(t *testing.T) {
		f := newFixture(t, nil)
		f.screen.StartCreate()
		require.NoError(t, f.screen.SetField(screen.FieldName, "Priya Patel"))

		f.locator.On("RequestPermission", mock.Anything).Return(true, nil).Once()
		f.locator.On("CurrentPosition", mock.MatchedBy(func(ctx context.Context) bool {
			deadline, ok := ctx.Deadline()
			return ok && time.Until(deadline) <= 15*time.Second
		})).Return(position, nil).Once()
		f.geocoder.On("Reverse", mock.Anything, position).Return(&models.Place{
			Road: "Marine Drive", HouseNumber: "12", Town: "Mumbai", State: "Maharashtra",
			Postcode: "400020", Country: "Bharat",
		}, nil).Once()

		require.NoError(t, f.screen.UseCurrentLocation(t.Context()))

		form := f.screen.Form()
		assert.Equal(t, "Priya Patel", form.Name)
		assert.Equal(t, "Marine Drive 12", form.AddressLine1)
		assert.Equal(t, "Mumbai", form.City)
		assert.Equal(t, "Maharashtra", form.State)
		assert.Equal(t, "400020", form.Pincode)
		assert.Equal(t, "India", form.Country, "country already set is kept")
		coords, ok := form.Coordinates()
		require.True(t, ok)
		assert.Equal(t, position, coords)
		assert.False(t, f.screen.Locating())
	})

	t.Run("country filled when empty", func(t *testing.T) {
		f := newFixture(t, nil)
		f.screen.StartCreate()
		require.NoError(t, f.screen.SetField(screen.FieldCountry, ""))

		f.locator.On("RequestPermission", mock.Anything).Return(true, nil).Once()
		f.locator.On("CurrentPosition", mock.Anything).Return(position, nil).Once()
		f.geocoder.On("Reverse", mock.Anything, position).
			Return(&models.Place{Road: "Marine Drive", Country: "India"}, nil).Once()

		require.NoError(t, f.screen.UseCurrentLocation(t.Context()))

		assert.Equal(t, "India", f.screen.Form().Country)
	})

	t.Run("permission denied", func(t *testing.T) {
		f := newFixture(t, nil)
		f.screen.StartCreate()
		f.locator.On("RequestPermission", mock.Anything).Return(false, nil).Once()
		f.notifier.On("Alert", alert.TitlePermissionDenied, screen.MsgPermissionDenied).Once()

		require.ErrorIs(t, f.screen.UseCurrentLocation(t.Context()), screen.ErrPermissionDenied)

		assert.Equal(t, models.Address{Country: "India"}, f.screen.Form())
	})

	t.Run("permission request fails", func(t *testing.T) {
		f := newFixture(t, nil)
		f.screen.StartCreate()
		f.locator.On("RequestPermission", mock.Anything).Return(false, assert.AnError).Once()
		f.notifier.On("Alert", alert.TitleError, screen.MsgPermissionFailed).Once()

		require.ErrorIs(t, f.screen.UseCurrentLocation(t.Context()), assert.AnError)
	})

	t.Run("position unavailable", func(t *testing.T) {
		f := newFixture(t, nil)
		f.screen.StartCreate()
		f.locator.On("RequestPermission", mock.Anything).Return(true, nil).Once()
		f.locator.On("CurrentPosition", mock.Anything).Return(models.Coordinates{}, context.DeadlineExceeded).Once()
		f.notifier.On("Alert", alert.TitleError, screen.MsgLocationFailed).Once()

		require.ErrorIs(t, f.screen.UseCurrentLocation(t.Context()), context.DeadlineExceeded)

		assert.Equal(t, models.Address{Country: "India"}, f.screen.Form())
	})

	t.Run("reverse geocoding fails", func(t *testing.T) {
		f := newFixture(t, nil)
		f.screen.StartCreate()
		f.locator.On("RequestPermission", mock.Anything).Return(true, nil).Once()
		f.locator.On("CurrentPosition", mock.Anything).Return(position, nil).Once()
		f.geocoder.On("Reverse", mock.Anything, position).Return(nil, geocoding.ErrOpenCageUnauthorized).Once()
		f.notifier.On("Alert", alert.TitleError, screen.MsgReverseFailed).Once()

		require.ErrorIs(t, f.screen.UseCurrentLocation(t.Context()), geocoding.ErrOpenCageUnauthorized)

		assert.Equal(t, models.Address{Country: "India"}, f.screen.Form())
	})

	t.Run("empty result is silent", func(t *testing.T) {
		f := newFixture(t, nil)
		f.screen.StartCreate()
		f.locator.On("RequestPermission", mock.Anything).Return(true, nil).Once()
		f.locator.On("CurrentPosition", mock.Anything).Return(position, nil).Once()
		f.geocoder.On("Reverse", mock.Anything, position).Return(nil, geocoding.ErrOpenCageEmptyResponse).Once()

		require.NoError(t, f.screen.UseCurrentLocation(t.Context()))

		f.notifier.AssertNotCalled(t, "Alert", mock.Anything, mock.Anything)
		assert.Equal(t, models.Address{Country: "India"}, f.screen.Form())
	})
}

func TestScreen_View(t *testing.T) {
	t.Run("empty state", func(t *testing.T) {
		f := newFixture(t, nil)

		view := f.screen.View()

		assert.Empty(t, view.Cards)
		assert.Equal(t, screen.MsgEmptyState, view.EmptyMessage)
	})

	t.Run("single address has no delete or set-default", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())

		view := f.screen.View()

		require.Len(t, view.Cards, 1)
		card := view.Cards[0]
		assert.True(t, card.Default)
		assert.Equal(t, "Rahul Sharma", card.Title)
		assert.Equal(t, []string{screen.ActionEdit}, card.Actions)
		assert.Equal(t, []string{
			"+91 9876543210", "123 Main Street", "Apartment 4B", "Mumbai, Maharashtra - 400001", "India",
		}, card.Lines)
	})

	t.Run("several addresses", func(t *testing.T) {
		f := newFixture(t, append(models.FallbackAddresses(), models.Address{ID: "2", Name: "Office"}))

		view := f.screen.View()

		require.Len(t, view.Cards, 2)
		assert.Equal(t, []string{screen.ActionEdit, screen.ActionDelete}, view.Cards[0].Actions)
		assert.Equal(t,
			[]string{screen.ActionEdit, screen.ActionSetDefault, screen.ActionDelete}, view.Cards[1].Actions)
	})

	t.Run("form titles", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())

		f.screen.StartCreate()
		view := f.screen.View()
		require.NotNil(t, view.Form)
		assert.Equal(t, screen.TitleAddForm, view.Form.Title)
		assert.Equal(t, screen.LabelSave, view.Form.SubmitLabel)

		require.NoError(t, f.screen.StartEdit("1"))
		view = f.screen.View()
		assert.Equal(t, screen.TitleEditForm, view.Form.Title)
		assert.Equal(t, screen.LabelUpdate, view.Form.SubmitLabel)
	})

	t.Run("render", func(t *testing.T) {
		f := newFixture(t, models.FallbackAddresses())
		var buf bytes.Buffer

		require.NoError(t, f.screen.View().Render(&buf))

		assert.Contains(t, buf.String(), "#1 Rahul Sharma (Default)")
		assert.Contains(t, buf.String(), "Mumbai, Maharashtra - 400001")
	})
}
