package repository_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/addressbook/internal/models"
	"github.com/UnknownOlympus/addressbook/internal/repository"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apiURL = "https://api.example.com"
	token  = "secret-token"
)

type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newRemote(doFunc func(req *http.Request) (*http.Response, error)) *repository.Remote {
	return repository.NewRemote(
		&mockHTTPClient{doFunc: doFunc}, apiURL+"/", token,
		repository.DefaultBreakerConfig(), slog.Default(), nil,
	)
}

func TestRemote_List(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, apiURL+repository.AddressesPath, req.URL.String())
			assert.Equal(t, "Bearer "+token, req.Header.Get("Authorization"))

			return response(http.StatusOK, `{"success":true,"data":[`+
				`{"id":"a1","name":"Home","isDefault":true,"latitude":19.07,"longitude":72.87},`+
				`{"_id":"a2","name":"Office"}]}`), nil
		})

		addresses, err := repo.List(t.Context())

		require.NoError(t, err)
		require.Len(t, addresses, 2)
		assert.Equal(t, "a1", addresses[0].ID)
		assert.True(t, addresses[0].IsDefault)
		assert.True(t, addresses[0].HasCoordinates())
		assert.Equal(t, "a2", addresses[1].ID, "mongo style id is accepted")
		assert.False(t, addresses[1].HasCoordinates())
	})

	t.Run("unsuccessful envelope", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(_ *http.Request) (*http.Response, error) {
			return response(http.StatusOK, `{"success":false,"message":"nope"}`), nil
		})

		addresses, err := repo.List(t.Context())

		require.Nil(t, addresses)
		require.ErrorIs(t, err, repository.ErrUnsuccessful)
		assert.ErrorContains(t, err, "nope")
	})

	t.Run("unauthorized", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(_ *http.Request) (*http.Response, error) {
			return response(http.StatusUnauthorized, `{"success":false}`), nil
		})

		_, err := repo.List(t.Context())

		require.ErrorIs(t, err, repository.ErrUnauthorized)
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(_ *http.Request) (*http.Response, error) {
			return response(http.StatusBadGateway, `upstream down`), nil
		})

		_, err := repo.List(t.Context())

		require.ErrorIs(t, err, repository.ErrUnexpectedAPI)
		assert.ErrorContains(t, err, "status 502: upstream down")
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(_ *http.Request) (*http.Response, error) {
			return nil, assert.AnError
		})

		_, err := repo.List(t.Context())

		require.ErrorIs(t, err, assert.AnError)
		assert.ErrorContains(t, err, "failed to list addresses")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(_ *http.Request) (*http.Response, error) {
			return response(http.StatusOK, `{"success":`), nil
		})

		_, err := repo.List(t.Context())

		require.ErrorContains(t, err, "failed to decode response")
	})
}

func TestRemote_Create(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

			var sent models.Address
			require.NoError(t, json.NewDecoder(req.Body).Decode(&sent))
			assert.Equal(t, "Home", sent.Name)
			assert.True(t, sent.IsDefault)

			return response(http.StatusCreated, `{"success":true,"data":{"_id":"665f","name":"Home","isDefault":true}}`), nil
		})

		created, err := repo.Create(t.Context(), models.Address{Name: "Home", IsDefault: true})

		require.NoError(t, err)
		assert.Equal(t, "665f", created.ID)
		assert.True(t, created.IsDefault)
	})

	for name, body := range map[string]string{
		"missing data": `{"success":true}`,
		"null data":    `{"success":true,"data":null}`,
		"record no id": `{"success":true,"data":{"name":"Home"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			repo := newRemote(func(_ *http.Request) (*http.Response, error) {
				return response(http.StatusCreated, body), nil
			})

			created, err := repo.Create(t.Context(), models.Address{Name: "Home"})

			require.ErrorIs(t, err, repository.ErrUnexpectedAPI)
			assert.Empty(t, created.ID)
		})
	}
}

func TestRemote_Update(t *testing.T) {
	t.Parallel()

	t.Run("partial record", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodPut, req.Method)
			assert.Equal(t, repository.AddressesPath+"/a1", req.URL.Path)

			var sent map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&sent))
			assert.Equal(t, map[string]any{"city": "Pune"}, sent, "only patched fields are sent")

			return response(http.StatusOK, `{"success":true,"data":{"_id":"a1","city":"Pune"}}`), nil
		})
		city := "Pune"

		reported, err := repo.Update(t.Context(), "a1", models.AddressPatch{City: &city})

		require.NoError(t, err)
		require.NotNil(t, reported.City)
		assert.Equal(t, "Pune", *reported.City)
		assert.Nil(t, reported.Name, "fields missing from the response are not reported")
		assert.Nil(t, reported.IsDefault)
		assert.Nil(t, reported.Latitude)
	})

	t.Run("no data", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(_ *http.Request) (*http.Response, error) {
			return response(http.StatusOK, `{"success":true}`), nil
		})

		reported, err := repo.Update(t.Context(), "a1", models.AddressPatch{})

		require.NoError(t, err)
		assert.True(t, reported.IsEmpty())
	})
}

func TestRemote_Delete(t *testing.T) {
	t.Parallel()

	t.Run("success without body", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodDelete, req.Method)
			assert.Equal(t, repository.AddressesPath+"/a1", req.URL.Path)
			return response(http.StatusNoContent, ``), nil
		})

		require.NoError(t, repo.Delete(t.Context(), "a1"))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		repo := newRemote(func(_ *http.Request) (*http.Response, error) {
			return response(http.StatusNotFound, `{"success":false}`), nil
		})

		require.ErrorIs(t, repo.Delete(t.Context(), "a1"), repository.ErrNotFound)
	})
}

func TestRemote_SetDefault(t *testing.T) {
	t.Parallel()

	repo := newRemote(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPatch, req.Method)
		assert.Equal(t, repository.AddressesPath+"/a2/set-default", req.URL.Path)
		return response(http.StatusOK, `{"success":true}`), nil
	})

	require.NoError(t, repo.SetDefault(t.Context(), "a2"))
}

func TestRemote_CircuitBreaker(t *testing.T) {
	t.Parallel()

	calls := 0
	var states []gobreaker.State
	cfg := repository.DefaultBreakerConfig()
	cfg.MinRequests = 2
	repo := repository.NewRemote(&mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
		calls++
		return response(http.StatusServiceUnavailable, `down`), nil
	}}, apiURL, token, cfg, slog.Default(), func(to gobreaker.State) {
		states = append(states, to)
	})

	for range 2 {
		_, err := repo.List(t.Context())
		require.ErrorIs(t, err, repository.ErrUnexpectedAPI)
	}

	_, err := repo.List(t.Context())

	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls, "open breaker fails fast")
	assert.Equal(t, gobreaker.StateOpen, repo.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, states)
}
