package mocks

import (
	"context"

	models "github.com/UnknownOlympus/addressbook/internal/models"
	mock "github.com/stretchr/testify/mock"
)

// Provider is a mock type for the Provider type
type Provider struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, address
func (_m *Provider) Geocode(ctx context.Context, address string) (*models.Coordinates, error) {
	ret := _m.Called(ctx, address)

	if len(ret) == 0 {
		panic("no return value specified for Geocode")
	}

	var r0 *models.Coordinates
	if rf, ok := ret.Get(0).(func(context.Context, string) *models.Coordinates); ok {
		r0 = rf(ctx, address)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Coordinates)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, address)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Reverse provides a mock function with given fields: ctx, coords
func (_m *Provider) Reverse(ctx context.Context, coords models.Coordinates) (*models.Place, error) {
	ret := _m.Called(ctx, coords)

	if len(ret) == 0 {
		panic("no return value specified for Reverse")
	}

	var r0 *models.Place
	if rf, ok := ret.Get(0).(func(context.Context, models.Coordinates) *models.Place); ok {
		r0 = rf(ctx, coords)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Place)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, models.Coordinates) error); ok {
		r1 = rf(ctx, coords)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewProvider creates a new instance of Provider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *Provider {
	mock := &Provider{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
