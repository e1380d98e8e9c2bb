package mocks

import (
	"context"

	models "github.com/UnknownOlympus/addressbook/internal/models"
	mock "github.com/stretchr/testify/mock"
)

// Locator is a mock type for the Locator type
type Locator struct {
	mock.Mock
}

// CurrentPosition provides a mock function with given fields: ctx
func (_m *Locator) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for CurrentPosition")
	}

	var r0 models.Coordinates
	if rf, ok := ret.Get(0).(func(context.Context) models.Coordinates); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(models.Coordinates)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// RequestPermission provides a mock function with given fields: ctx
func (_m *Locator) RequestPermission(ctx context.Context) (bool, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for RequestPermission")
	}

	var r0 bool
	if rf, ok := ret.Get(0).(func(context.Context) bool); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(bool)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewLocator creates a new instance of Locator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewLocator(t interface {
	mock.TestingT
	Cleanup(func())
}) *Locator {
	mock := &Locator{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
