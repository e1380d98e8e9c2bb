package mocks

import (
	"context"

	models "github.com/UnknownOlympus/addressbook/internal/models"
	mock "github.com/stretchr/testify/mock"
)

// Repository is a mock type for the Interface type
type Repository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, addr
func (_m *Repository) Create(ctx context.Context, addr models.Address) (models.Address, error) {
	ret := _m.Called(ctx, addr)

	if len(ret) == 0 {
		panic("no return value specified for Create")
	}

	var r0 models.Address
	if rf, ok := ret.Get(0).(func(context.Context, models.Address) models.Address); ok {
		r0 = rf(ctx, addr)
	} else {
		r0 = ret.Get(0).(models.Address)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, models.Address) error); ok {
		r1 = rf(ctx, addr)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Delete provides a mock function with given fields: ctx, id
func (_m *Repository) Delete(ctx context.Context, id string) error {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for Delete")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, id)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// List provides a mock function with given fields: ctx
func (_m *Repository) List(ctx context.Context) ([]models.Address, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for List")
	}

	var r0 []models.Address
	if rf, ok := ret.Get(0).(func(context.Context) []models.Address); ok {
		r0 = rf(ctx)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Address)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// SetDefault provides a mock function with given fields: ctx, id
func (_m *Repository) SetDefault(ctx context.Context, id string) error {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for SetDefault")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string) error); ok {
		r0 = rf(ctx, id)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Update provides a mock function with given fields: ctx, id, patch
func (_m *Repository) Update(ctx context.Context, id string, patch models.AddressPatch) (models.AddressPatch, error) {
	ret := _m.Called(ctx, id, patch)

	if len(ret) == 0 {
		panic("no return value specified for Update")
	}

	var r0 models.AddressPatch
	if rf, ok := ret.Get(0).(func(context.Context, string, models.AddressPatch) models.AddressPatch); ok {
		r0 = rf(ctx, id, patch)
	} else {
		r0 = ret.Get(0).(models.AddressPatch)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, models.AddressPatch) error); ok {
		r1 = rf(ctx, id, patch)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewRepository creates a new instance of Repository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *Repository {
	mock := &Repository{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
