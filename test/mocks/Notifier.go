package mocks

import mock "github.com/stretchr/testify/mock"

// Notifier is a mock type for the Notifier type
type Notifier struct {
	mock.Mock
}

// Alert provides a mock function with given fields: title, message
func (_m *Notifier) Alert(title string, message string) {
	_m.Called(title, message)
}

// Confirm provides a mock function with given fields: title, message
func (_m *Notifier) Confirm(title string, message string) bool {
	ret := _m.Called(title, message)

	if len(ret) == 0 {
		panic("no return value specified for Confirm")
	}

	var r0 bool
	if rf, ok := ret.Get(0).(func(string, string) bool); ok {
		r0 = rf(title, message)
	} else {
		r0 = ret.Get(0).(bool)
	}

	return r0
}

// NewNotifier creates a new instance of Notifier. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewNotifier(t interface {
	mock.TestingT
	Cleanup(func())
}) *Notifier {
	mock := &Notifier{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
