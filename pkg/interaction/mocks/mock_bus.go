package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
)

// MockBus is a mock type for the Bus type
type MockBus struct {
	mock.Mock
}

type MockBus_Expecter struct {
	mock *mock.Mock
}

func (_m *MockBus) EXPECT() *MockBus_Expecter {
	return &MockBus_Expecter{mock: &_m.Mock}
}

// Close provides a mock function with no fields
func (_m *MockBus) Close() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockBus_Close_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Close'
type MockBus_Close_Call struct {
	*mock.Call
}

// Close is a helper method to define mock.On call
func (_e *MockBus_Expecter) Close() *MockBus_Close_Call {
	return &MockBus_Close_Call{Call: _e.mock.On("Close")}
}

func (_c *MockBus_Close_Call) Run(run func()) *MockBus_Close_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run()
	})
	return _c
}

func (_c *MockBus_Close_Call) Return(_a0 error) *MockBus_Close_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockBus_Close_Call) RunAndReturn(run func() error) *MockBus_Close_Call {
	_c.Call.Return(run)
	return _c
}

// Read provides a mock function with given fields: ctx, addr, length
func (_m *MockBus) Read(ctx context.Context, addr uint32, length int) ([]uint32, error) {
	ret := _m.Called(ctx, addr, length)

	var r0 []uint32
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, uint32, int) ([]uint32, error)); ok {
		return rf(ctx, addr, length)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]uint32)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// MockBus_Read_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Read'
type MockBus_Read_Call struct {
	*mock.Call
}

// Read is a helper method to define mock.On call
//   - ctx context.Context
//   - addr uint32
//   - length int
func (_e *MockBus_Expecter) Read(ctx interface{}, addr interface{}, length interface{}) *MockBus_Read_Call {
	return &MockBus_Read_Call{Call: _e.mock.On("Read", ctx, addr, length)}
}

func (_c *MockBus_Read_Call) Run(run func(ctx context.Context, addr uint32, length int)) *MockBus_Read_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(uint32), args[2].(int))
	})
	return _c
}

func (_c *MockBus_Read_Call) Return(_a0 []uint32, _a1 error) *MockBus_Read_Call {
	_c.Call.Return(_a0, _a1)
	return _c
}

func (_c *MockBus_Read_Call) RunAndReturn(run func(context.Context, uint32, int) ([]uint32, error)) *MockBus_Read_Call {
	_c.Call.Return(run)
	return _c
}

// Write provides a mock function with given fields: ctx, addr, values
func (_m *MockBus) Write(ctx context.Context, addr uint32, values []uint32) error {
	ret := _m.Called(ctx, addr, values)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, uint32, []uint32) error); ok {
		r0 = rf(ctx, addr, values)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// MockBus_Write_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Write'
type MockBus_Write_Call struct {
	*mock.Call
}

// Write is a helper method to define mock.On call
//   - ctx context.Context
//   - addr uint32
//   - values []uint32
func (_e *MockBus_Expecter) Write(ctx interface{}, addr interface{}, values interface{}) *MockBus_Write_Call {
	return &MockBus_Write_Call{Call: _e.mock.On("Write", ctx, addr, values)}
}

func (_c *MockBus_Write_Call) Run(run func(ctx context.Context, addr uint32, values []uint32)) *MockBus_Write_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(uint32), args[2].([]uint32))
	})
	return _c
}

func (_c *MockBus_Write_Call) Return(_a0 error) *MockBus_Write_Call {
	_c.Call.Return(_a0)
	return _c
}

func (_c *MockBus_Write_Call) RunAndReturn(run func(context.Context, uint32, []uint32) error) *MockBus_Write_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockBus creates a new instance of MockBus. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockBus(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBus {
	mock := &MockBus{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
