package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockKeyValueStore is a mock implementation of ports.KeyValueStore.
type MockKeyValueStore struct {
	mock.Mock
}

// MockKeyValueStore_Expecter provides typed expectation helpers.
type MockKeyValueStore_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expecter.
func (_m *MockKeyValueStore) EXPECT() *MockKeyValueStore_Expecter {
	return &MockKeyValueStore_Expecter{mock: &_m.Mock}
}

// Get provides a mock function.
func (_m *MockKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	ret := _m.Called(ctx, key)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}

// MockKeyValueStore_Get_Call wraps mock.Call for Get.
type MockKeyValueStore_Get_Call struct {
	*mock.Call
}

// Get registers an expectation.
func (_e *MockKeyValueStore_Expecter) Get(ctx any, key any) *MockKeyValueStore_Get_Call {
	return &MockKeyValueStore_Get_Call{Call: _e.mock.On("Get", ctx, key)}
}

// Return sets the return values.
func (_c *MockKeyValueStore_Get_Call) Return(value []byte, err error) *MockKeyValueStore_Get_Call {
	_c.Call.Return(value, err)
	return _c
}

// Set provides a mock function.
func (_m *MockKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	return _m.Called(ctx, key, value).Error(0)
}

// MockKeyValueStore_Set_Call wraps mock.Call for Set.
type MockKeyValueStore_Set_Call struct {
	*mock.Call
}

// Set registers an expectation.
func (_e *MockKeyValueStore_Expecter) Set(ctx any, key any, value any) *MockKeyValueStore_Set_Call {
	return &MockKeyValueStore_Set_Call{Call: _e.mock.On("Set", ctx, key, value)}
}

// Return sets the return value.
func (_c *MockKeyValueStore_Set_Call) Return(err error) *MockKeyValueStore_Set_Call {
	_c.Call.Return(err)
	return _c
}

// Remove provides a mock function.
func (_m *MockKeyValueStore) Remove(ctx context.Context, key string) error {
	return _m.Called(ctx, key).Error(0)
}

// MockKeyValueStore_Remove_Call wraps mock.Call for Remove.
type MockKeyValueStore_Remove_Call struct {
	*mock.Call
}

// Remove registers an expectation.
func (_e *MockKeyValueStore_Expecter) Remove(ctx any, key any) *MockKeyValueStore_Remove_Call {
	return &MockKeyValueStore_Remove_Call{Call: _e.mock.On("Remove", ctx, key)}
}

// Return sets the return value.
func (_c *MockKeyValueStore_Remove_Call) Return(err error) *MockKeyValueStore_Remove_Call {
	_c.Call.Return(err)
	return _c
}

// NewMockKeyValueStore creates a mock and registers expectation assertions on cleanup.
func NewMockKeyValueStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockKeyValueStore {
	m := &MockKeyValueStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
