// Package mocks holds testify mocks for the ports interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/quote-sync/internal/domain"
)

// MockQuoteRemote is a mock implementation of ports.QuoteRemote.
type MockQuoteRemote struct {
	mock.Mock
}

// MockQuoteRemote_Expecter provides typed expectation helpers.
type MockQuoteRemote_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expecter.
func (_m *MockQuoteRemote) EXPECT() *MockQuoteRemote_Expecter {
	return &MockQuoteRemote_Expecter{mock: &_m.Mock}
}

// FetchQuotes provides a mock function.
func (_m *MockQuoteRemote) FetchQuotes(ctx context.Context, limit int) ([]domain.Quote, error) {
	ret := _m.Called(ctx, limit)

	if rf, ok := ret.Get(0).(func(context.Context, int) ([]domain.Quote, error)); ok {
		return rf(ctx, limit)
	}

	var r0 []domain.Quote
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.Quote)
	}

	return r0, ret.Error(1)
}

// MockQuoteRemote_FetchQuotes_Call wraps mock.Call for FetchQuotes.
type MockQuoteRemote_FetchQuotes_Call struct {
	*mock.Call
}

// FetchQuotes registers an expectation.
func (_e *MockQuoteRemote_Expecter) FetchQuotes(ctx any, limit any) *MockQuoteRemote_FetchQuotes_Call {
	return &MockQuoteRemote_FetchQuotes_Call{Call: _e.mock.On("FetchQuotes", ctx, limit)}
}

// Return sets the return values.
func (_c *MockQuoteRemote_FetchQuotes_Call) Return(quotes []domain.Quote, err error) *MockQuoteRemote_FetchQuotes_Call {
	_c.Call.Return(quotes, err)
	return _c
}

// RunAndReturn computes the return values from the arguments.
func (_c *MockQuoteRemote_FetchQuotes_Call) RunAndReturn(
	run func(context.Context, int) ([]domain.Quote, error),
) *MockQuoteRemote_FetchQuotes_Call {
	_c.Call.Return(run, nil)
	return _c
}

// PushQuotes provides a mock function.
func (_m *MockQuoteRemote) PushQuotes(ctx context.Context, quotes []domain.Quote) error {
	ret := _m.Called(ctx, quotes)

	if fn, ok := ret.Get(0).(func(context.Context, []domain.Quote) error); ok {
		return fn(ctx, quotes)
	}

	return ret.Error(0)
}

// MockQuoteRemote_PushQuotes_Call wraps mock.Call for PushQuotes.
type MockQuoteRemote_PushQuotes_Call struct {
	*mock.Call
}

// PushQuotes registers an expectation.
func (_e *MockQuoteRemote_Expecter) PushQuotes(ctx any, quotes any) *MockQuoteRemote_PushQuotes_Call {
	return &MockQuoteRemote_PushQuotes_Call{Call: _e.mock.On("PushQuotes", ctx, quotes)}
}

// Return sets the return value.
func (_c *MockQuoteRemote_PushQuotes_Call) Return(err error) *MockQuoteRemote_PushQuotes_Call {
	_c.Call.Return(err)
	return _c
}

// RunAndReturn computes the return value from the arguments.
func (_c *MockQuoteRemote_PushQuotes_Call) RunAndReturn(
	run func(context.Context, []domain.Quote) error,
) *MockQuoteRemote_PushQuotes_Call {
	_c.Call.Return(run)
	return _c
}

// NewMockQuoteRemote creates a mock and registers expectation assertions on cleanup.
func NewMockQuoteRemote(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockQuoteRemote {
	m := &MockQuoteRemote{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
