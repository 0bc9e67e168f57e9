package auth_test

import (
	"context"

	"github.com/goliatone/go-auth-resolver"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
)

// MockDirectory implements auth.UserDirectory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FindByName(ctx context.Context, name string) (*auth.User, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockDirectory) FindByNameOrEmail(ctx context.Context, query string) (*auth.User, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

// MockBindVerifier implements auth.BindVerifier
type MockBindVerifier struct {
	mock.Mock
}

func (m *MockBindVerifier) Bind(ctx context.Context, credential, password string) (bool, error) {
	args := m.Called(ctx, credential, password)
	return args.Bool(0), args.Error(1)
}

// routerContext keeps the embedded field from colliding with the Context method
type routerContext = router.Context

// MockContext mocks the router.Context methods the middleware touches.
// Anything else panics through the nil embedded interface.
type MockContext struct {
	routerContext
	mock.Mock

	NextCalled bool
	HeadersM   map[string]string
	LocalsM    map[any]any
	ctx        context.Context
}

func NewMockContext() *MockContext {
	return &MockContext{
		HeadersM: map[string]string{},
		LocalsM:  map[any]any{},
		ctx:      context.Background(),
	}
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	return m.ctx
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.ctx = ctx
}

func (m *MockContext) Header(key string) string {
	return m.HeadersM[key]
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.LocalsM[key] = value[0]
		return value[0]
	}
	return m.LocalsM[key]
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}
