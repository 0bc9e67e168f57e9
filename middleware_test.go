package auth_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-auth-resolver"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(router.Context) error { return nil }

func newProxyResolver(t *testing.T) (*auth.Resolver, *auth.User) {
	t.Helper()

	users, db := setupUsers(t)
	alice := seedUser(t, db, "alice", "alice@example.com", hashForTest(t, "secret"))

	cfg := auth.Options{
		ReverseProxyLogin:  true,
		ReverseProxyHeader: proxyHeader,
	}
	return auth.NewResolver(users, cfg).WithLogger(nopLogger{}), alice
}

func TestMiddlewareStoresResolvedUser(t *testing.T) {
	resolver, alice := newProxyResolver(t)

	var marked []*auth.User
	mw := auth.Middleware(resolver, auth.MiddlewareConfig{
		Session: func(_ router.Context, user *auth.User) error {
			marked = append(marked, user)
			return nil
		},
	})

	ctx := NewMockContext()
	ctx.HeadersM[proxyHeader] = "alice"

	err := mw(noopHandler)(ctx)
	require.NoError(t, err)
	assert.True(t, ctx.NextCalled)

	user, ok := auth.GetRouterUser(ctx, "")
	require.True(t, ok)
	assert.Equal(t, alice.ID, user.ID)

	fromCtx, ok := auth.FromContext(ctx.Context())
	require.True(t, ok)
	assert.Equal(t, alice.ID, fromCtx.ID)

	require.Len(t, marked, 1)
	assert.Equal(t, alice.ID, marked[0].ID)
}

func TestMiddlewareBasicDoesNotCallSession(t *testing.T) {
	resolver, alice := newProxyResolver(t)

	called := false
	mw := auth.Middleware(resolver, auth.MiddlewareConfig{
		ContextKey: "who",
		Session: func(router.Context, *auth.User) error {
			called = true
			return nil
		},
	})

	ctx := NewMockContext()
	ctx.HeadersM[auth.HeaderAuthorization] = basicHeader("alice:secret")

	require.NoError(t, mw(noopHandler)(ctx))
	assert.False(t, called)

	user, ok := auth.GetRouterUser(ctx, "who")
	require.True(t, ok)
	assert.Equal(t, alice.ID, user.ID)
}

func TestMiddlewareUnauthenticatedContinues(t *testing.T) {
	resolver, _ := newProxyResolver(t)
	mw := auth.Middleware(resolver)

	ctx := NewMockContext()
	require.NoError(t, mw(noopHandler)(ctx))
	assert.True(t, ctx.NextCalled)

	_, ok := auth.GetRouterUser(ctx, auth.DefaultContextKey)
	assert.False(t, ok)
	_, ok = auth.FromContext(ctx.Context())
	assert.False(t, ok)
}

func TestMiddlewareSessionFailure(t *testing.T) {
	resolver, _ := newProxyResolver(t)
	mw := auth.Middleware(resolver, auth.MiddlewareConfig{
		Session: func(router.Context, *auth.User) error {
			return errors.New("session store unavailable")
		},
	})

	ctx := NewMockContext()
	ctx.HeadersM[proxyHeader] = "alice"
	ctx.On("Status", router.StatusInternalServerError).Return()
	ctx.On("SendString", "Unable to establish session").Return(nil)

	require.NoError(t, mw(noopHandler)(ctx))
	assert.False(t, ctx.NextCalled)
	ctx.AssertExpectations(t)
}

func TestMiddlewareFilterSkipsResolution(t *testing.T) {
	resolver, _ := newProxyResolver(t)
	mw := auth.Middleware(resolver, auth.MiddlewareConfig{
		Filter: func(router.Context) bool { return true },
	})

	ctx := NewMockContext()
	ctx.HeadersM[proxyHeader] = "alice"

	require.NoError(t, mw(noopHandler)(ctx))
	assert.True(t, ctx.NextCalled)
	_, ok := auth.GetRouterUser(ctx, "")
	assert.False(t, ok)
}

func TestRequireLogin(t *testing.T) {
	t.Run("rejects anonymous requests", func(t *testing.T) {
		mw := auth.RequireLogin(auth.StaticConfig(auth.DefaultOptions()), "")

		ctx := NewMockContext()
		ctx.On("Status", router.StatusUnauthorized).Return()
		ctx.On("SendString", "Unauthorized").Return(nil)

		require.NoError(t, mw(noopHandler)(ctx))
		assert.False(t, ctx.NextCalled)
		ctx.AssertExpectations(t)
	})

	t.Run("anonymous browse lets requests through", func(t *testing.T) {
		opts := auth.DefaultOptions()
		opts.AnonymousBrowse = true
		mw := auth.RequireLogin(auth.StaticConfig(opts), "")

		ctx := NewMockContext()
		require.NoError(t, mw(noopHandler)(ctx))
		assert.True(t, ctx.NextCalled)
	})

	t.Run("resolved user passes", func(t *testing.T) {
		mw := auth.RequireLogin(auth.StaticConfig(auth.DefaultOptions()), "who")

		ctx := NewMockContext()
		ctx.LocalsM["who"] = &auth.User{Username: "alice"}

		require.NoError(t, mw(noopHandler)(ctx))
		assert.True(t, ctx.NextCalled)
	})
}
