package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultContextKey is the router locals key holding the resolved *User
const DefaultContextKey = "current_user"

// MiddlewareConfig configures Middleware
type MiddlewareConfig struct {
	// Filter skips resolution when it returns true
	Filter func(router.Context) bool
	// ContextKey is the locals key for the user. Default DefaultContextKey.
	ContextKey string
	// Session registers the user with the host session store when a
	// session marking strategy matches. Nil keeps the user request scoped.
	Session func(c router.Context, user *User) error
	// ErrorHandler handles session registration failures. Default 500.
	ErrorHandler router.ErrorHandler
}

// Middleware resolves the request user with resolver and stores it in the
// router locals and the request context. Unauthenticated requests proceed
// with no user; use RequireLogin to reject them.
func Middleware(resolver *Resolver, config ...MiddlewareConfig) router.MiddlewareFunc {
	cfg := middlewareDefaults(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if cfg.Filter != nil && cfg.Filter(c) {
				return c.Next()
			}

			marker := SessionMarkerFunc(nil)
			if cfg.Session != nil {
				marker = func(_ context.Context, user *User) error {
					return cfg.Session(c, user)
				}
			}

			user, err := resolver.Resolve(c.Context(), HeaderFunc(c.Header), marker)
			if err != nil {
				return cfg.ErrorHandler(c, err)
			}

			if user != nil {
				c.Locals(cfg.ContextKey, user)
				c.SetContext(WithContext(c.Context(), user))
			}

			return c.Next()
		}
	}
}

// RequireLogin rejects requests without a resolved user unless anonymous
// browsing is enabled in the current configuration.
func RequireLogin(config ConfigProvider, contextKey string) router.MiddlewareFunc {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if config != nil && config().GetAnonymousBrowse() {
				return c.Next()
			}

			if _, ok := GetRouterUser(c, contextKey); ok {
				return c.Next()
			}

			return c.Status(router.StatusUnauthorized).SendString("Unauthorized")
		}
	}
}

func middlewareDefaults(config ...MiddlewareConfig) MiddlewareConfig {
	var cfg MiddlewareConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return c.Status(router.StatusInternalServerError).SendString("Unable to establish session")
		}
	}

	return cfg
}
