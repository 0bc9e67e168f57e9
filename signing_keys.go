package auth

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// KeySource yields the verification key for a token, usually from a JWKS.
// *keyfunc.JWKS satisfies it.
type KeySource interface {
	Keyfunc(token *jwt.Token) (any, error)
	EndBackground()
}

// KeySourceFactory builds a KeySource for a key endpoint URL
type KeySourceFactory func(endpoint string) (KeySource, error)

var errEmptyKeyEndpoint = errors.New("key endpoint not configured")

// NewJWKSKeySourceFactory returns a factory backed by keyfunc. Unknown key
// IDs trigger a rate limited refresh so rotated keys are picked up.
func NewJWKSKeySourceFactory(logger Logger) KeySourceFactory {
	if logger == nil {
		logger = defLogger{}
	}
	return func(endpoint string) (KeySource, error) {
		jwks, err := keyfunc.Get(endpoint, jwksOptions(logger))
		if err != nil {
			return nil, err
		}
		return jwks, nil
	}
}

func jwksOptions(logger Logger) keyfunc.Options {
	return keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Error("failed to do a background refresh of JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

type keySourceEntry struct {
	endpoint string
	source   KeySource
}

// SigningKeyResolver caches one KeySource keyed by the endpoint it was built
// for. A different endpoint replaces the cached source; the same endpoint
// reuses it. Safe for concurrent use.
type SigningKeyResolver struct {
	factory KeySourceFactory
	current atomic.Pointer[keySourceEntry]
}

func NewSigningKeyResolver(factory KeySourceFactory) *SigningKeyResolver {
	if factory == nil {
		factory = NewJWKSKeySourceFactory(nil)
	}
	return &SigningKeyResolver{factory: factory}
}

// KeySource returns the source for endpoint, rebuilding it when the endpoint
// differs from the cached one.
func (r *SigningKeyResolver) KeySource(endpoint string) (KeySource, error) {
	cur := r.current.Load()
	if cur != nil && cur.endpoint == endpoint {
		return cur.source, nil
	}

	if endpoint == "" {
		return nil, wrapErr(ErrKeySourceUnavailable, errEmptyKeyEndpoint, nil)
	}

	source, err := r.factory(endpoint)
	if err != nil {
		return nil, wrapErr(ErrKeySourceUnavailable, err, map[string]any{
			"endpoint": endpoint,
		})
	}

	next := &keySourceEntry{endpoint: endpoint, source: source}
	if r.current.CompareAndSwap(cur, next) {
		if cur != nil {
			cur.source.EndBackground()
		}
		return source, nil
	}

	// lost a concurrent rebuild
	if won := r.current.Load(); won != nil && won.endpoint == endpoint {
		source.EndBackground()
		return won.source, nil
	}

	if old := r.current.Swap(next); old != nil {
		old.source.EndBackground()
	}
	return source, nil
}

// Keyfunc returns a jwt.Keyfunc resolving keys from endpoint
func (r *SigningKeyResolver) Keyfunc(endpoint string) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		source, err := r.KeySource(endpoint)
		if err != nil {
			return nil, err
		}
		return source.Keyfunc(token)
	}
}

// Endpoint returns the endpoint of the cached source, if any
func (r *SigningKeyResolver) Endpoint() string {
	if cur := r.current.Load(); cur != nil {
		return cur.endpoint
	}
	return ""
}

// Close stops background refresh of the cached source
func (r *SigningKeyResolver) Close() {
	if cur := r.current.Swap(nil); cur != nil {
		cur.source.EndBackground()
	}
}
