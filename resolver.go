package auth

import (
	"context"
	"time"
)

// Resolution is the outcome of a resolver run. User is nil when the request
// is unauthenticated.
type Resolution struct {
	User     *User
	Strategy string
}

// Authenticated reports whether a strategy resolved a user
func (r Resolution) Authenticated() bool {
	return r.User != nil
}

// Resolver runs the credential strategies of a request in priority order:
// reverse proxy header, reverse proxy token, HTTP basic. The first strategy
// that yields a user wins.
type Resolver struct {
	config      ConfigProvider
	directory   UserDirectory
	keys        *SigningKeyResolver
	defaultKeys bool
	credentials *CredentialVerifier
	strategies  []Strategy
	custom      bool
	logger      Logger
	activity    ActivitySink
	metrics     *ResolutionMetrics
}

// NewResolver returns a resolver reading cfg on every request
func NewResolver(directory UserDirectory, cfg Config) *Resolver {
	r := &Resolver{
		config:      StaticConfig(cfg),
		directory:   directory,
		keys:        NewSigningKeyResolver(NewJWKSKeySourceFactory(defLogger{})),
		defaultKeys: true,
		credentials: NewCredentialVerifier(directory),
		logger:      defLogger{},
		activity:    noopActivitySink{},
	}
	r.rebuild()
	return r
}

// WithConfigProvider lets external configuration management swap the
// snapshot between requests.
func (r *Resolver) WithConfigProvider(provider ConfigProvider) *Resolver {
	if provider != nil {
		r.config = provider
	}
	return r
}

func (r *Resolver) WithLogger(logger Logger) *Resolver {
	if logger == nil {
		return r
	}
	r.logger = logger
	r.credentials.WithLogger(logger)
	if r.defaultKeys {
		r.keys.Close()
		r.keys = NewSigningKeyResolver(NewJWKSKeySourceFactory(logger))
		r.rebuild()
	}
	return r
}

// WithKeySourceFactory replaces how JWKS clients are built, e.g. with a
// custom HTTP client.
func (r *Resolver) WithKeySourceFactory(factory KeySourceFactory) *Resolver {
	r.keys.Close()
	r.keys = NewSigningKeyResolver(factory)
	r.defaultKeys = false
	r.rebuild()
	return r
}

func (r *Resolver) WithBindVerifier(bind BindVerifier) *Resolver {
	r.credentials.WithBindVerifier(bind)
	return r
}

func (r *Resolver) WithPasswordAuthenticator(p PasswordAuthenticator) *Resolver {
	r.credentials.WithPasswordAuthenticator(p)
	return r
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (r *Resolver) WithActivitySink(sink ActivitySink) *Resolver {
	r.activity = normalizeActivitySink(sink)
	return r
}

func (r *Resolver) WithMetrics(metrics *ResolutionMetrics) *Resolver {
	r.metrics = metrics
	return r
}

// WithStrategies replaces the default chain. Order is priority.
func (r *Resolver) WithStrategies(strategies ...Strategy) *Resolver {
	r.strategies = make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			r.strategies = append(r.strategies, s)
		}
	}
	r.custom = true
	return r
}

// Strategies returns the chain in priority order
func (r *Resolver) Strategies() []Strategy {
	out := make([]Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// SigningKeys exposes the key source cache shared by token verification
func (r *Resolver) SigningKeys() *SigningKeyResolver {
	return r.keys
}

// Config returns the current snapshot
func (r *Resolver) Config() Config {
	return r.config()
}

// Close releases background JWKS refresh
func (r *Resolver) Close() {
	r.keys.Close()
}

// Resolve returns the authenticated user for the request headers or nil.
// Only a session marker failure is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, headers Headers, session SessionMarker) (*User, error) {
	res, err := r.ResolveDetailed(ctx, headers, session)
	if err != nil {
		return nil, err
	}
	return res.User, nil
}

// ResolveDetailed is Resolve plus the name of the strategy that matched
func (r *Resolver) ResolveDetailed(ctx context.Context, headers Headers, session SessionMarker) (Resolution, error) {
	if headers == nil {
		headers = HeaderFunc(nil)
	}

	attempt := Attempt{
		Headers: headers,
		Config:  r.config(),
	}

	for _, strategy := range r.strategies {
		user, err := strategy.Authenticate(ctx, attempt)
		if err != nil {
			r.recordFailure(ctx, strategy.Name(), err)
			continue
		}

		if user == nil {
			continue
		}

		if strategy.MarksSession() {
			if err := normalizeSessionMarker(session).MarkAuthenticated(ctx, user); err != nil {
				r.logger.Error("mark session authenticated for %s failed: %v", user.ID, err)
				return Resolution{}, err
			}
		}

		r.recordSuccess(ctx, strategy.Name(), user)
		return Resolution{User: user, Strategy: strategy.Name()}, nil
	}

	r.metrics.unauthenticated()
	return Resolution{}, nil
}

func (r *Resolver) rebuild() {
	if r.custom {
		return
	}
	r.strategies = []Strategy{
		NewProxyHeaderStrategy(r.directory),
		NewProxyTokenStrategy(r.directory, NewTokenVerifier(r.keys)),
		NewBasicAuthStrategy(r.credentials),
	}
}

func (r *Resolver) recordSuccess(ctx context.Context, strategy string, user *User) {
	r.metrics.observe(strategy, OutcomeSuccess)
	r.logger.Debug("request authenticated by %s as %s", strategy, user.Username)
	r.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Strategy:  strategy,
		UserID:    user.ID.String(),
	})
}

func (r *Resolver) recordFailure(ctx context.Context, strategy string, err error) {
	r.metrics.observe(strategy, OutcomeFailure)
	if isAuthFailure(err) {
		r.logger.Debug("%s did not authenticate request: %v", strategy, err)
	} else {
		r.logger.Error("%s failed: %v", strategy, err)
	}
	r.emit(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Strategy:  strategy,
		Metadata: map[string]any{
			"error": err.Error(),
		},
	})
}

func (r *Resolver) emit(ctx context.Context, event ActivityEvent) {
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := normalizeActivitySink(r.activity).Record(ctx, event); err != nil {
		r.logger.Warn("activity sink record error: %v", err)
	}
}
