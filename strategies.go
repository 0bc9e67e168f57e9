package auth

import (
	"context"
)

const (
	StrategyProxyHeader = "proxy_header"
	StrategyProxyToken  = "proxy_token"
	StrategyBasic       = "basic"

	HeaderAuthorization = "Authorization"
)

// Attempt is the per request input every strategy sees
type Attempt struct {
	Headers Headers
	Config  Config
}

// Strategy is one credential source in the resolution chain.
// Authenticate returns (nil, nil) when the request carries nothing the
// strategy handles, (nil, err) when it tried and failed, and the user on
// success. Failures never stop the chain.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, attempt Attempt) (*User, error)
	// MarksSession reports whether a success registers the user as the
	// session identity.
	MarksSession() bool
}

// ProxyHeaderStrategy trusts a plain username injected by a reverse proxy
type ProxyHeaderStrategy struct {
	directory UserDirectory
}

func NewProxyHeaderStrategy(directory UserDirectory) *ProxyHeaderStrategy {
	return &ProxyHeaderStrategy{directory: directory}
}

func (s *ProxyHeaderStrategy) Name() string       { return StrategyProxyHeader }
func (s *ProxyHeaderStrategy) MarksSession() bool { return true }

func (s *ProxyHeaderStrategy) Authenticate(ctx context.Context, attempt Attempt) (*User, error) {
	value, ok := proxyHeaderValue(attempt)
	if !ok || attempt.Config.GetReverseProxyUsesToken() {
		return nil, nil
	}
	return lookupIdentity(ctx, s.directory, attempt.Config, value)
}

// ProxyTokenStrategy trusts a signed identity token injected by a reverse
// proxy once its signature and claims check out.
type ProxyTokenStrategy struct {
	directory UserDirectory
	verifier  *TokenVerifier
}

func NewProxyTokenStrategy(directory UserDirectory, verifier *TokenVerifier) *ProxyTokenStrategy {
	return &ProxyTokenStrategy{
		directory: directory,
		verifier:  verifier,
	}
}

func (s *ProxyTokenStrategy) Name() string       { return StrategyProxyToken }
func (s *ProxyTokenStrategy) MarksSession() bool { return true }

func (s *ProxyTokenStrategy) Authenticate(ctx context.Context, attempt Attempt) (*User, error) {
	value, ok := proxyHeaderValue(attempt)
	if !ok || !attempt.Config.GetReverseProxyUsesToken() {
		return nil, nil
	}

	claims, err := s.verifier.Verify(value, attempt.Config)
	if err != nil {
		return nil, err
	}

	identifier, err := IdentityClaim(claims, attempt.Config.GetTokenIDClaim())
	if err != nil {
		return nil, err
	}

	return lookupIdentity(ctx, s.directory, attempt.Config, identifier)
}

// BasicAuthStrategy resolves the standard Authorization: Basic header.
// It does not register a session; the user is authenticated for the
// current request only.
type BasicAuthStrategy struct {
	credentials *CredentialVerifier
}

func NewBasicAuthStrategy(credentials *CredentialVerifier) *BasicAuthStrategy {
	return &BasicAuthStrategy{credentials: credentials}
}

func (s *BasicAuthStrategy) Name() string       { return StrategyBasic }
func (s *BasicAuthStrategy) MarksSession() bool { return false }

func (s *BasicAuthStrategy) Authenticate(ctx context.Context, attempt Attempt) (*User, error) {
	header := attempt.Headers.Get(HeaderAuthorization)
	if header == "" {
		return nil, nil
	}

	username, password := DecodeBasicCredentials(header)

	user, err := s.credentials.Verify(ctx, attempt.Config.GetLoginType(), username, password)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, wrapErr(ErrInvalidCredentials, nil, map[string]any{
			"username": username,
		})
	}

	return user, nil
}

func proxyHeaderValue(attempt Attempt) (string, bool) {
	cfg := attempt.Config
	if !cfg.GetReverseProxyLogin() {
		return "", false
	}

	name := cfg.GetReverseProxyHeader()
	if name == "" {
		return "", false
	}

	value := attempt.Headers.Get(name)
	return value, value != ""
}

func lookupIdentity(ctx context.Context, directory UserDirectory, cfg Config, identifier string) (*User, error) {
	if cfg.GetReverseProxyMatchEmail() {
		return directory.FindByNameOrEmail(ctx, identifier)
	}
	return directory.FindByName(ctx, identifier)
}
