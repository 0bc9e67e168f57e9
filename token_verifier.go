package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates RS256 identity tokens injected by a reverse proxy
type TokenVerifier struct {
	keys *SigningKeyResolver
}

func NewTokenVerifier(keys *SigningKeyResolver) *TokenVerifier {
	if keys == nil {
		keys = NewSigningKeyResolver(nil)
	}
	return &TokenVerifier{keys: keys}
}

// Verify decodes raw and checks its signature against the key published at
// the configured JWKS endpoint. Audience and issuer are only checked when
// configured. All failures are reported as ErrTokenInvalid.
func (v *TokenVerifier) Verify(raw string, cfg Config) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	}
	if aud := cfg.GetTokenAudience(); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	if iss := cfg.GetTokenIssuer(); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.keys.Keyfunc(cfg.GetJWKSURL()), opts...)
	if err != nil {
		return nil, wrapErr(ErrTokenInvalid, err, map[string]any{
			"cause": err.Error(),
		})
	}

	if !token.Valid {
		return nil, ErrTokenInvalid.Clone()
	}

	return claims, nil
}

// IdentityClaim extracts the user identifier stored under name
func IdentityClaim(claims jwt.MapClaims, name string) (string, error) {
	raw, ok := claims[name]
	if !ok {
		return "", wrapErr(ErrMissingIdentityClaim, fmt.Errorf("claim %q not present", name), map[string]any{
			"claim": name,
		})
	}

	value, ok := raw.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", wrapErr(ErrMissingIdentityClaim, fmt.Errorf("claim %q is not a non-empty string", name), map[string]any{
			"claim": name,
		})
	}

	return value, nil
}
