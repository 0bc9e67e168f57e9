package auth

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeIdentityNotFound     = "auth_identity_not_found"
	TextCodeTokenInvalid         = "auth_token_invalid"
	TextCodeMissingIdentityClaim = "auth_missing_identity_claim"
	TextCodeKeySourceUnavailable = "auth_key_source_unavailable"
	TextCodeMismatchedPassword   = "auth_mismatched_password"
	TextCodeInvalidCredentials   = "auth_invalid_credentials"
	TextCodeEmptyString          = "auth_empty_string"
	TextCodeInvalidConfig        = "auth_invalid_config"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenInvalid is returned for every failure while verifying a signed
// identity token: structure, signature, key lookup, audience, issuer or expiry.
var ErrTokenInvalid = errors.New("token invalid", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrMissingIdentityClaim is returned when a verified token lacks the
// configured identity claim.
var ErrMissingIdentityClaim = errors.New("identity claim missing from token", errors.CategoryAuth).
	WithTextCode(TextCodeMissingIdentityClaim).
	WithCode(errors.CodeUnauthorized)

// ErrKeySourceUnavailable is returned when no key source can be built for
// the configured endpoint.
var ErrKeySourceUnavailable = errors.New("signing key source unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeKeySourceUnavailable).
	WithCode(errors.CodeInternal)

// ErrMismatchedHashAndPassword password and hash do not match
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithTextCode(TextCodeMismatchedPassword).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is returned by the basic strategy when the
// username and password pair does not resolve to a user.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString empty strings are not allowed
var ErrNoEmptyString = errors.New("empty string not allowed", errors.CategoryBadInput).
	WithTextCode(TextCodeEmptyString).
	WithCode(errors.CodeBadRequest)

// ErrInvalidConfig is returned by Options.Validate
var ErrInvalidConfig = errors.New("invalid auth configuration", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidConfig).
	WithCode(errors.CodeBadRequest)

// IsTokenInvalidError reports whether err came out of token verification
func IsTokenInvalidError(err error) bool {
	return hasTextCode(err, TextCodeTokenInvalid)
}

// IsIdentityNotFound reports whether err means the directory had no match
func IsIdentityNotFound(err error) bool {
	return hasTextCode(err, TextCodeIdentityNotFound)
}

// isAuthFailure reports whether err is an expected authentication outcome
// rather than an infrastructure failure.
func isAuthFailure(err error) bool {
	var richErr *errors.Error
	if !stderrors.As(err, &richErr) {
		return false
	}
	switch richErr.TextCode {
	case TextCodeIdentityNotFound,
		TextCodeTokenInvalid,
		TextCodeMissingIdentityClaim,
		TextCodeInvalidCredentials,
		TextCodeMismatchedPassword:
		return true
	}
	return false
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if stderrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// wrapErr clones a sentinel so the cause and metadata stay attached to the
// returned value without mutating the package level error.
func wrapErr(base *errors.Error, source error, metadata map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		return source
	}
	clone.Source = source
	if len(metadata) > 0 {
		return clone.WithMetadata(metadata)
	}
	return clone
}
