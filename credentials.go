package auth

import (
	"context"
)

// CredentialVerifier checks a username and password pair against the
// directory. Lookups are by exact case-insensitive username, never by email.
type CredentialVerifier struct {
	directory UserDirectory
	passwords PasswordAuthenticator
	bind      BindVerifier
	logger    Logger
}

// NewCredentialVerifier returns a verifier that compares bcrypt hashes
func NewCredentialVerifier(directory UserDirectory) *CredentialVerifier {
	return &CredentialVerifier{
		directory: directory,
		passwords: BcryptPasswords{},
		logger:    defLogger{},
	}
}

// WithBindVerifier sets the external directory used when the login type is
// LoginTypeLDAP.
func (v *CredentialVerifier) WithBindVerifier(bind BindVerifier) *CredentialVerifier {
	v.bind = bind
	return v
}

func (v *CredentialVerifier) WithPasswordAuthenticator(p PasswordAuthenticator) *CredentialVerifier {
	if p != nil {
		v.passwords = p
	}
	return v
}

func (v *CredentialVerifier) WithLogger(logger Logger) *CredentialVerifier {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// Verify returns the matching user or nil. A nil user with a nil error means
// the credentials did not match; errors are directory infrastructure
// failures only.
func (v *CredentialVerifier) Verify(ctx context.Context, loginType LoginType, username, password string) (*User, error) {
	user, err := v.directory.FindByName(ctx, username)
	if err != nil {
		if IsIdentityNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if loginType == LoginTypeLDAP && v.bind != nil {
		ok, err := v.bind.Bind(ctx, user.Credential(), password)
		if err != nil {
			v.logger.Warn("bind verification failed for %q: %v", username, err)
		}
		if ok {
			return user, nil
		}
	}

	if err := v.passwords.ComparePasswordAndHash(password, user.Credential()); err != nil {
		v.logger.Debug("password mismatch for %q", username)
		return nil, nil
	}

	return user, nil
}
