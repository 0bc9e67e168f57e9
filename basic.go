package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
)

const basicScheme = "Basic "

var (
	errInvalidBasicEncoding  = errors.New("basic credentials are not valid utf-8")
	errMissingBasicSeparator = errors.New("basic credentials have no colon separator")
)

type basicCredentials struct {
	username string
	password string
}

// DecodeBasicCredentials extracts the username and password from an
// Authorization header value. Any decoding failure yields two empty strings
// so the caller's lookup simply does not match.
func DecodeBasicCredentials(header string) (username, password string) {
	creds, err := parseBasicCredentials(header)
	if err != nil {
		return "", ""
	}
	return creds.username, creds.password
}

// parseBasicCredentials strips one case-sensitive "Basic " prefix and splits
// the decoded text on the first colon. The password keeps any later colons;
// a username containing a colon is invalid (RFC 7617).
func parseBasicCredentials(header string) (basicCredentials, error) {
	header = strings.Map(base64Alphabet, strings.TrimPrefix(header, basicScheme))

	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return basicCredentials{}, err
	}

	if !utf8.Valid(raw) {
		return basicCredentials{}, errInvalidBasicEncoding
	}

	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return basicCredentials{}, errMissingBasicSeparator
	}
	return basicCredentials{
		username: username,
		password: password,
	}, nil
}

// base64Alphabet drops characters outside the standard alphabet, so stray
// whitespace or line breaks inside the token do not invalidate it.
func base64Alphabet(r rune) rune {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return r
	case r == '+', r == '/', r == '=':
		return r
	}
	return -1
}
