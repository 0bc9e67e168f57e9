// Package auth resolves the user behind an inbound request from one of
// several credential sources.
//
// Resolution chain:
//   - Reverse proxy header: when enabled, a trusted proxy injects the user
//     name in a configured header. In token mode the header carries an RS256
//     JWT instead, verified against a JWKS endpoint and mapped to a user
//     through a configurable claim.
//   - HTTP Basic: the Authorization header is decoded and the password is
//     checked against the stored bcrypt hash, or delegated to a BindVerifier
//     (LDAP style) when the login type asks for it.
//
// Strategies run in that order and the first match wins. Failures in one
// strategy (bad token, unknown user, JWKS outage) are logged and the chain
// moves on; a request nothing matches is simply unauthenticated.
//
// Signing keys:
//   - SigningKeyResolver caches one JWKS client keyed by its endpoint URL.
//     Reconfiguring the endpoint replaces the client on the next request,
//     and keyfunc refreshes on unknown key IDs so rotated keys are picked up
//     without a restart.
//
// Sessions:
//   - Proxy strategies call SessionMarker.MarkAuthenticated so the host can
//     persist the login. Basic credentials authenticate the current request
//     only. Users behind an established session are reloaded with
//     Users.FindByID.
package auth
