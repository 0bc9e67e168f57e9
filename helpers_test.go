package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-auth-resolver"
	"github.com/goliatone/go-auth-resolver/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const jwksPath = "/.well-known/jwks.json"

type jwksServer struct {
	*httptest.Server
	hits atomic.Int32
}

func (s *jwksServer) JWKSURL() string {
	return s.URL + jwksPath
}

func newTestJWKS(t *testing.T, kid string) (*rsa.PrivateKey, []byte) {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwk := map[string]any{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": kid,
		"n":   base64.RawURLEncoding.EncodeToString(privateKey.PublicKey.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(privateKey.PublicKey.E)).Bytes()),
	}

	data, err := json.Marshal(map[string]any{
		"keys": []map[string]any{jwk},
	})
	require.NoError(t, err)

	return privateKey, data
}

func newJWKSServer(t *testing.T, jwks []byte) *jwksServer {
	t.Helper()

	s := &jwksServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != jwksPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(jwks)
	}))
	t.Cleanup(s.Close)
	return s
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return signed
}

func basicHeader(userpass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(userpass))
}

func hashForTest(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func setupUsers(t *testing.T) (auth.Users, *bun.DB) {
	t.Helper()

	ctx := context.Background()
	db, err := store.NewDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, store.EnsureSchema(ctx, db))

	return auth.NewUsersRepository(db), db
}

func seedUser(t *testing.T, db *bun.DB, username, email, passwordHash string) *auth.User {
	t.Helper()

	user := &auth.User{
		ID:           uuid.New(),
		Role:         auth.RoleMember,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

// recordingSession collects MarkAuthenticated calls
type recordingSession struct {
	users []*auth.User
	err   error
}

func (s *recordingSession) MarkAuthenticated(_ context.Context, user *auth.User) error {
	if s.err != nil {
		return s.err
	}
	s.users = append(s.users, user)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
