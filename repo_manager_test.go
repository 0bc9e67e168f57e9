package auth_test

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/goliatone/go-auth-resolver"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestRepositoryManagerLoginRecorder(t *testing.T) {
	_, db := setupUsers(t)
	alice := seedUser(t, db, "alice", "alice@example.com", "")

	manager := auth.NewRepositoryManager(db)
	require.NoError(t, manager.Validate())

	cfg := auth.Options{
		ReverseProxyLogin:  true,
		ReverseProxyHeader: proxyHeader,
	}
	resolver := auth.NewResolver(manager.Users(), cfg).WithLogger(nopLogger{})

	headers := http.Header{}
	headers.Set(proxyHeader, "alice")

	ctx := context.Background()
	user, err := resolver.Resolve(ctx, headers, manager.LoginRecorder())
	require.NoError(t, err)
	require.NotNil(t, user)

	reloaded, err := manager.Users().FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LoggedInAt)
}

func TestRepositoryManagerRunInTx(t *testing.T) {
	_, db := setupUsers(t)
	manager := auth.NewRepositoryManager(db)

	err := manager.RunInTx(context.Background(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&auth.User{
			ID:       uuid.New(),
			Role:     auth.RoleGuest,
			Username: "carol",
			Email:    "carol@example.com",
		}).Exec(ctx)
		return err
	})
	require.NoError(t, err)

	user, err := manager.Users().FindByName(context.Background(), "CAROL")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleGuest, user.Role)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err = manager.RunInTx(cancelled, nil, func(context.Context, bun.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRepositoryManagerValidate(t *testing.T) {
	assert.Error(t, auth.NewRepositoryManager(nil).Validate())
}
