package auth

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the bun backed account store. It satisfies UserDirectory and
// UserLoader.
type Users interface {
	repository.Repository[*User]
	UserDirectory
	UserLoader

	FindByNameTx(ctx context.Context, tx bun.IDB, name string) (*User, error)
	FindByNameOrEmailTx(ctx context.Context, tx bun.IDB, query string) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users         = (*users)(nil)
	_ UserDirectory = (*users)(nil)
	_ UserLoader    = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) FindByName(ctx context.Context, name string) (*User, error) {
	return a.FindByNameTx(ctx, a.db, name)
}

func (a *users) FindByNameTx(ctx context.Context, tx bun.IDB, name string) (*User, error) {
	if name == "" {
		return nil, notFound("name", name, nil)
	}

	return a.findOne(ctx, tx, "name", name, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("lower(?TableAlias.username) = lower(?)", name)
	})
}

func (a *users) FindByNameOrEmail(ctx context.Context, query string) (*User, error) {
	return a.FindByNameOrEmailTx(ctx, a.db, query)
}

// FindByNameOrEmailTx matches the username only, unless query looks like an
// address, in which case username OR email match in a single predicate.
func (a *users) FindByNameOrEmailTx(ctx context.Context, tx bun.IDB, query string) (*User, error) {
	if !strings.Contains(query, "@") {
		return a.FindByNameTx(ctx, tx, query)
	}

	return a.findOne(ctx, tx, "name_or_email", query, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("lower(?TableAlias.username) = lower(?)", query).
				WhereOr("lower(?TableAlias.email) = lower(?)", query)
		})
	})
}

// FindByID reloads the user behind an established session
func (a *users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound("id", id.String(), err)
		}
		return nil, err
	}
	return user, nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	if user == nil {
		return nil
	}

	loggedInAt := time.Now()
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("loggedin_at = ?", loggedInAt).
		Where("?TableAlias.id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return err
	}

	user.LoggedInAt = &loggedInAt
	return nil
}

func (a *users) findOne(ctx context.Context, tx bun.IDB, lookup, value string, where func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Apply(where).
		OrderExpr("?TableAlias.created_at ASC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, notFound(lookup, value, err)
		}
		return nil, err
	}

	return record, nil
}

func notFound(lookup, value string, source error) error {
	if source == nil {
		source = repository.NewRecordNotFound()
	}
	return wrapErr(ErrIdentityNotFound, source, map[string]any{
		"lookup": lookup,
		"value":  value,
	})
}
