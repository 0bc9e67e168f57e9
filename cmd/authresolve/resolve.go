package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-auth-resolver"
	"github.com/goliatone/go-auth-resolver/activitymap"
	"github.com/goliatone/go-auth-resolver/internal/store"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
)

var (
	headerFlags []string
	basicFlag   string
	dsnFlag     string
	recordLogin bool
	showEvents  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a user from request headers",
	Example: `  authresolve resolve --header "X-Forwarded-User: alice"
  authresolve resolve --basic alice:secret --dsn ./users.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		headers, err := buildHeaders(headerFlags, basicFlag)
		if err != nil {
			return err
		}

		dsn := dsnFlag
		if dsn == "" {
			dsn = opts.DatabaseDSN
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		db, err := store.NewDB(ctx, dsn)
		if err != nil {
			return err
		}
		defer db.Close()

		manager := auth.NewRepositoryManager(db)
		manager.MustValidate()

		resolver := auth.NewResolver(manager.Users(), opts).
			WithLogger(auth.NewZapLogger(logger))
		defer resolver.Close()

		if showEvents {
			resolver.WithActivitySink(activitymap.Sink(func(n activitymap.Normalized) error {
				_, err := fmt.Fprintln(cmd.ErrOrStderr(), print.MaybePrettyJSON(n))
				return err
			}))
		}

		var session auth.SessionMarker
		if recordLogin {
			session = manager.LoginRecorder()
		}

		res, err := resolver.ResolveDetailed(ctx, headers, session)
		if err != nil {
			return err
		}

		if !res.Authenticated() {
			fmt.Fprintln(cmd.OutOrStdout(), "unauthenticated")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(map[string]any{
			"strategy": res.Strategy,
			"user":     res.User,
		}))
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringArrayVar(&headerFlags, "header", nil, `Request header as "Name: value" (repeatable)`)
	resolveCmd.Flags().StringVar(&basicFlag, "basic", "", "username:password sent as HTTP basic credentials")
	resolveCmd.Flags().StringVar(&dsnFlag, "dsn", "", "Database DSN (env: AUTH_DATABASE_DSN)")
	resolveCmd.Flags().BoolVar(&showEvents, "events", false, "Print activity events to stderr")
	resolveCmd.Flags().BoolVar(&recordLogin, "record-login", false, "Stamp loggedin_at when a proxy strategy matches")
}

func buildHeaders(raw []string, basic string) (http.Header, error) {
	headers := http.Header{}
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Name: value\"", h)
		}
		headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if basic != "" {
		headers.Set(auth.HeaderAuthorization, "Basic "+base64.StdEncoding.EncodeToString([]byte(basic)))
	}

	return headers, nil
}
