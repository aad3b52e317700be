// Command dashd is a reference dashboard server wired end to end: sqlite
// directory, migrations, sign-in gate, guarded routes, and the admin
// directory API. It is a development harness, not a production deployment.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-access"
	"github.com/goliatone/go-access/provider/github"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *gconfig.Container[*AppConfig]
	bunDB  *bun.DB
	repo   access.RepositoryManager
	guard  *access.HTTPGuard
	github *github.Client
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *AppConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("dashd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&AppConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAccess(ctx, app); err != nil {
		panic(err)
	}

	Routes(app)

	app.srv.Serve(app.Config().Server.GetAddress())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	pcfg := app.Config().GetPersistence()

	db, err := sql.Open(sqliteshim.ShimName, pcfg.GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*access.Account)(nil))

	client, err := persistence.New(pcfg, db, sqlitedialect.New())
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(access.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = access.NewRepositoryManager(client.DB())

	return app.repo.Validate()
}

func WithHTTPServer(_ context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv
	return nil
}

func WithAccess(_ context.Context, app *App) error {
	acfg := app.Config().GetAccess().ToAccessConfig()

	directory := app.repo.Accounts()

	gate := access.NewSignInGate(directory, acfg).
		WithLogger(app.GetLogger("access:gate"))
	enricher := access.NewSessionEnricher(directory, acfg).
		WithLogger(app.GetLogger("access:claims"))
	tokens := access.NewTokenService(acfg, app.GetLogger("access:token"))

	guard, err := access.NewHTTPGuard(gate, enricher, tokens, acfg)
	if err != nil {
		return err
	}
	guard.WithLogger(app.GetLogger("access:http"))

	app.guard = guard
	app.github = github.New(github.Config{})

	return nil
}

func Routes(app *App) {
	r := app.srv.Router()
	acfg := app.Config().GetAccess().ToAccessConfig()

	r.Use(app.guard.Middleware())

	r.Get("/", HomePage(app))
	r.Get("/signin", SignInPage(app))
	r.Post("/signin", SignIn(app))
	r.Post("/signout", func(ctx router.Context) error {
		return app.guard.SignOut(ctx)
	})

	r.Get("/unauthorized", StaticPage("Unauthorized",
		"You do not have access to that page."))
	r.Get("/access-pending", StaticPage("Access Pending",
		"Your account has not been activated yet. Ask an administrator to invite your handle."))

	r.Get("/dashboard", Dashboard(app))
	r.Get("/admin", AdminHome(app))

	directoryAPI := access.NewDirectoryController(app.repo, acfg,
		access.WithControllerLogger(app.GetLogger("access:dir")))
	access.RegisterDirectoryRoutes(r.Group("/admin/api"), directoryAPI)
}

// SignInPayload is the development sign-in body: either a raw handle for
// local testing or a GitHub access token for the real profile round-trip.
type SignInPayload struct {
	Handle      string `form:"handle" json:"handle"`
	GithubToken string `form:"github_token" json:"github_token"`
}

func HomePage(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		return ctx.Status(http.StatusOK).SendString(
			`<h1>Dashboard</h1><a href="/dashboard">Dashboard</a> | <a href="/admin">Admin</a> | <a href="/signin">Sign In</a>`)
	}
}

func SignInPage(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		return ctx.Status(http.StatusOK).SendString(
			`<h1>Sign In</h1>
<form method="post" action="/signin">
  <input name="handle" placeholder="handle (dev mode)">
  <input name="github_token" placeholder="github token (optional)">
  <button type="submit">Sign In</button>
</form>`)
	}
}

func SignIn(app *App) router.HandlerFunc {
	logger := app.GetLogger("signin")

	return func(ctx router.Context) error {
		payload := new(SignInPayload)
		if err := ctx.Bind(payload); err != nil {
			return ctx.Status(http.StatusBadRequest).SendString("failed to parse sign-in request")
		}

		profile, credential, err := resolveProfile(ctx.Context(), app, payload)
		if err != nil {
			logger.Error("provider profile fetch failed", "error", err)
			return ctx.Status(http.StatusBadGateway).SendString("provider unavailable")
		}

		return app.guard.SignIn(ctx, profile, credential)
	}
}

// resolveProfile prefers the real provider round-trip; the bare handle path
// exists so the flow can be exercised without GitHub credentials.
func resolveProfile(ctx context.Context, app *App, payload *SignInPayload) (*access.Profile, string, error) {
	if payload.GithubToken != "" {
		profile, err := app.github.FetchProfile(ctx, payload.GithubToken)
		return profile, payload.GithubToken, err
	}
	return &access.Profile{Login: payload.Handle}, "", nil
}

func Dashboard(app *App) router.HandlerFunc {
	contextKey := app.Config().GetAccess().ToAccessConfig().ContextKey

	return func(ctx router.Context) error {
		claims, ok := access.RouterClaims(ctx, contextKey)
		if !ok {
			return ctx.Status(http.StatusInternalServerError).SendString("missing session claims")
		}

		overlay := access.NewImpersonationOverlay(app.Config().GetAccess().ToAccessConfig())
		role := overlay.EffectiveRole(ctx, claims)

		return ctx.Status(http.StatusOK).SendString(fmt.Sprintf(
			"<h1>Dashboard</h1><p>signed in as %s (%s)</p>", claims.Handle, role))
	}
}

func AdminHome(app *App) router.HandlerFunc {
	return func(ctx router.Context) error {
		return ctx.Status(http.StatusOK).SendString(
			`<h1>Admin</h1><p>Directory API is mounted at /admin/api/accounts</p>`)
	}
}

func StaticPage(title, message string) router.HandlerFunc {
	body := fmt.Sprintf("<h1>%s</h1><p>%s</p>", title, message)
	return func(ctx router.Context) error {
		return ctx.Status(http.StatusOK).SendString(body)
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
