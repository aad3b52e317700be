package access

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// rejectedRouteCookie remembers where an unauthenticated request was headed
// so a successful sign-in can land there.
const rejectedRouteCookie = "rejected_route"

// HTTPGuard is the transport glue: it moves the session token through a
// cookie, runs the RouteGuard on every request, and exposes sign-in and
// sign-out handlers for the framework layer to mount.
type HTTPGuard struct {
	gate           *SignInGate
	enricher       *SessionEnricher
	tokens         TokenService
	guard          *RouteGuard
	cfg            Config
	cookieDuration time.Duration
	Logger         Logger
}

// NewHTTPGuard wires the full request path: gate for sign-in, enricher for
// refresh, guard for per-request decisions.
func NewHTTPGuard(gate *SignInGate, enricher *SessionEnricher, tokens TokenService, cfg Config) (*HTTPGuard, error) {
	cfg = ConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid access configuration")
	}

	return &HTTPGuard{
		gate:           gate,
		enricher:       enricher,
		tokens:         tokens,
		guard:          NewRouteGuard(cfg),
		cfg:            cfg,
		cookieDuration: time.Duration(cfg.TokenExpiration) * time.Hour,
		Logger:         defLogger{},
	}, nil
}

func (a *HTTPGuard) WithLogger(logger Logger) *HTTPGuard {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// Middleware guards every request. The token is read from the session
// cookie; an expired token is refreshed in place (claims recomputed from
// the directory) so a role change reaches the user without a new sign-in.
// Unauthorized requests are redirected to one of the three fixed
// destinations, never answered with a raw error.
func (a *HTTPGuard) Middleware() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			claims := a.sessionClaims(ctx)

			switch a.guard.Evaluate(ctx.Path(), claims) {
			case RedirectSignIn:
				a.SetRedirect(ctx)
				return a.redirect(ctx, a.cfg.SignInPath)
			case RedirectForbidden:
				return a.redirect(ctx, a.cfg.ForbiddenPath)
			case RedirectPending:
				return a.redirect(ctx, a.cfg.PendingPath)
			}

			if claims != nil {
				ctx.Locals(a.cfg.ContextKey, claims)
			}
			return ctx.Next()
		}
	}
}

// sessionClaims resolves the request's claims, refreshing the token when the
// cached claims have aged out. Failures yield nil claims; the guard decides
// what that means for the route.
func (a *HTTPGuard) sessionClaims(ctx router.Context) *Claims {
	raw := ctx.Cookies(a.cfg.ContextKey)
	if raw == "" {
		return nil
	}

	claims, err := a.tokens.Validate(raw)
	if err == nil {
		return claims
	}

	if !errors.Is(err, ErrTokenExpired) {
		a.Logger.Info("discarding invalid session token", "error", err)
		a.cookieDel(ctx, a.cfg.ContextKey)
		return nil
	}

	return a.refreshFromStale(ctx, raw)
}

func (a *HTTPGuard) refreshFromStale(ctx router.Context, raw string) *Claims {
	svc, ok := a.tokens.(*TokenServiceImpl)
	if !ok {
		return nil
	}

	stale, err := svc.ValidateIgnoringExpiry(raw)
	if err != nil {
		a.cookieDel(ctx, a.cfg.ContextKey)
		return nil
	}

	claims := a.enricher.Refresh(ctx.Context(), RefreshInput{Prev: stale})

	token, err := a.tokens.Generate(claims)
	if err != nil {
		a.Logger.Error("session refresh failed to sign token", "error", err)
		a.cookieDel(ctx, a.cfg.ContextKey)
		return nil
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return claims
}

// SignIn runs the gate for a provider profile and, when admitted, issues the
// first session token. Denied attempts land on the access-pending page.
func (a *HTTPGuard) SignIn(ctx router.Context, profile *Profile, credential string) error {
	if !a.gate.Admit(ctx.Context(), profile) {
		return a.redirect(ctx, a.cfg.PendingPath)
	}

	claims := a.enricher.Refresh(ctx.Context(), RefreshInput{
		Profile:    profile,
		Credential: credential,
	})

	token, err := a.tokens.Generate(claims)
	if err != nil {
		a.Logger.Error("sign-in failed to sign token", "handle", claims.Handle, "error", err)
		return a.redirect(ctx, a.cfg.SignInPath)
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return a.redirect(ctx, a.GetRedirect(ctx, "/"))
}

// SignOut drops the session and overlay cookies.
func (a *HTTPGuard) SignOut(ctx router.Context) error {
	a.cookieDel(ctx, a.cfg.ContextKey)
	a.cookieDel(ctx, overlayCookie)
	return a.redirect(ctx, a.cfg.SignInPath)
}

// SetRedirect remembers the rejected route for the post-sign-in landing.
func (a *HTTPGuard) SetRedirect(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     rejectedRouteCookie,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetRedirect pops the remembered rejected route, or returns def.
func (a *HTTPGuard) GetRedirect(ctx router.Context, def string) string {
	r := ctx.Cookies(rejectedRouteCookie)
	if r == "" {
		return def
	}
	a.cookieDel(ctx, rejectedRouteCookie)
	return r
}

func (a *HTTPGuard) redirect(ctx router.Context, dest string) error {
	statusCode := http.StatusSeeOther
	if ctx.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return ctx.Redirect(dest, statusCode)
}

func (a *HTTPGuard) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.ContextKey,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *HTTPGuard) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
