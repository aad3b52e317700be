package access

import (
	"time"

	"github.com/goliatone/go-router"
)

// overlayCookie holds the client-local "view as default user" flag. It lives
// next to the session cookie but is never part of the token, so toggling it
// cannot change stored or token-carried privileges.
const overlayCookie = "view_as_user"

// ImpersonationOverlay is an admin-only, presentation-only reduced view.
// Enabling it hides admin-only widgets and re-requests data as a plain
// user would see it; the session token's role claim is untouched, so
// exiting the overlay restores the original rendering with no
// re-authentication.
type ImpersonationOverlay struct {
	superAdmins HandleSet
}

// NewImpersonationOverlay builds the overlay helper from configuration.
func NewImpersonationOverlay(cfg Config) *ImpersonationOverlay {
	return &ImpersonationOverlay{
		superAdmins: cfg.SuperAdminSet(),
	}
}

func (o *ImpersonationOverlay) isAdmin(claims *Claims) bool {
	if claims == nil {
		return false
	}
	return claims.IsAdmin() || o.superAdmins.Contains(claims.Handle)
}

// Enable turns the overlay on for an authenticated admin. Non-admins get
// ErrAdminRequired; there is nothing for them to reduce.
func (o *ImpersonationOverlay) Enable(ctx router.Context, claims *Claims) error {
	if !o.isAdmin(claims) {
		return ErrAdminRequired
	}

	ctx.Cookie(&router.Cookie{
		Name:     overlayCookie,
		Value:    "1",
		HTTPOnly: false,
		Secure:   true,
		SameSite: "Lax",
	})
	return nil
}

// Disable turns the overlay off. Always allowed; a stale cookie on a
// non-admin session is just removed.
func (o *ImpersonationOverlay) Disable(ctx router.Context) {
	ctx.Cookie(&router.Cookie{
		Name:     overlayCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: false,
		Secure:   true,
		SameSite: "Lax",
	})
}

// Enabled reports whether the overlay is active for this request. Only an
// admin session can activate it; the cookie alone is not enough.
func (o *ImpersonationOverlay) Enabled(ctx router.Context, claims *Claims) bool {
	return o.isAdmin(claims) && ctx.Cookies(overlayCookie) == "1"
}

// EffectiveRole is what the rendering layer should use: the real role claim,
// reduced to user while the overlay is active. The claims themselves are
// never modified.
func (o *ImpersonationOverlay) EffectiveRole(ctx router.Context, claims *Claims) Role {
	if claims == nil {
		return RoleUser
	}
	if o.Enabled(ctx, claims) {
		return RoleUser
	}
	return claims.UserRole
}
