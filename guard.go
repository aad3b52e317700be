package access

import "strings"

// Decision is the route guard's verdict for a single request.
type Decision int

const (
	// Allow lets the request through.
	Allow Decision = iota
	// RedirectSignIn sends an unauthenticated request to the sign-in page.
	RedirectSignIn
	// RedirectForbidden sends a non-admin off an admin-only route.
	RedirectForbidden
	// RedirectPending sends a not-yet-activated user to the access-pending page.
	RedirectPending
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectSignIn:
		return "redirect-sign-in"
	case RedirectForbidden:
		return "redirect-forbidden"
	case RedirectPending:
		return "redirect-pending"
	default:
		return "unknown"
	}
}

// RouteGuard is the single per-request authorization filter consumed by
// every protected entry point. It reads only the token claims, performs no
// I/O, and holds no mutable state, so it is safe on every request and on
// any number of concurrent requests, and cannot fail open during a
// directory outage. It is split from the SessionEnricher for exactly that
// reason: the guard must stay cheap and storage-free.
type RouteGuard struct {
	adminPrefixes     []string
	protectedPrefixes []string
	superAdmins       HandleSet
}

// NewRouteGuard builds the guard from the immutable configuration.
func NewRouteGuard(cfg Config) *RouteGuard {
	return &RouteGuard{
		adminPrefixes:     append([]string(nil), cfg.AdminPrefixes...),
		protectedPrefixes: append([]string(nil), cfg.ProtectedPrefixes...),
		superAdmins:       cfg.SuperAdminSet(),
	}
}

// Evaluate applies the decision table top to bottom, first match wins:
//
//	no token + protected path          -> RedirectSignIn
//	admin path + not admin             -> RedirectForbidden
//	protected path + not admin/active  -> RedirectPending
//	otherwise                          -> Allow
//
// "admin" means the role claim is admin or the handle is a configured
// super-admin.
func (g *RouteGuard) Evaluate(path string, claims *Claims) Decision {
	adminPath := hasPrefix(g.adminPrefixes, path)
	protectedPath := adminPath || hasPrefix(g.protectedPrefixes, path)

	if claims == nil {
		if protectedPath {
			return RedirectSignIn
		}
		return Allow
	}

	admin := claims.IsAdmin() || g.superAdmins.Contains(claims.Handle)

	if adminPath && !admin {
		return RedirectForbidden
	}

	if protectedPath && !admin && !claims.IsActive() {
		return RedirectPending
	}

	return Allow
}

func hasPrefix(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}
