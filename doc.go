// Package access maps external OAuth identities onto an internal account
// directory and keeps authorization decisions consistent as roles change.
//
// The flow is split into small, independently testable pieces:
//   - ResolveIdentity normalizes a provider profile into a canonical handle.
//   - SignInGate decides, once per authentication attempt, whether a resolved
//     identity may establish a session. It consults the account directory and
//     fails closed, except for the configured super-admin handles which are
//     admitted even during a directory outage (break-glass bootstrap).
//   - SessionEnricher recomputes the token claims on every refresh cycle by
//     re-reading the directory, so an administrative role change is visible
//     to the affected user within one refresh, without a new sign-in.
//   - RouteGuard is a pure per-request filter over the token claims alone; it
//     performs no I/O and cannot fail open on a directory outage.
//   - ImpersonationOverlay gives admins a reduced "view as user" rendering
//     mode that never touches stored state or the token's role claim.
//
// The directory is the source of truth for role and activation state; the
// session token is a cache of it with a bounded staleness window of one
// refresh cycle.
package access
