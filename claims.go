package access

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the typed authorization fields carried in the session token.
// They are a cache of directory state, recomputed by the SessionEnricher on
// every refresh; downstream consumers only ever see this struct, never the
// loose token map. Credential is the opaque provider access token; the core
// never inspects or validates it.
type Claims struct {
	jwt.RegisteredClaims
	Handle     string `json:"handle,omitempty"`
	UserRole   Role   `json:"role,omitempty"`
	Active     bool   `json:"active"`
	ExternalID int64  `json:"ext_id,omitempty"`
	Credential string `json:"credential,omitempty"`
}

// Subject returns the subject claim
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Role returns the global role
func (c *Claims) Role() Role {
	return c.UserRole
}

// IsAdmin reports whether the role claim grants admin. Super-admin handles
// are resolved against configuration, not here; see RouteGuard.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.UserRole == RoleAdmin
}

// IsActive reports the activation claim.
func (c *Claims) IsActive() bool {
	return c != nil && c.Active
}

// HasRole checks if the claims carry a specific role
func (c *Claims) HasRole(role Role) bool {
	return c != nil && c.UserRole == role
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Validate enforces the invariants the enricher guarantees: a normalized
// handle and a known role. It runs once at the enricher boundary so guards
// and controllers can trust the struct without re-checking.
func (c *Claims) Validate() error {
	if c == nil {
		return ErrTokenMalformed
	}
	if c.Handle == "" || c.Handle != NormalizeHandle(c.Handle) {
		return ErrTokenMalformed
	}
	if _, ok := ParseRole(c.UserRole); !ok {
		return ErrTokenMalformed
	}
	return nil
}
