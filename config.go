package access

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// HandleSet is an immutable set of normalized handles.
type HandleSet map[string]struct{}

// NewHandleSet normalizes and collects handles. Empty entries are dropped.
func NewHandleSet(handles ...string) HandleSet {
	set := make(HandleSet, len(handles))
	for _, h := range handles {
		if n := NormalizeHandle(h); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports membership for any casing of handle.
func (s HandleSet) Contains(handle string) bool {
	_, ok := s[NormalizeHandle(handle)]
	return ok
}

// Config is the single immutable configuration value consumed by the sign-in
// gate, the session enricher, and the route guard. Both the gate and the
// enricher read the same super-admin set so they can never disagree. Build it
// once at startup and treat it as read-only afterwards.
type Config struct {
	// SigningKey signs session tokens (HS256).
	SigningKey string
	// TokenExpiration is the token TTL in hours. It bounds claim staleness:
	// claims are recomputed from the directory at least once per expiry.
	TokenExpiration int
	Issuer          string
	Audience        []string

	// SuperAdmins is the break-glass handle list. It is configuration, not
	// directory data: these handles receive admin claims unconditionally and
	// are admitted even during a directory outage.
	SuperAdmins []string

	// AdminPrefixes and ProtectedPrefixes are disjoint route prefix sets.
	AdminPrefixes     []string
	ProtectedPrefixes []string

	// Redirect destinations. Authorization failures always resolve to one of
	// these three, never to a raw error page.
	SignInPath    string
	ForbiddenPath string
	PendingPath   string

	// ContextKey names the session cookie and the router locals slot.
	ContextKey string
}

// ConfigDefaults fills zero values with the defaults used by the dashboard.
func ConfigDefaults(cfg Config) Config {
	if cfg.TokenExpiration == 0 {
		cfg.TokenExpiration = 24
	}
	if cfg.SignInPath == "" {
		cfg.SignInPath = "/signin"
	}
	if cfg.ForbiddenPath == "" {
		cfg.ForbiddenPath = "/unauthorized"
	}
	if cfg.PendingPath == "" {
		cfg.PendingPath = "/access-pending"
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "session"
	}
	return cfg
}

// Validate runs validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.TokenExpiration, validation.Min(1)),
		validation.Field(&c.SignInPath, validation.Required),
		validation.Field(&c.ForbiddenPath, validation.Required),
		validation.Field(&c.PendingPath, validation.Required),
		validation.Field(&c.ContextKey, validation.Required),
	)
}

// SuperAdminSet returns the normalized super-admin handle set.
func (c Config) SuperAdminSet() HandleSet {
	return NewHandleSet(c.SuperAdmins...)
}
