package access

import "context"

// RefreshInput carries whatever the current token cycle has available. Any
// field may be empty; the enricher falls back through its precedence rules.
type RefreshInput struct {
	// Profile is the provider profile, when the framework has one in this
	// call (initial issuance, or a provider round-trip).
	Profile *Profile
	// Prev is the previous token's claims, when a token was presented.
	Prev *Claims
	// Credential is a fresh opaque provider access token, if one was
	// obtained in this call.
	Credential string
}

// SessionEnricher recomputes authorization claims on initial token issuance
// and on every refresh. It only ever reads the directory; writes belong to
// the SignInGate. A directory failure degrades the claims to non-privileged
// rather than failing the request, which keeps refresh safe to run on every
// cycle.
type SessionEnricher struct {
	directory   Accounts
	superAdmins HandleSet
	logger      Logger
}

// NewSessionEnricher wires the enricher against the directory and the same
// super-admin set the gate uses.
func NewSessionEnricher(directory Accounts, cfg Config) *SessionEnricher {
	return &SessionEnricher{
		directory:   directory,
		superAdmins: cfg.SuperAdminSet(),
		logger:      defLogger{},
	}
}

func (e *SessionEnricher) WithLogger(logger Logger) *SessionEnricher {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Refresh derives the claims for the next token cycle.
//
// Handle precedence: profile in this call, else the previously cached
// handle, else a reverse lookup by external id.
//
// Claim precedence: a super-admin handle gets role=admin, active=true
// unconditionally, overriding any directory value. Everyone else gets the
// directory row's role and activation state, or role=user, active=false
// when the row is missing or the directory call fails.
//
// The returned claims are never older than one refresh cycle, so a role
// change made by an administrator reaches the affected user at their next
// refresh without a new sign-in.
func (e *SessionEnricher) Refresh(ctx context.Context, in RefreshInput) *Claims {
	claims := &Claims{
		Handle:     e.resolveHandle(ctx, in),
		UserRole:   RoleUser,
		Active:     false,
		ExternalID: resolveExternalID(in),
		Credential: resolveCredential(in),
	}

	if claims.Handle == "" {
		return claims
	}

	if e.superAdmins.Contains(claims.Handle) {
		claims.UserRole = RoleAdmin
		claims.Active = true
		return claims
	}

	account, err := e.directory.GetByHandle(ctx, claims.Handle)
	if err != nil {
		if !IsNotFound(err) {
			e.logger.Warn("refresh degraded: directory unavailable",
				"handle", claims.Handle,
				"error", err,
			)
		}
		return claims
	}

	claims.UserRole = account.Role
	claims.Active = account.IsActive
	if account.ExternalID != nil && claims.ExternalID == 0 {
		claims.ExternalID = *account.ExternalID
	}

	return claims
}

func (e *SessionEnricher) resolveHandle(ctx context.Context, in RefreshInput) string {
	if in.Profile != nil {
		if identity, err := ResolveIdentity(in.Profile); err == nil {
			return identity.Handle
		}
	}

	if in.Prev != nil && in.Prev.Handle != "" {
		return NormalizeHandle(in.Prev.Handle)
	}

	if in.Prev != nil && in.Prev.ExternalID != 0 {
		account, err := e.directory.GetByExternalID(ctx, in.Prev.ExternalID)
		if err == nil {
			return account.Handle
		}
		if !IsNotFound(err) {
			e.logger.Warn("refresh reverse lookup failed",
				"external_id", in.Prev.ExternalID,
				"error", err,
			)
		}
	}

	return ""
}

func resolveExternalID(in RefreshInput) int64 {
	if in.Profile != nil && in.Profile.ExternalID != 0 {
		return in.Profile.ExternalID
	}
	if in.Prev != nil {
		return in.Prev.ExternalID
	}
	return 0
}

func resolveCredential(in RefreshInput) string {
	if in.Credential != "" {
		return in.Credential
	}
	if in.Prev != nil {
		return in.Prev.Credential
	}
	return ""
}
