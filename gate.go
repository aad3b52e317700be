package access

import "context"

// SignInGate decides, once per authentication attempt, whether a resolved
// identity may establish a session. The output is a plain admit/deny; there
// are no partial states. Callers that receive false must not create a
// session.
type SignInGate struct {
	directory   Accounts
	superAdmins HandleSet
	logger      Logger
}

// NewSignInGate wires the gate against the directory and configuration.
func NewSignInGate(directory Accounts, cfg Config) *SignInGate {
	return &SignInGate{
		directory:   directory,
		superAdmins: cfg.SuperAdminSet(),
		logger:      defLogger{},
	}
}

func (g *SignInGate) WithLogger(logger Logger) *SignInGate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Admit evaluates the sign-in state machine:
//
//  1. Resolve the identity; fail closed if the profile has no usable handle.
//  2. Super-admin handles get a best-effort profile sync and are admitted
//     even if the directory write fails. This is the break-glass path: the
//     bootstrap account must never be locked out by a directory outage, and
//     its status is config-driven so the directory cannot revoke it.
//  3. Everyone else needs an existing, active directory row. The profile
//     sync is then a hard dependency: a directory failure denies sign-in.
func (g *SignInGate) Admit(ctx context.Context, profile *Profile) bool {
	identity, err := ResolveIdentity(profile)
	if err != nil {
		g.logger.Info("sign-in denied: unresolvable identity", "error", err)
		return false
	}

	if g.superAdmins.Contains(identity.Handle) {
		if _, err := g.directory.UpsertFromProfile(ctx, identity, profile); err != nil {
			g.logger.Warn("super-admin profile sync skipped",
				"handle", identity.Handle,
				"error", err,
			)
		}
		return true
	}

	account, err := g.directory.GetByHandle(ctx, identity.Handle)
	if err != nil {
		if IsNotFound(err) {
			g.logger.Info("sign-in denied: no directory row", "handle", identity.Handle)
		} else {
			g.logger.Error("sign-in denied: directory unavailable",
				"handle", identity.Handle,
				"error", err,
			)
		}
		return false
	}

	if !account.IsActive {
		g.logger.Info("sign-in denied: account inactive", "handle", identity.Handle)
		return false
	}

	if _, err := g.directory.UpsertFromProfile(ctx, identity, profile); err != nil {
		g.logger.Error("sign-in denied: profile sync failed",
			"handle", identity.Handle,
			"error", err,
		)
		return false
	}

	return true
}
