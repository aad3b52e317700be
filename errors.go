package access

import "github.com/goliatone/go-errors"

const (
	TextCodeInvalidIdentity      = "access_invalid_identity"
	TextCodeDirectoryUnavailable = "access_directory_unavailable"
	TextCodeAccountNotFound      = "access_account_not_found"
	TextCodeTokenExpired         = "access_token_expired"
	TextCodeTokenMalformed       = "access_token_malformed"
	TextCodeAdminRequired        = "access_admin_required"
)

// ErrInvalidIdentity is returned when a provider profile lacks a usable
// handle. Sign-in always fails closed on it.
var ErrInvalidIdentity = errors.New("provider profile has no usable handle", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidIdentity).
	WithCode(errors.CodeUnauthorized)

// ErrDirectoryUnavailable is returned when the account directory cannot be
// reached. The sign-in gate fails closed on it for ordinary users; the
// session enricher degrades to non-privileged claims instead.
var ErrDirectoryUnavailable = errors.New("account directory unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeDirectoryUnavailable).
	WithCode(errors.CodeInternal)

// ErrAccountNotFound means the handle has no directory row. It is treated as
// "not activated", not as a system fault.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned when a session token is past its expiry.
var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a session token cannot be parsed.
var ErrTokenMalformed = errors.New("session token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrAdminRequired is returned when a non-admin attempts an admin-only
// operation, e.g. enabling the impersonation overlay.
var ErrAdminRequired = errors.New("admin role required", errors.CategoryAuthz).
	WithTextCode(TextCodeAdminRequired).
	WithCode(errors.CodeForbidden)

// IsNotFound reports whether err represents a missing directory row.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAccountNotFound) || errors.IsNotFound(err)
}

// IsDirectoryUnavailable reports whether err represents a directory outage
// rather than a missing row.
func IsDirectoryUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDirectoryUnavailable) {
		return true
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == TextCodeDirectoryUnavailable
	}
	return false
}

// wrapDirectoryErr tags a storage failure as a directory outage while
// preserving the source error for logs.
func wrapDirectoryErr(err error) error {
	return errors.Wrap(err, errors.CategoryOperation, ErrDirectoryUnavailable.Message).
		WithTextCode(TextCodeDirectoryUnavailable).
		WithCode(errors.CodeInternal)
}
