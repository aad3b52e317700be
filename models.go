package access

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the account's global role
type Role = string

const (
	// RoleUser is the default role (view, subject to activation)
	RoleUser Role = "user"
	// RoleAdmin can manage the directory and see admin-only routes
	RoleAdmin Role = "admin"
)

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, role == RoleUser || role == RoleAdmin
}

// Account is the directory record for an external identity. The handle is
// the primary lookup key for every authorization decision and is always
// stored lower-case. `id`, `external_id`, and `created_at` are write-once.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	ExternalID    *int64     `bun:"external_id,unique,nullzero" json:"external_id,omitempty"`
	Handle        string     `bun:"handle,notnull,unique" json:"handle,omitempty"`
	DisplayName   string     `bun:"display_name,nullzero" json:"display_name,omitempty"`
	Email         string     `bun:"email,nullzero" json:"email,omitempty"`
	AvatarRef     string     `bun:"avatar_ref,nullzero" json:"avatar_ref,omitempty"`
	Role          Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	IsActive      bool       `bun:"is_active" json:"is_active"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	LastLoginAt   *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
}

// IsAdmin reports whether the stored role grants admin.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// NormalizeHandle lower-cases and trims a provider login so comparisons and
// storage always agree.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
