package access

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpsertFromProfileSQL keeps sign-in writes to a single statement so repeated
// identical calls are idempotent and never race across rows. Profile fields
// only ever fill gaps: a present value is never overwritten with null, and
// external_id is write-once.
var UpsertFromProfileSQL = `INSERT INTO "accounts"
	("id", "external_id", "handle", "display_name", "email", "avatar_ref", "user_role", "is_active", "last_login_at")
VALUES
	(?, NULLIF(?, 0), ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), 'user', FALSE, ?)
ON CONFLICT ("handle") DO UPDATE SET
	"external_id"   = COALESCE("accounts"."external_id", EXCLUDED."external_id"),
	"display_name"  = COALESCE(EXCLUDED."display_name", "accounts"."display_name"),
	"email"         = COALESCE(EXCLUDED."email", "accounts"."email"),
	"avatar_ref"    = COALESCE(EXCLUDED."avatar_ref", "accounts"."avatar_ref"),
	"last_login_at" = EXCLUDED."last_login_at"
RETURNING *;`

// AddOrActivateSQL inserts an invited handle as active, or re-activates an
// existing one. An existing admin keeps its role unless the caller forces
// the downgrade.
var AddOrActivateSQL = `INSERT INTO "accounts"
	("id", "handle", "user_role", "is_active")
VALUES
	(?, ?, ?, TRUE)
ON CONFLICT ("handle") DO UPDATE SET
	"is_active" = TRUE,
	"user_role" = CASE
		WHEN "accounts"."user_role" = 'admin' AND NOT ? THEN "accounts"."user_role"
		ELSE EXCLUDED."user_role"
	END
RETURNING *;`

// Accounts is the account directory. Every operation targets exactly one row
// by unique key, last write wins; no operation reads one row to write another,
// so no explicit locking or multi-row transactions are needed.
type Accounts interface {
	repository.Repository[*Account]

	GetByHandle(ctx context.Context, handle string) (*Account, error)
	GetByHandleTx(ctx context.Context, tx bun.IDB, handle string) (*Account, error)
	GetByExternalID(ctx context.Context, externalID int64) (*Account, error)
	GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID int64) (*Account, error)

	UpsertFromProfile(ctx context.Context, identity Identity, profile *Profile) (*Account, error)
	UpsertFromProfileTx(ctx context.Context, tx bun.IDB, identity Identity, profile *Profile) (*Account, error)

	AddOrActivate(ctx context.Context, handle string, role Role, opts ...ActivateOption) (*Account, error)
	AddOrActivateTx(ctx context.Context, tx bun.IDB, handle string, role Role, opts ...ActivateOption) (*Account, error)

	SetRole(ctx context.Context, handle string, role Role) (*Account, error)
	SetRoleTx(ctx context.Context, tx bun.IDB, handle string, role Role) (*Account, error)
	SetActive(ctx context.Context, handle string, active bool) (*Account, error)
	SetActiveTx(ctx context.Context, tx bun.IDB, handle string, active bool) (*Account, error)

	ListAccounts(ctx context.Context) ([]*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

// NewAccountsRepository builds the bun-backed directory.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "handle"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByHandle(ctx context.Context, handle string) (*Account, error) {
	return a.GetByHandleTx(ctx, a.db, handle)
}

func (a *accounts) GetByHandleTx(ctx context.Context, tx bun.IDB, handle string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.handle = ?", NormalizeHandle(handle)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"handle": NormalizeHandle(handle)})
		}
		return nil, wrapDirectoryErr(err)
	}

	return record, nil
}

func (a *accounts) GetByExternalID(ctx context.Context, externalID int64) (*Account, error) {
	return a.GetByExternalIDTx(ctx, a.db, externalID)
}

func (a *accounts) GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID int64) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.external_id = ?", externalID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"external_id": externalID})
		}
		return nil, wrapDirectoryErr(err)
	}

	return record, nil
}

func (a *accounts) UpsertFromProfile(ctx context.Context, identity Identity, profile *Profile) (*Account, error) {
	return a.UpsertFromProfileTx(ctx, a.db, identity, profile)
}

func (a *accounts) UpsertFromProfileTx(ctx context.Context, tx bun.IDB, identity Identity, profile *Profile) (*Account, error) {
	if profile == nil {
		profile = &Profile{}
	}

	record := &Account{}
	err := tx.NewRaw(
		UpsertFromProfileSQL,
		uuid.New(),
		identity.ExternalID,
		identity.Handle,
		profile.DisplayName,
		profile.Email,
		profile.AvatarURL,
		time.Now(),
	).Scan(ctx, record)

	if err != nil {
		return nil, wrapDirectoryErr(err)
	}

	return record, nil
}

// ActivateOption tweaks AddOrActivate behavior.
type ActivateOption func(*activateConfig)

type activateConfig struct {
	forceRole bool
}

// WithForcedRole makes AddOrActivate apply the requested role even when it
// downgrades an existing admin.
func WithForcedRole() ActivateOption {
	return func(c *activateConfig) {
		c.forceRole = true
	}
}

func (a *accounts) AddOrActivate(ctx context.Context, handle string, role Role, opts ...ActivateOption) (*Account, error) {
	return a.AddOrActivateTx(ctx, a.db, handle, role, opts...)
}

func (a *accounts) AddOrActivateTx(ctx context.Context, tx bun.IDB, handle string, role Role, opts ...ActivateOption) (*Account, error) {
	cfg := activateConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if role == "" {
		role = RoleUser
	}

	record := &Account{}
	err := tx.NewRaw(
		AddOrActivateSQL,
		uuid.New(),
		NormalizeHandle(handle),
		role,
		cfg.forceRole,
	).Scan(ctx, record)

	if err != nil {
		return nil, wrapDirectoryErr(err)
	}

	return record, nil
}

func (a *accounts) SetRole(ctx context.Context, handle string, role Role) (*Account, error) {
	return a.SetRoleTx(ctx, a.db, handle, role)
}

func (a *accounts) SetRoleTx(ctx context.Context, tx bun.IDB, handle string, role Role) (*Account, error) {
	h := NormalizeHandle(handle)

	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("user_role = ?", role).
		Where("?TableAlias.handle = ?", h).
		Exec(ctx)

	if err != nil {
		return nil, wrapDirectoryErr(err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"handle": h})
	}

	return a.GetByHandleTx(ctx, tx, h)
}

func (a *accounts) SetActive(ctx context.Context, handle string, active bool) (*Account, error) {
	return a.SetActiveTx(ctx, a.db, handle, active)
}

func (a *accounts) SetActiveTx(ctx context.Context, tx bun.IDB, handle string, active bool) (*Account, error) {
	h := NormalizeHandle(handle)

	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("is_active = ?", active).
		Where("?TableAlias.handle = ?", h).
		Exec(ctx)

	if err != nil {
		return nil, wrapDirectoryErr(err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"handle": h})
	}

	return a.GetByHandleTx(ctx, tx, h)
}

func (a *accounts) ListAccounts(ctx context.Context) ([]*Account, error) {
	var records []*Account
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, wrapDirectoryErr(err)
	}

	return records, nil
}
