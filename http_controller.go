package access

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// RegisterDirectoryRoutes mounts the admin API on a router group. Mount the
// group behind the HTTPGuard middleware with these paths in the admin-only
// prefix set; the controller still re-checks the admin claim as a second line.
func RegisterDirectoryRoutes[T any](app router.Router[T], c *DirectoryController) {
	app.Get("/accounts", c.ListAccounts).SetName("directory.list")
	app.Post("/accounts", c.InviteAccount).SetName("directory.invite")
	app.Patch("/accounts/:handle", c.UpdateAccount).SetName("directory.update")
	app.Delete("/accounts/:handle", c.DeactivateAccount).SetName("directory.deactivate")

	app.Post("/impersonation", c.EnableOverlay).SetName("impersonation.enable")
	app.Delete("/impersonation", c.DisableOverlay).SetName("impersonation.disable")
}

// DirectoryController exposes the administrative directory surface: listing
// accounts, inviting handles, and flipping role/activation state. Mutations
// are immediate with no approval workflow; they reach the affected user at
// their next token refresh.
type DirectoryController struct {
	Logger  Logger
	Repo    RepositoryManager
	Overlay *ImpersonationOverlay
	cfg     Config
}

// DirectoryControllerOption configures the controller.
type DirectoryControllerOption func(*DirectoryController) *DirectoryController

func WithControllerLogger(logger Logger) DirectoryControllerOption {
	return func(c *DirectoryController) *DirectoryController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// NewDirectoryController creates the controller; it panics on missing
// dependencies since there is no sane fallback.
func NewDirectoryController(repo RepositoryManager, cfg Config, opts ...DirectoryControllerOption) *DirectoryController {
	c := &DirectoryController{
		Logger:  defLogger{},
		Repo:    repo,
		Overlay: NewImpersonationOverlay(cfg),
		cfg:     ConfigDefaults(cfg),
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in directory controller...")
	}

	return c
}

func (c *DirectoryController) requireAdmin(ctx router.Context) (*Claims, bool) {
	claims, ok := RouterClaims(ctx, c.cfg.ContextKey)
	if !ok {
		return nil, false
	}
	if claims.IsAdmin() || c.cfg.SuperAdminSet().Contains(claims.Handle) {
		return claims, true
	}
	return nil, false
}

// ListAccounts returns every directory row, newest first.
func (c *DirectoryController) ListAccounts(ctx router.Context) error {
	if _, ok := c.requireAdmin(ctx); !ok {
		return c.forbidden(ctx)
	}

	records, err := c.Repo.Accounts().ListAccounts(ctx.Context())
	if err != nil {
		c.Logger.Error("list accounts error", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": ErrDirectoryUnavailable.Message,
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"accounts": records,
	})
}

// InvitePayload is the invitation request body.
type InvitePayload struct {
	Handle    string `form:"handle" json:"handle"`
	Role      Role   `form:"role" json:"role"`
	ForceRole bool   `form:"force_role" json:"force_role"`
}

// Validate will run validation rules
func (p InvitePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Handle, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.Role, validation.In(RoleUser, RoleAdmin)),
	)
}

// InviteAccount inserts a handle as active or re-activates it.
func (c *DirectoryController) InviteAccount(ctx router.Context) error {
	if _, ok := c.requireAdmin(ctx); !ok {
		return c.forbidden(ctx)
	}

	payload := new(InvitePayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	var opts []ActivateOption
	if payload.ForceRole {
		opts = append(opts, WithForcedRole())
	}

	record, err := c.Repo.Accounts().AddOrActivate(ctx.Context(), payload.Handle, payload.Role, opts...)
	if err != nil {
		c.Logger.Error("invite account error", "handle", payload.Handle, "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": ErrDirectoryUnavailable.Message,
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"account": record,
	})
}

// UpdatePayload flips role and/or activation. Nil fields are untouched.
type UpdatePayload struct {
	Role     *Role `form:"role" json:"role"`
	IsActive *bool `form:"is_active" json:"is_active"`
}

// Validate will run validation rules
func (p UpdatePayload) Validate() error {
	if p.Role == nil && p.IsActive == nil {
		return errors.New("role or is_active required", errors.CategoryBadInput)
	}
	if p.Role != nil {
		return validation.Validate(*p.Role, validation.In(RoleUser, RoleAdmin))
	}
	return nil
}

// UpdateAccount applies role/activation mutations to one handle.
func (c *DirectoryController) UpdateAccount(ctx router.Context) error {
	if _, ok := c.requireAdmin(ctx); !ok {
		return c.forbidden(ctx)
	}

	handle := ctx.Param("handle")

	payload := new(UpdatePayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, "role or is_active required")
	}

	var record *Account
	var err error

	if payload.Role != nil {
		record, err = c.Repo.Accounts().SetRole(ctx.Context(), handle, *payload.Role)
		if err != nil {
			return c.mutationError(ctx, handle, err)
		}
	}

	if payload.IsActive != nil {
		record, err = c.Repo.Accounts().SetActive(ctx.Context(), handle, *payload.IsActive)
		if err != nil {
			return c.mutationError(ctx, handle, err)
		}
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"account": record,
	})
}

// DeactivateAccount is the administrative deactivation path: it flips
// is_active off but never physically deletes the row.
func (c *DirectoryController) DeactivateAccount(ctx router.Context) error {
	if _, ok := c.requireAdmin(ctx); !ok {
		return c.forbidden(ctx)
	}

	handle := ctx.Param("handle")

	record, err := c.Repo.Accounts().SetActive(ctx.Context(), handle, false)
	if err != nil {
		return c.mutationError(ctx, handle, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"account": record,
	})
}

// EnableOverlay switches an admin session into the reduced view.
func (c *DirectoryController) EnableOverlay(ctx router.Context) error {
	claims, ok := c.requireAdmin(ctx)
	if !ok {
		return c.forbidden(ctx)
	}

	if err := c.Overlay.Enable(ctx, claims); err != nil {
		return c.forbidden(ctx)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"view_as": "user",
	})
}

// DisableOverlay exits the reduced view; no re-authentication needed.
func (c *DirectoryController) DisableOverlay(ctx router.Context) error {
	c.Overlay.Disable(ctx)
	return ctx.JSON(router.StatusOK, map[string]string{
		"view_as": "self",
	})
}

func (c *DirectoryController) forbidden(ctx router.Context) error {
	return ctx.JSON(router.StatusForbidden, map[string]string{
		"error": ErrAdminRequired.Message,
	})
}

func (c *DirectoryController) badRequest(ctx router.Context, msg string) error {
	return ctx.JSON(router.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func (c *DirectoryController) mutationError(ctx router.Context, handle string, err error) error {
	if IsNotFound(err) {
		return ctx.JSON(router.StatusNotFound, map[string]string{
			"error": ErrAccountNotFound.Message,
		})
	}

	c.Logger.Error("account mutation error", "handle", handle, "error", err)
	return ctx.JSON(router.StatusInternalServerError, map[string]string{
		"error": ErrDirectoryUnavailable.Message,
	})
}
