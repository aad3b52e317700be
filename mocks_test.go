package access_test

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-access"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockAccounts implements access.Accounts. The embedded repository interface
// is left nil; generic CRUD methods panic if a test reaches them unmocked.
type MockAccounts struct {
	mock.Mock
	repository.Repository[*access.Account]
}

func (m *MockAccounts) GetByHandle(ctx context.Context, handle string) (*access.Account, error) {
	args := m.Called(ctx, handle)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) GetByHandleTx(ctx context.Context, tx bun.IDB, handle string) (*access.Account, error) {
	args := m.Called(ctx, tx, handle)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) GetByExternalID(ctx context.Context, externalID int64) (*access.Account, error) {
	args := m.Called(ctx, externalID)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID int64) (*access.Account, error) {
	args := m.Called(ctx, tx, externalID)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) UpsertFromProfile(ctx context.Context, identity access.Identity, profile *access.Profile) (*access.Account, error) {
	args := m.Called(ctx, identity, profile)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) UpsertFromProfileTx(ctx context.Context, tx bun.IDB, identity access.Identity, profile *access.Profile) (*access.Account, error) {
	args := m.Called(ctx, tx, identity, profile)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) AddOrActivate(ctx context.Context, handle string, role access.Role, opts ...access.ActivateOption) (*access.Account, error) {
	args := m.Called(ctx, handle, role, opts)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) AddOrActivateTx(ctx context.Context, tx bun.IDB, handle string, role access.Role, opts ...access.ActivateOption) (*access.Account, error) {
	args := m.Called(ctx, tx, handle, role, opts)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) SetRole(ctx context.Context, handle string, role access.Role) (*access.Account, error) {
	args := m.Called(ctx, handle, role)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) SetRoleTx(ctx context.Context, tx bun.IDB, handle string, role access.Role) (*access.Account, error) {
	args := m.Called(ctx, tx, handle, role)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) SetActive(ctx context.Context, handle string, active bool) (*access.Account, error) {
	args := m.Called(ctx, handle, active)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) SetActiveTx(ctx context.Context, tx bun.IDB, handle string, active bool) (*access.Account, error) {
	args := m.Called(ctx, tx, handle, active)
	record, _ := args.Get(0).(*access.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) ListAccounts(ctx context.Context) ([]*access.Account, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]*access.Account)
	return records, args.Error(1)
}

// MockRepositoryManager implements access.RepositoryManager around a
// MockAccounts.
type MockRepositoryManager struct {
	accounts access.Accounts
}

func NewMockRepositoryManager(accounts access.Accounts) *MockRepositoryManager {
	return &MockRepositoryManager{accounts: accounts}
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Accounts() access.Accounts {
	return m.accounts
}

// MockContext mocks router.Context.
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	vals, _ := args.Get(0).([]string)
	return vals
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	merged, _ := args.Get(0).(map[string]any)
	return merged
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	header, _ := args.Get(0).(*multipart.FileHeader)
	return header, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	params, _ := args.Get(0).(map[string]string)
	return params
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
