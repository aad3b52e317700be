package access_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-access"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGateDeniesUnresolvableProfile(t *testing.T) {
	t.Parallel()

	directory := new(MockAccounts)
	gate := access.NewSignInGate(directory, newTestConfig())

	assert.False(t, gate.Admit(context.Background(), nil))
	assert.False(t, gate.Admit(context.Background(), &access.Profile{Login: "   "}))

	directory.AssertNotCalled(t, "GetByHandle", mock.Anything, mock.Anything)
}

func TestGateDeniesUnknownHandle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	directory := new(MockAccounts)
	directory.On("GetByHandle", ctx, "nobody").
		Return(nil, repository.NewRecordNotFound()).Once()

	gate := access.NewSignInGate(directory, newTestConfig())

	assert.False(t, gate.Admit(ctx, &access.Profile{Login: "nobody"}))
	directory.AssertExpectations(t)
}

func TestGateDeniesInactiveAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	directory := new(MockAccounts)
	// The lookup key is the normalized handle regardless of login casing.
	directory.On("GetByHandle", ctx, "alice").
		Return(&access.Account{Handle: "alice", Role: access.RoleUser, IsActive: false}, nil).Once()

	gate := access.NewSignInGate(directory, newTestConfig())

	assert.False(t, gate.Admit(ctx, &access.Profile{Login: "Alice"}))
	directory.AssertNotCalled(t, "UpsertFromProfile", mock.Anything, mock.Anything, mock.Anything)
	directory.AssertExpectations(t)
}

func TestGateDeniesOnDirectoryOutage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	directory := new(MockAccounts)
	directory.On("GetByHandle", ctx, "alice").
		Return(nil, errors.New("connection refused", errors.CategoryOperation)).Once()

	gate := access.NewSignInGate(directory, newTestConfig())

	assert.False(t, gate.Admit(ctx, &access.Profile{Login: "alice"}))
	directory.AssertExpectations(t)
}

func TestGateAdmitsActiveAccountAndSyncsProfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profile := &access.Profile{Login: "Alice", ExternalID: 42, DisplayName: "Alice A."}

	directory := new(MockAccounts)
	directory.On("GetByHandle", ctx, "alice").
		Return(&access.Account{Handle: "alice", Role: access.RoleUser, IsActive: true}, nil).Once()
	directory.On("UpsertFromProfile", ctx, access.Identity{Handle: "alice", ExternalID: 42}, profile).
		Return(&access.Account{Handle: "alice", IsActive: true}, nil).Once()

	gate := access.NewSignInGate(directory, newTestConfig())

	assert.True(t, gate.Admit(ctx, profile))
	directory.AssertExpectations(t)
}

func TestGateDeniesWhenProfileSyncFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profile := &access.Profile{Login: "alice"}

	directory := new(MockAccounts)
	directory.On("GetByHandle", ctx, "alice").
		Return(&access.Account{Handle: "alice", IsActive: true}, nil).Once()
	directory.On("UpsertFromProfile", ctx, mock.Anything, profile).
		Return(nil, errors.New("disk full", errors.CategoryOperation)).Once()

	gate := access.NewSignInGate(directory, newTestConfig())

	assert.False(t, gate.Admit(ctx, profile))
	directory.AssertExpectations(t)
}

func TestGateAdmitsSuperAdminWithoutDirectoryRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profile := &access.Profile{Login: "Gram012", ExternalID: 1}

	directory := new(MockAccounts)
	directory.On("UpsertFromProfile", ctx, access.Identity{Handle: "gram012", ExternalID: 1}, profile).
		Return(&access.Account{Handle: "gram012"}, nil).Once()

	gate := access.NewSignInGate(directory, newTestConfig())

	assert.True(t, gate.Admit(ctx, profile))
	directory.AssertNotCalled(t, "GetByHandle", mock.Anything, mock.Anything)
	directory.AssertExpectations(t)
}

func TestGateAdmitsSuperAdminDuringOutage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	profile := &access.Profile{Login: "gram012"}

	directory := new(MockAccounts)
	directory.On("UpsertFromProfile", ctx, mock.Anything, profile).
		Return(nil, errors.New("connection refused", errors.CategoryOperation)).Once()

	gate := access.NewSignInGate(directory, newTestConfig())

	// The break-glass path: a directory outage must not lock out the
	// bootstrap account.
	assert.True(t, gate.Admit(ctx, profile))
	directory.AssertExpectations(t)
}
