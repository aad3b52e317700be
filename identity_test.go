package access_test

import (
	"testing"

	"github.com/goliatone/go-access"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestResolveIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile *access.Profile
		want    access.Identity
		wantErr bool
	}{
		{
			name:    "nil profile fails closed",
			profile: nil,
			wantErr: true,
		},
		{
			name:    "empty login fails closed",
			profile: &access.Profile{ExternalID: 42},
			wantErr: true,
		},
		{
			name:    "whitespace login fails closed",
			profile: &access.Profile{Login: "   "},
			wantErr: true,
		},
		{
			name:    "mixed case login is normalized",
			profile: &access.Profile{Login: "Alice", ExternalID: 7},
			want:    access.Identity{Handle: "alice", ExternalID: 7},
		},
		{
			name:    "already normalized login passes through",
			profile: &access.Profile{Login: "gram012", ExternalID: 99},
			want:    access.Identity{Handle: "gram012", ExternalID: 99},
		},
		{
			name:    "surrounding whitespace is trimmed",
			profile: &access.Profile{Login: "  Bob  "},
			want:    access.Identity{Handle: "bob"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			identity, err := access.ResolveIdentity(tt.profile)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, access.ErrInvalidIdentity))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, identity)
		})
	}
}

func TestResolveIdentityIsDeterministic(t *testing.T) {
	t.Parallel()

	profile := &access.Profile{Login: "SomeUser", ExternalID: 1}

	first, err := access.ResolveIdentity(profile)
	assert.NoError(t, err)

	second, err := access.ResolveIdentity(profile)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
}
