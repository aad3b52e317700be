package access

// Profile is the normalized shape of an external provider profile. Providers
// (see provider/github) map their raw payloads into it; the core never sees
// provider-specific fields.
type Profile struct {
	ExternalID  int64  `json:"external_id,omitempty"`
	Login       string `json:"login,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Identity is a resolved provider profile: the canonical lower-cased handle
// plus the provider-assigned numeric id.
type Identity struct {
	Handle     string
	ExternalID int64
}

// ResolveIdentity derives the canonical identity from a provider profile.
// It is a pure function with no side effects. It fails with
// ErrInvalidIdentity when the profile lacks a usable handle, and callers
// must treat that as a deny.
func ResolveIdentity(profile *Profile) (Identity, error) {
	if profile == nil {
		return Identity{}, ErrInvalidIdentity
	}

	handle := NormalizeHandle(profile.Login)
	if handle == "" {
		return Identity{}, ErrInvalidIdentity
	}

	return Identity{
		Handle:     handle,
		ExternalID: profile.ExternalID,
	}, nil
}
