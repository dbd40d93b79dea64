package auth

// Identity is the caller as known to the external identity provider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Principal is an authenticated identity with its resolved role.
type Principal struct {
	Identity
	Role Role `json:"role"`
}

func (p Principal) Can(c Capability) bool { return HasCapability(p.Role, c) }
