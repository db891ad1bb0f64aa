package model

// Tier is the permission level of a caller
type Tier int

const (
	TierPlayer Tier = iota
	TierDM
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierAdmin:
		return "admin"
	case TierDM:
		return "dm"
	default:
		return "player"
	}
}

// AtLeast reports whether t grants everything required grants
func (t Tier) AtLeast(required Tier) bool {
	return t >= required
}

// PermissionEvidence is what the chat boundary knows about a caller,
// computed once from the platform objects and passed down by value
type PermissionEvidence struct {
	Administrator bool
	RoleNames     []string
}

// HasRole reports whether the caller holds a role with exactly the given name
func (e PermissionEvidence) HasRole(name string) bool {
	for _, r := range e.RoleNames {
		if r == name {
			return true
		}
	}
	return false
}

// Tier resolves the caller's tier given the currently configured DM role name
func (e PermissionEvidence) Tier(dmRole string) Tier {
	if e.Administrator {
		return TierAdmin
	}
	if dmRole != "" && e.HasRole(dmRole) {
		return TierDM
	}
	return TierPlayer
}
