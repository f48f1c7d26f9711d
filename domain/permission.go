package domain

// Permission is an atomic capability gating one class of operation. The set is
// closed: there is no hierarchy and no implication between permissions.
type Permission string

const (
	PermReadSelf        Permission = "READ_SELF"
	PermUpdateSelf      Permission = "UPDATE_SELF"
	PermDeleteSelf      Permission = "DELETE_SELF"
	PermReadOtherUser   Permission = "READ_OTHER_USER"
	PermUpdateOtherUser Permission = "UPDATE_OTHER_USER"
	PermDeleteOtherUser Permission = "DELETE_OTHER_USER"
)

var knownPermissions = map[Permission]struct{}{
	PermReadSelf:        {},
	PermUpdateSelf:      {},
	PermDeleteSelf:      {},
	PermReadOtherUser:   {},
	PermUpdateOtherUser: {},
	PermDeleteOtherUser: {},
}

// IsValid reports whether p belongs to the closed permission set.
func (p Permission) IsValid() bool {
	_, ok := knownPermissions[p]
	return ok
}

// PermissionSet is an unordered capability set.
type PermissionSet []Permission

// Has reports whether the set contains perm.
func (s PermissionSet) Has(perm Permission) bool {
	for _, p := range s {
		if p == perm {
			return true
		}
	}
	return false
}

// Strings returns the set as plain strings, for token claims and storage.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, p := range s {
		out = append(out, string(p))
	}
	return out
}

// ParsePermissions converts raw strings into a PermissionSet, dropping any
// value outside the closed set. Unknown values come from older tokens or
// storage rows written by a newer revision.
func ParsePermissions(raw []string) PermissionSet {
	set := make(PermissionSet, 0, len(raw))
	for _, r := range raw {
		p := Permission(r)
		if !p.IsValid() || set.Has(p) {
			continue
		}
		set = append(set, p)
	}
	return set
}
