package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

type Permission string

const (
	PermManageStaff      Permission = "manage_staff"
	PermEditPolitician   Permission = "edit_politician"
	PermDeletePolitician Permission = "delete_politician"
	PermModerateContent  Permission = "moderate_content"
	PermManageUsers      Permission = "manage_users"
	PermGlobalLogout     Permission = "global_logout"

	// PermWildcard inside a stored list grants everything.
	PermWildcard Permission = "*"
)

// LegacyWildcard is the non-list value older rows carry in the permissions column.
const LegacyWildcard = "all"

var KnownPermissions = []Permission{
	PermManageStaff,
	PermEditPolitician,
	PermDeletePolitician,
	PermModerateContent,
	PermManageUsers,
	PermGlobalLogout,
}

func (p Permission) Known() bool {
	return p == PermWildcard || slices.Contains(KnownPermissions, p)
}

// PermissionSet is either All or an explicit set of named permissions.
// The zero value is the empty set and denies everything.
type PermissionSet struct {
	all   bool
	names map[Permission]struct{}
}

func AllPermissions() PermissionSet {
	return PermissionSet{all: true}
}

func NewPermissionSet(perms ...Permission) PermissionSet {
	set := PermissionSet{names: make(map[Permission]struct{}, len(perms))}
	for _, p := range perms {
		if p == PermWildcard {
			return AllPermissions()
		}
		set.names[p] = struct{}{}
	}
	return set
}

func (s PermissionSet) IsAll() bool {
	return s.all
}

func (s PermissionSet) Has(p Permission) bool {
	if s.all {
		return true
	}
	_, ok := s.names[p]
	return ok
}

// Names returns the sorted explicit permissions, or ["*"] for All.
func (s PermissionSet) Names() []Permission {
	if s.all {
		return []Permission{PermWildcard}
	}
	names := make([]Permission, 0, len(s.names))
	for p := range s.names {
		names = append(names, p)
	}
	slices.Sort(names)
	return names
}

// HasPermission is the single check used by middleware and services.
func HasPermission(set PermissionSet, p Permission) bool {
	return set.Has(p)
}

// Encode produces the storage form: always a JSON array.
func (s PermissionSet) Encode() string {
	b, _ := json.Marshal(s.Names())
	return string(b)
}

// ParsePermissionSet parses the stored permissions column once, at the storage
// boundary. It never panics. On malformed input it returns the empty set
// together with an error so callers can log it and still deny.
func ParsePermissionSet(raw string) (PermissionSet, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return NewPermissionSet(), nil
	}
	if strings.EqualFold(trimmed, LegacyWildcard) {
		return AllPermissions(), nil
	}

	var list []string
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		perms := make([]Permission, 0, len(list))
		for _, name := range list {
			perms = append(perms, Permission(strings.TrimSpace(name)))
		}
		return NewPermissionSet(perms...), nil
	}

	var single string
	if err := json.Unmarshal([]byte(trimmed), &single); err == nil && strings.EqualFold(single, LegacyWildcard) {
		return AllPermissions(), nil
	}

	return NewPermissionSet(), fmt.Errorf("unrecognised permissions value %q", raw)
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var list []Permission
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewPermissionSet(list...)
	return nil
}

// DefaultPermissions is the provisioning template for a role. It is never
// consulted by permission checks.
func DefaultPermissions(role Role) PermissionSet {
	switch role {
	case RoleAdmin:
		return AllPermissions()
	case RoleModerator:
		return NewPermissionSet(PermModerateContent, PermManageUsers)
	case RoleEditor:
		return NewPermissionSet(PermEditPolitician)
	}
	return NewPermissionSet()
}
