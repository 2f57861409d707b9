package domain

import "time"

// CredentialKind distinguishes anonymous user tokens from staff login tokens.
type CredentialKind string

const (
	KindUser  CredentialKind = "user"
	KindStaff CredentialKind = "staff"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleEditor    Role = "editor"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleEditor:
		return true
	}
	return false
}

// Staff is a privileged account. Capabilities come from Permissions only;
// Role is informational and used for provisioning defaults.
type Staff struct {
	Id          StaffId       `json:"id"`
	Email       Email         `json:"email"`
	PassHash    string        `json:"-"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
	Active      bool          `json:"active"`
	CreatedAt   time.Time     `json:"created_at"`
}

type Credentials struct {
	Email    Email
	Password Password
}

// Identity is what the session authenticator attaches to a request.
type Identity struct {
	Kind        CredentialKind
	UserId      UserId
	StaffId     StaffId
	Role        Role
	Permissions PermissionSet
	IssuedAt    time.Time
}

func (i *Identity) IsStaff() bool {
	return i != nil && i.Kind == KindStaff
}

func (i *Identity) IsUser() bool {
	return i != nil && i.Kind == KindUser
}

// GlobalLogout is the process-wide "invalidate all sessions" marker.
type GlobalLogout struct {
	At      time.Time `json:"logged_out_at"`
	Version int64     `json:"version"`
}
