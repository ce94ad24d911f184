package model

import (
	"errors"
	"strings"
	"time"
)

// Role is the closed set of user roles stored in the `users.role`
// column.  Authorization code must switch over these constants rather
// than compare free-form strings.
type Role string

const (
	RoleSuperAdmin  Role = "SuperAdmin"
	RoleBranchAdmin Role = "BranchAdmin"
	RoleTrainer     Role = "Trainer"
	RoleMember      Role = "Member"
)

// ErrUnknownRole is returned by ParseRole for values outside the enum.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole converts a stored or claimed role name into a Role.  The
// comparison is case-insensitive so that "trainer" and "Trainer" both
// resolve, but anything outside the four known roles is rejected.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "superadmin":
		return RoleSuperAdmin, nil
	case "branchadmin":
		return RoleBranchAdmin, nil
	case "trainer":
		return RoleTrainer, nil
	case "member":
		return RoleMember, nil
	}
	return "", ErrUnknownRole
}

// IsAdmin reports whether the role belongs to the administrative group
// (joins the `admins` realtime room, may broadcast, bypasses trainer
// ownership checks).
func (r Role) IsAdmin() bool {
	switch r {
	case RoleSuperAdmin, RoleBranchAdmin:
		return true
	case RoleTrainer, RoleMember:
		return false
	}
	return false
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleBranchAdmin, RoleTrainer, RoleMember:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// User represents an application user record as stored in the
// `users` table.  The password hash never leaves the repository and
// handler layers; responses use dedicated DTOs.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – one of SuperAdmin, BranchAdmin, Trainer, Member.
//	BranchID     – home branch (nil for SuperAdmin and unassigned users).
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	BranchID     *uint64   // users.branch_id (nullable)
	CreatedAt    time.Time // users.created_at
}
