package models

import "time"

// Roles assignable to dashboard users.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleOperator   = "operador"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSupervisor, RoleOperator:
		return true
	}
	return false
}

type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Role         string
	PasswordHash []byte
	Active       bool
	CreatedAt    time.Time
}

// CanManageUsers reports whether the role may create, update, or deactivate
// accounts.
func (u *User) CanManageUsers() bool { return u.Role == RoleAdmin }

// CanReview reports whether the role may approve or reject plans.
func (u *User) CanReview() bool {
	return u.Role == RoleAdmin || u.Role == RoleSupervisor
}
