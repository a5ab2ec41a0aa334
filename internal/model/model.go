package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole maps a request value onto a known role. An empty value falls
// back to student, the default for provisioned accounts.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case "":
		return RoleStudent, true
	case RoleStudent, RoleTeacher, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// User is one account. ResetTokenHash and ResetTokenExpiresAt are always
// set or cleared together; nil means no password reset is in flight.
type User struct {
	ID                  string
	Name                string
	Email               string
	PasswordHash        string
	Role                Role
	IsActive            bool
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
