package domain

import "time"

// UserRole enumerates authorization roles.
type UserRole string

const (
	RoleUser     UserRole = "USER"
	RoleSecurity UserRole = "SECURITY"
	RoleAdmin    UserRole = "ADMIN"
)

// User is the domain model for registered drivers and staff.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsStaff reports whether the user holds an operational role.
func (u *User) IsStaff() bool {
	return u.Role == RoleSecurity || u.Role == RoleAdmin
}
