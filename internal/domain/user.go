package domain

import "time"

// Role enumerates the fixed set of application roles.
type Role string

const (
	RoleStudent     Role = "student"
	RoleHousemaster Role = "housemaster"
	RoleHeadmaster  Role = "headmaster"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleHousemaster, RoleHeadmaster:
		return true
	}
	return false
}

// User models any account in the system: students, housemasters and the
// headmaster share one table, distinguished by Role. Accounts are never
// hard-deleted; IsActive=false is the removal mechanism.
type User struct {
	ID               string
	StudentCode      *string
	StaffCode        *string
	FirstName        string
	LastName         string
	Email            string
	PasswordHash     string
	Phone            string
	Class            string
	Role             Role
	HouseID          *string
	GuardianName     string
	GuardianPhone    string
	IsActive         bool
	TwoFactorSecret  *string
	TwoFactorEnabled bool
	LastLogin        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// HouseName is populated by list queries that join houses.
	HouseName string
}

// FullName returns the display name used in audit details and reports.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Sanitized returns a copy with credential material stripped, suitable for
// inclusion in API responses.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.TwoFactorSecret = nil
	return u
}
