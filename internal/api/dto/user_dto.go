package dto

import "time"

// UserResponse is the sanitized account representation.
type UserResponse struct {
	ID               string     `json:"id"`
	StudentCode      *string    `json:"student_id,omitempty"`
	StaffCode        *string    `json:"staff_id,omitempty"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	Class            string     `json:"class,omitempty"`
	Role             string     `json:"role"`
	HouseID          *string    `json:"house_id,omitempty"`
	HouseName        string     `json:"house_name,omitempty"`
	GuardianName     string     `json:"guardian_name,omitempty"`
	GuardianPhone    string     `json:"guardian_phone,omitempty"`
	IsActive         bool       `json:"is_active"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	LastLogin        *time.Time `json:"last_login,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// StudentRequest is the create/update payload for a student record.
// Password is consumed only on create.
type StudentRequest struct {
	StudentID     string `json:"student_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Phone         string `json:"phone"`
	Class         string `json:"class"`
	HouseID       string `json:"house_id"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
}

// ResetPasswordRequest carries the replacement password.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// HouseResponse is one house reference row.
type HouseResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
