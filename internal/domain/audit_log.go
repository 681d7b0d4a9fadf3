package domain

import "time"

// Audit actions recorded by the service. Kept as free strings in storage;
// these constants cover every action the application writes.
const (
	AuditLogin              = "LOGIN"
	AuditRequestCreated     = "REQUEST_CREATED"
	AuditRequestEdited      = "REQUEST_EDITED"
	AuditRequestApproved    = "REQUEST_APPROVED"
	AuditRequestRejected    = "REQUEST_REJECTED"
	AuditRequestCancelled   = "REQUEST_CANCELLED"
	AuditRequestDeniedLimit = "REQUEST_DENIED_LIMIT"
	AuditNoteAdded          = "NOTE_ADDED"
	AuditStudentAdded       = "STUDENT_ADDED"
	AuditStudentUpdated     = "STUDENT_UPDATED"
	AuditStudentRemoved     = "STUDENT_REMOVED"
	AuditStudentReactivated = "STUDENT_REACTIVATED"
	AuditPasswordReset      = "PASSWORD_RESET"
	AuditSettingUpdated     = "SETTING_UPDATED"
	AuditUserStatusChanged  = "USER_STATUS_CHANGED"
	AuditTwoFactorEnabled   = "2FA_ENABLED"
	AuditTwoFactorDisabled  = "2FA_DISABLED"
)

// AuditLogEntry is an append-only record of a mutating action. Entries are
// never updated or deleted through the application.
type AuditLogEntry struct {
	ID        string
	UserID    *string
	Action    string
	Details   string
	IPAddress string
	CreatedAt time.Time

	UserName string
	UserRole Role
}

// AuditActionStats is the per-action aggregate for the audit dashboard.
type AuditActionStats struct {
	Action         string    `json:"action"`
	Count          int64     `json:"count"`
	LastOccurrence time.Time `json:"last_occurrence"`
}
