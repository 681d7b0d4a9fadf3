package dto

import "time"

// UpdateSettingRequest carries the new value for one setting key.
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

// SettingResponse is one setting row.
type SettingResponse struct {
	Key       string    `json:"setting_key"`
	Value     string    `json:"setting_value"`
	UpdatedBy *string   `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditLogResponse is one audit trail entry.
type AuditLogResponse struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	UserRole  string    `json:"user_role,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
