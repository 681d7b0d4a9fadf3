package domain

import (
	"strconv"
	"strings"
	"time"
)

// Setting keys consulted by the request lifecycle.
const (
	SettingMaxRequestsPerSemester = "max_requests_per_semester"
	SettingRequestExpiryHours     = "request_expiry_hours"
	SettingCurrentSemester        = "current_semester"
	SettingCurrentAcademicYear    = "current_academic_year"
	SettingAllowStudentEdit       = "allow_student_edit"
	SettingAllowStudentCancel     = "allow_student_cancel"
)

// SystemSetting is one key-value configuration row, mutated only by the
// headmaster.
type SystemSetting struct {
	Key       string    `json:"setting_key"`
	Value     string    `json:"setting_value"`
	UpdatedBy *string   `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Settings is the typed read-side of the settings table, built from the raw
// key-value rows with defaults for anything unset.
type Settings struct {
	MaxRequestsPerSemester int
	RequestExpiryHours     int
	CurrentSemester        string
	CurrentAcademicYear    string
	AllowStudentEdit       bool
	AllowStudentCancel     bool
}

// DefaultSettings returns the values assumed when a key is missing.
func DefaultSettings() Settings {
	return Settings{
		MaxRequestsPerSemester: 3,
		RequestExpiryHours:     72,
		CurrentSemester:        "1",
		CurrentAcademicYear:    "2025/2026",
		AllowStudentEdit:       true,
		AllowStudentCancel:     true,
	}
}

// ParseSettings converts raw setting rows into the typed view. Unknown keys
// are ignored; malformed values fall back to defaults.
func ParseSettings(rows []SystemSetting) Settings {
	s := DefaultSettings()
	for _, row := range rows {
		val := strings.TrimSpace(row.Value)
		switch row.Key {
		case SettingMaxRequestsPerSemester:
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				s.MaxRequestsPerSemester = n
			}
		case SettingRequestExpiryHours:
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				s.RequestExpiryHours = n
			}
		case SettingCurrentSemester:
			if val != "" {
				s.CurrentSemester = val
			}
		case SettingCurrentAcademicYear:
			if val != "" {
				s.CurrentAcademicYear = val
			}
		case SettingAllowStudentEdit:
			if b, err := strconv.ParseBool(val); err == nil {
				s.AllowStudentEdit = b
			}
		case SettingAllowStudentCancel:
			if b, err := strconv.ParseBool(val); err == nil {
				s.AllowStudentCancel = b
			}
		}
	}
	return s
}
