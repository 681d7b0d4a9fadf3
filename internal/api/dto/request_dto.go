package dto

import "time"

// SubmitRequestRequest is the create/edit payload for an exeat request.
// DepartureDate uses YYYY-MM-DD.
type SubmitRequestRequest struct {
	DepartureDate string `json:"departure_date"`
	DepartureTime string `json:"departure_time"`
	Duration      string `json:"duration"`
	Destination   string `json:"destination"`
	Reason        string `json:"reason"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
}

// CancelRequestRequest carries an optional cancellation reason.
type CancelRequestRequest struct {
	Reason string `json:"reason"`
}

// RejectRequestRequest carries the mandatory rejection reason.
type RejectRequestRequest struct {
	Reason string `json:"reason"`
}

// BatchApproveRequest lists the request ids to approve.
type BatchApproveRequest struct {
	IDs []string `json:"ids"`
}

// AddNoteRequest carries a note body.
type AddNoteRequest struct {
	Note string `json:"note"`
}

// RequestResponse is the full request representation.
type RequestResponse struct {
	ID            string `json:"id"`
	StudentID     string `json:"student_id"`
	StudentName   string `json:"student_name,omitempty"`
	StudentCode   string `json:"student_code,omitempty"`
	StudentClass  string `json:"student_class,omitempty"`
	HouseID       string `json:"house_id"`
	HouseName     string `json:"house_name,omitempty"`
	DepartureDate string `json:"departure_date"`
	DepartureTime string `json:"departure_time,omitempty"`
	Duration      string `json:"duration"`
	Destination   string `json:"destination"`
	Reason        string `json:"reason"`
	GuardianName  string `json:"guardian_name,omitempty"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
	Status        string `json:"status"`
	Semester      string `json:"semester"`
	AcademicYear  string `json:"academic_year"`

	ApprovedBy         *string    `json:"approved_by,omitempty"`
	ApprovedByName     *string    `json:"approved_by_name,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	RejectedBy         *string    `json:"rejected_by,omitempty"`
	RejectedByName     *string    `json:"rejected_by_name,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty"`
	RejectionReason    *string    `json:"rejection_reason,omitempty"`
	CancelledBy        *string    `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`

	EditedAt  *time.Time `json:"edited_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsExpired bool       `json:"is_expired"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NoteResponse is one request annotation.
type NoteResponse struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// RequestDetailResponse is the request plus its notes.
type RequestDetailResponse struct {
	RequestResponse
	Notes []NoteResponse `json:"notes"`
}
