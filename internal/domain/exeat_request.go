package domain

import "time"

// RequestStatus enumerates exeat request lifecycle states. The only legal
// transitions are pending->approved and pending->rejected; terminal states
// are immutable except for notes.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// ExeatRequest is the aggregate for a student leave request. A cancellation
// is stored as status rejected with the Cancelled* fields populated instead
// of the Rejected* fields, so the two paths stay distinguishable.
//
// IsExpired is a derived flag flipped by the expiry sweep once ExpiresAt has
// passed while the request is still pending; the status itself is untouched,
// so a request can be pending and expired at the same time.
type ExeatRequest struct {
	ID            string
	StudentID     string
	HouseID       string
	DepartureDate time.Time
	DepartureTime string
	Duration      string
	Destination   string
	Reason        string
	GuardianName  string
	GuardianPhone string
	Status        RequestStatus
	Semester      string
	AcademicYear  string

	ApprovedBy         *string
	ApprovedAt         *time.Time
	RejectedBy         *string
	RejectedAt         *time.Time
	RejectionReason    *string
	CancelledBy        *string
	CancelledAt        *time.Time
	CancellationReason *string

	EditedAt  *time.Time
	ExpiresAt time.Time
	IsExpired bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// Display fields populated by list/get queries that join users/houses.
	StudentName    string
	StudentClass   string
	StudentCode    string
	HouseName      string
	ApprovedByName *string
	RejectedByName *string
}

// Pending reports whether the request can still change state.
func (r *ExeatRequest) Pending() bool {
	return r.Status == RequestStatusPending
}

// RequestStats aggregates counts over a role-scoped set of requests.
type RequestStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Expired  int64 `json:"expired"`
}

// HouseRequestStats aggregates counts per house.
type HouseRequestStats struct {
	HouseID   string `json:"house_id"`
	HouseName string `json:"house_name"`
	Total     int64  `json:"total"`
	Pending   int64  `json:"pending"`
	Approved  int64  `json:"approved"`
	Rejected  int64  `json:"rejected"`
}
