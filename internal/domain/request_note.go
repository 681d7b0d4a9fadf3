package domain

import "time"

// RequestNote is a free-text annotation attached to a request by an
// approver. Append-only, ordered by creation time.
type RequestNote struct {
	ID        string
	RequestID string
	AuthorID  string
	Body      string
	CreatedAt time.Time

	AuthorName string
	AuthorRole Role
}
