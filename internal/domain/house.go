package domain

import "time"

// House is a residential grouping of students overseen by one housemaster.
// Reference data; rows are seeded by migrations and effectively immutable.
type House struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
