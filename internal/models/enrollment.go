package models

import "time"

// EnrollmentStatus represents the lifecycle of a batch enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusRegistered EnrollmentStatus = "REGISTERED"
	EnrollmentStatusEnrolled   EnrollmentStatus = "ENROLLED"
	EnrollmentStatusOnLeave    EnrollmentStatus = "ON_LEAVE"
	EnrollmentStatusWithdrawn  EnrollmentStatus = "WITHDRAWN"
	EnrollmentStatusCompleted  EnrollmentStatus = "COMPLETED"
)

// Enrollment is a time-bounded placement of a program profile into a batch.
// At most one enrollment per profile has EndDate nil and a non-withdrawn status.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	ProgramProfileID string           `db:"program_profile_id" json:"program_profile_id"`
	BatchID          *string          `db:"batch_id" json:"batch_id,omitempty"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	StartDate        time.Time        `db:"start_date" json:"start_date"`
	EndDate          *time.Time       `db:"end_date" json:"end_date,omitempty"`
	Reason           *string          `db:"reason" json:"reason,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// Active reports whether the enrollment is the profile's open placement.
func (e Enrollment) Active() bool {
	return e.EndDate == nil && e.Status != EnrollmentStatusWithdrawn
}
