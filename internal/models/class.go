package models

import "time"

// Class is a teaching group within a program.
type Class struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Shift     *string `db:"shift" json:"shift,omitempty"`
	TeacherID *string `db:"teacher_id" json:"teacher_id,omitempty"`
	Program   Program `db:"program" json:"program"`
}

// ClassEnrollment is the single class placement of a profile (unique per profile).
type ClassEnrollment struct {
	ID               string     `db:"id" json:"id"`
	ProgramProfileID string     `db:"program_profile_id" json:"program_profile_id"`
	ClassID          string     `db:"class_id" json:"class_id"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	StartDate        time.Time  `db:"start_date" json:"start_date"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// BulkEnrollResult reports how a bulk enrollment changed placements.
// Moved profiles are counted in Enrolled as well.
type BulkEnrollResult struct {
	Enrolled int `json:"enrolled"`
	Moved    int `json:"moved"`
}
