package models

import "time"

// Program names a school program a person can be enrolled in.
type Program string

const (
	ProgramWeekendSchool Program = "WEEKEND_SCHOOL"
	ProgramK12           Program = "K12_PROGRAM"
)

// Valid reports whether p is a known program.
func (p Program) Valid() bool {
	return p == ProgramWeekendSchool || p == ProgramK12
}

// ProgramProfile is a person's enrollment in one program.
type ProgramProfile struct {
	ID                string    `db:"id" json:"id"`
	PersonID          string    `db:"person_id" json:"person_id"`
	Program           Program   `db:"program" json:"program"`
	GradeLevel        *string   `db:"grade_level" json:"grade_level,omitempty"`
	Shift             *string   `db:"shift" json:"shift,omitempty"`
	FamilyReferenceID *string   `db:"family_reference_id" json:"family_reference_id,omitempty"`
	SchoolName        *string   `db:"school_name" json:"school_name,omitempty"`
	HealthInfo        *string   `db:"health_info" json:"health_info,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// BillingAssignment ties a program profile to a billed amount.
type BillingAssignment struct {
	ID               string    `db:"id" json:"id"`
	ProgramProfileID string    `db:"program_profile_id" json:"program_profile_id"`
	AmountCents      int64     `db:"amount_cents" json:"amount_cents"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
