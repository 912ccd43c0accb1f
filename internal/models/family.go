package models

import "time"

// GuardianContact carries the denormalised guardian columns of a registration row.
type GuardianContact struct {
	Name  *string `db:"name" json:"name,omitempty"`
	Email *string `db:"email" json:"email,omitempty"`
	Phone *string `db:"phone" json:"phone,omitempty"`
}

// Empty reports whether none of the guardian fields are set.
func (g GuardianContact) Empty() bool {
	return g.Name == nil && g.Email == nil && g.Phone == nil
}

// FamilyRow is one program profile flattened with its first two guardians.
type FamilyRow struct {
	ProfileID         string    `db:"profile_id"`
	PersonID          string    `db:"person_id"`
	ChildName         string    `db:"child_name"`
	GradeLevel        *string   `db:"grade_level"`
	Shift             *string   `db:"shift"`
	FamilyReferenceID *string   `db:"family_reference_id"`
	Guardian1Name     *string   `db:"guardian1_name"`
	Guardian1Email    *string   `db:"guardian1_email"`
	Guardian1Phone    *string   `db:"guardian1_phone"`
	Guardian2Name     *string   `db:"guardian2_name"`
	Guardian2Email    *string   `db:"guardian2_email"`
	Guardian2Phone    *string   `db:"guardian2_phone"`
	CreatedAt         time.Time `db:"created_at"`
}

// FamilyChild is a dependent listed within a family.
type FamilyChild struct {
	ProfileID  string    `json:"profile_id"`
	PersonID   string    `json:"person_id"`
	Name       string    `json:"name"`
	GradeLevel *string   `json:"grade_level,omitempty"`
	Shift      *string   `json:"shift,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Family groups siblings that share a family key.
type Family struct {
	Key          string          `json:"key"`
	Guardian1    GuardianContact `json:"guardian1"`
	Guardian2    GuardianContact `json:"guardian2"`
	Children     []FamilyChild   `json:"children"`
	RegisteredAt time.Time       `json:"registered_at"`
}

// FamilyFilter scopes the family listing.
type FamilyFilter struct {
	Program Program
	Shift   string
}
