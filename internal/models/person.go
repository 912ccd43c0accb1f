package models

import (
	"time"

	"github.com/noah-isme/school-roster-api/pkg/contact"
)

// Person is the identity record shared by guardians and students.
type Person struct {
	ID          string     `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	ContactPoints []ContactPoint `db:"-" json:"contact_points,omitempty"`
}

// FullName joins first and last name.
func (p Person) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ContactPoint belongs to exactly one person. Value is stored normalized.
type ContactPoint struct {
	ID        string       `db:"id" json:"id"`
	PersonID  string       `db:"person_id" json:"person_id"`
	Type      contact.Type `db:"type" json:"type"`
	Value     string       `db:"value" json:"value"`
	IsActive  bool         `db:"is_active" json:"is_active"`
	IsPrimary bool         `db:"is_primary" json:"is_primary"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// RelationshipState is the lifecycle tag of a guardian or sibling edge.
type RelationshipState string

const (
	RelationshipActive   RelationshipState = "ACTIVE"
	RelationshipInactive RelationshipState = "INACTIVE"
)

// RelationshipStatus replaces a bare active flag; Reason is only set when inactive.
type RelationshipStatus struct {
	State  RelationshipState `json:"state"`
	Reason string            `json:"reason,omitempty"`
}

// Active reports whether the edge is currently in force.
func (s RelationshipStatus) Active() bool {
	return s.State == RelationshipActive
}

// ActiveStatus is the status of a live relationship.
func ActiveStatus() RelationshipStatus {
	return RelationshipStatus{State: RelationshipActive}
}

// InactiveStatus is the status of a relationship deactivated for reason.
func InactiveStatus(reason string) RelationshipStatus {
	return RelationshipStatus{State: RelationshipInactive, Reason: reason}
}

// StatusFromColumns maps the persisted is_active/inactive_reason pair.
func StatusFromColumns(isActive bool, reason *string) RelationshipStatus {
	if isActive {
		return ActiveStatus()
	}
	if reason == nil {
		return InactiveStatus("")
	}
	return InactiveStatus(*reason)
}

// GuardianRole tags a guardian edge.
type GuardianRole string

const (
	GuardianRoleParent      GuardianRole = "PARENT"
	GuardianRoleGrandparent GuardianRole = "GRANDPARENT"
	GuardianRoleSponsor     GuardianRole = "SPONSOR"
	GuardianRoleOther       GuardianRole = "OTHER"
)

// GuardianRelationship is a directed edge guardian -> dependent.
type GuardianRelationship struct {
	ID             string             `json:"id"`
	GuardianID     string             `json:"guardian_id"`
	DependentID    string             `json:"dependent_id"`
	Role           GuardianRole       `json:"role"`
	Status         RelationshipStatus `json:"status"`
	IsPrimaryPayer bool               `json:"is_primary_payer"`
	CreatedAt      time.Time          `json:"created_at"`

	// Person is the other end of the edge relative to the queried person.
	Person *Person `json:"person,omitempty"`
}

// SiblingRelationship is undirected; Person1ID always sorts before Person2ID.
type SiblingRelationship struct {
	ID        string             `json:"id"`
	Person1ID string             `json:"person1_id"`
	Person2ID string             `json:"person2_id"`
	Status    RelationshipStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`

	Sibling *Person `json:"sibling,omitempty"`
}

// CanonicalSiblingPair orders two person ids so the lower one comes first.
func CanonicalSiblingPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
