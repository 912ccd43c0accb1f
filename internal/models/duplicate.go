package models

import "time"

// DuplicateCandidateRow is a program profile together with one of its phone contacts.
type DuplicateCandidateRow struct {
	ProfileID string    `db:"profile_id" json:"profile_id"`
	PersonID  string    `db:"person_id" json:"person_id"`
	Name      string    `db:"name" json:"name"`
	Program   Program   `db:"program" json:"program"`
	Phone     string    `db:"phone" json:"phone"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DuplicateCluster is a set of profiles in one program whose persons share a phone.
type DuplicateCluster struct {
	Phone             string                  `json:"phone"`
	Program           Program                 `json:"program"`
	Keep              DuplicateCandidateRow   `json:"keep"`
	Delete            []DuplicateCandidateRow `json:"delete"`
	HasRecentActivity bool                    `json:"has_recent_activity"`
}

// Size is the number of profiles in the cluster.
func (c DuplicateCluster) Size() int {
	return 1 + len(c.Delete)
}

// DuplicateFilter narrows duplicate detection to a program.
type DuplicateFilter struct {
	Program Program
}

// MergeResult summarises a completed duplicate merge.
type MergeResult struct {
	KeepProfileID       string   `json:"keep_profile_id"`
	DeletedProfileIDs   []string `json:"deleted_profile_ids"`
	DeletedPersonIDs    []string `json:"deleted_person_ids"`
	ContactsCopied      int      `json:"contacts_copied"`
	EnrollmentsMoved    int      `json:"enrollments_moved"`
	BillingMoved        int      `json:"billing_moved"`
	ProfileFieldsFilled []string `json:"profile_fields_filled,omitempty"`
}
