package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/pkg/database"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

// DuplicateRepository merges duplicate program profiles.
type DuplicateRepository struct {
	db *sqlx.DB
}

// NewDuplicateRepository constructs the repository.
func NewDuplicateRepository(db *sqlx.DB) *DuplicateRepository {
	return &DuplicateRepository{db: db}
}

// MergeRequest describes one duplicate resolution.
type MergeRequest struct {
	KeepProfileID    string
	DeleteProfileIDs []string
	MergeData        bool
}

// Merge folds the delete profiles into the keep profile inside one transaction.
// Validation happens under row locks before any write; any failure rolls back.
func (r *DuplicateRepository) Merge(ctx context.Context, req MergeRequest) (*models.MergeResult, error) {
	result := &models.MergeResult{KeepProfileID: req.KeepProfileID}
	now := time.Now().UTC()

	err := database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		ids := append([]string{req.KeepProfileID}, req.DeleteProfileIDs...)
		profiles, err := lockProfiles(ctx, tx, ids)
		if err != nil {
			return err
		}
		keep, deletes, err := splitMergeProfiles(profiles, req.KeepProfileID, req.DeleteProfileIDs)
		if err != nil {
			return err
		}

		if req.MergeData {
			copied, err := copyContacts(ctx, tx, keep.PersonID, personIDs(deletes), now)
			if err != nil {
				return err
			}
			result.ContactsCopied = copied

			filled := backfillProfile(&keep, deletes)
			if len(filled) > 0 {
				const fill = `UPDATE program_profiles SET grade_level = $2, shift = $3, family_reference_id = $4,
    school_name = $5, health_info = $6, updated_at = $7 WHERE id = $1`
				if _, err := tx.ExecContext(ctx, fill, keep.ID, keep.GradeLevel, keep.Shift, keep.FamilyReferenceID, keep.SchoolName, keep.HealthInfo, now); err != nil {
					return fmt.Errorf("backfill keep profile: %w", err)
				}
				result.ProfileFieldsFilled = filled
			}

			res, err := tx.ExecContext(ctx, `UPDATE billing_assignments SET program_profile_id = $1 WHERE program_profile_id = ANY($2)`,
				keep.ID, pq.Array(req.DeleteProfileIDs))
			if err != nil {
				return fmt.Errorf("reparent billing assignments: %w", err)
			}
			result.BillingMoved = rowsAffected(res)
		}

		if err := withdrawCollidingEnrollments(ctx, tx, keep.ID, req.DeleteProfileIDs, now); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE enrollments SET program_profile_id = $1, updated_at = $3 WHERE program_profile_id = ANY($2)`,
			keep.ID, pq.Array(req.DeleteProfileIDs), now)
		if err != nil {
			return fmt.Errorf("reparent enrollments: %w", err)
		}
		result.EnrollmentsMoved = rowsAffected(res)

		if _, err := tx.ExecContext(ctx, `DELETE FROM program_profiles WHERE id = ANY($1)`, pq.Array(req.DeleteProfileIDs)); err != nil {
			return fmt.Errorf("delete merged profiles: %w", err)
		}
		result.DeletedProfileIDs = append([]string(nil), req.DeleteProfileIDs...)

		const orphans = `DELETE FROM persons p WHERE p.id = ANY($1) AND p.id <> $2
    AND NOT EXISTS (SELECT 1 FROM program_profiles pp WHERE pp.person_id = p.id)
    RETURNING p.id`
		var deletedPersons []string
		if err := tx.SelectContext(ctx, &deletedPersons, orphans, pq.Array(personIDs(deletes)), keep.PersonID); err != nil {
			return fmt.Errorf("delete orphan persons: %w", err)
		}
		result.DeletedPersonIDs = deletedPersons
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func lockProfiles(ctx context.Context, tx *sqlx.Tx, ids []string) ([]models.ProgramProfile, error) {
	const query = `SELECT id, person_id, program, grade_level, shift, family_reference_id, school_name, health_info, created_at, updated_at
        FROM program_profiles WHERE id = ANY($1) FOR UPDATE`
	var profiles []models.ProgramProfile
	if err := tx.SelectContext(ctx, &profiles, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("lock program profiles: %w", err)
	}
	return profiles, nil
}

// splitMergeProfiles validates the locked rows: every id must exist and all
// profiles must share the keep profile's program.
func splitMergeProfiles(profiles []models.ProgramProfile, keepID string, deleteIDs []string) (models.ProgramProfile, []models.ProgramProfile, error) {
	byID := make(map[string]models.ProgramProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	keep, ok := byID[keepID]
	if !ok {
		return models.ProgramProfile{}, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("program profile %s not found", keepID))
	}
	deletes := make([]models.ProgramProfile, 0, len(deleteIDs))
	for _, id := range deleteIDs {
		p, ok := byID[id]
		if !ok {
			return models.ProgramProfile{}, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("program profile %s not found", id))
		}
		if p.Program != keep.Program {
			return models.ProgramProfile{}, nil, appErrors.Clone(appErrors.ErrCrossProgramMerge,
				fmt.Sprintf("profile %s is %s but keep profile is %s", id, p.Program, keep.Program))
		}
		deletes = append(deletes, p)
	}
	return keep, deletes, nil
}

// backfillProfile fills null fields on keep from the first delete candidate
// that has them and returns the names of the filled columns.
func backfillProfile(keep *models.ProgramProfile, deletes []models.ProgramProfile) []string {
	var filled []string
	fill := func(name string, dst **string, pick func(models.ProgramProfile) *string) {
		if *dst != nil {
			return
		}
		for _, d := range deletes {
			if v := pick(d); v != nil {
				*dst = v
				filled = append(filled, name)
				return
			}
		}
	}
	fill("grade_level", &keep.GradeLevel, func(p models.ProgramProfile) *string { return p.GradeLevel })
	fill("shift", &keep.Shift, func(p models.ProgramProfile) *string { return p.Shift })
	fill("family_reference_id", &keep.FamilyReferenceID, func(p models.ProgramProfile) *string { return p.FamilyReferenceID })
	fill("school_name", &keep.SchoolName, func(p models.ProgramProfile) *string { return p.SchoolName })
	fill("health_info", &keep.HealthInfo, func(p models.ProgramProfile) *string { return p.HealthInfo })
	return filled
}

// missingContacts returns the source contact points whose (type, value) the
// keep person does not already hold, deduplicated.
func missingContacts(existing, source []models.ContactPoint) []models.ContactPoint {
	seen := make(map[string]struct{}, len(existing)+len(source))
	for _, c := range existing {
		seen[string(c.Type)+"|"+c.Value] = struct{}{}
	}
	var out []models.ContactPoint
	for _, c := range source {
		key := string(c.Type) + "|" + c.Value
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func copyContacts(ctx context.Context, tx *sqlx.Tx, keepPersonID string, sourcePersonIDs []string, now time.Time) (int, error) {
	const list = `SELECT id, person_id, type, value, is_active, is_primary, created_at
        FROM contact_points WHERE person_id = ANY($1) AND is_active = true ORDER BY created_at ASC`
	var existing []models.ContactPoint
	if err := tx.SelectContext(ctx, &existing, list, pq.Array([]string{keepPersonID})); err != nil {
		return 0, fmt.Errorf("list keep contacts: %w", err)
	}
	var source []models.ContactPoint
	if err := tx.SelectContext(ctx, &source, list, pq.Array(sourcePersonIDs)); err != nil {
		return 0, fmt.Errorf("list merged contacts: %w", err)
	}

	const insert = `INSERT INTO contact_points (id, person_id, type, value, is_active, is_primary, created_at)
VALUES ($1, $2, $3, $4, true, false, $5)
ON CONFLICT (person_id, type, value) DO NOTHING`
	copied := 0
	for _, c := range missingContacts(existing, source) {
		res, err := tx.ExecContext(ctx, insert, uuid.NewString(), keepPersonID, c.Type, c.Value, now)
		if err != nil {
			return 0, fmt.Errorf("copy contact point: %w", err)
		}
		copied += int(rowsAffected(res))
	}
	return copied, nil
}

// withdrawCollidingEnrollments end-dates active delete-side enrollments that
// would violate the one-active-enrollment-per-profile index after re-parenting.
// The keep profile's active enrollment wins; otherwise the most recent one does.
func withdrawCollidingEnrollments(ctx context.Context, tx *sqlx.Tx, keepID string, deleteIDs []string, now time.Time) error {
	const query = `SELECT id, program_profile_id, batch_id, status, start_date, end_date, reason, created_at, updated_at
        FROM enrollments WHERE program_profile_id = ANY($1) AND end_date IS NULL AND status <> 'WITHDRAWN'
        ORDER BY start_date DESC, created_at DESC`
	var active []models.Enrollment
	if err := tx.SelectContext(ctx, &active, query, pq.Array(append([]string{keepID}, deleteIDs...))); err != nil {
		return fmt.Errorf("list active enrollments: %w", err)
	}
	withdraw := collidingEnrollments(active, keepID)
	if len(withdraw) == 0 {
		return nil
	}
	const update = `UPDATE enrollments SET status = 'WITHDRAWN', end_date = $2, reason = $3, updated_at = $2 WHERE id = ANY($1)`
	if _, err := tx.ExecContext(ctx, update, pq.Array(withdraw), now, "merged duplicate profile"); err != nil {
		return fmt.Errorf("withdraw colliding enrollments: %w", err)
	}
	return nil
}

// collidingEnrollments expects active enrollments newest first and returns the
// ids that must be withdrawn so that a single one survives.
func collidingEnrollments(active []models.Enrollment, keepID string) []string {
	if len(active) < 2 {
		return nil
	}
	survivor := active[0].ID
	for _, e := range active {
		if e.ProgramProfileID == keepID {
			survivor = e.ID
			break
		}
	}
	var out []string
	for _, e := range active {
		if e.ID != survivor {
			out = append(out, e.ID)
		}
	}
	return out
}

func personIDs(profiles []models.ProgramProfile) []string {
	seen := make(map[string]struct{}, len(profiles))
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if _, ok := seen[p.PersonID]; ok {
			continue
		}
		seen[p.PersonID] = struct{}{}
		out = append(out, p.PersonID)
	}
	return out
}

type rowsResult interface {
	RowsAffected() (int64, error)
}

func rowsAffected(res rowsResult) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}
