package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/pkg/database"
)

// ClassEnrollmentRepository handles class placements of program profiles.
type ClassEnrollmentRepository struct {
	db *sqlx.DB
}

// NewClassEnrollmentRepository constructs the repository.
func NewClassEnrollmentRepository(db *sqlx.DB) *ClassEnrollmentRepository {
	return &ClassEnrollmentRepository{db: db}
}

type placement struct {
	ProgramProfileID string `db:"program_profile_id"`
	ClassID          string `db:"class_id"`
	IsActive         bool   `db:"is_active"`
}

// enrollmentPlan is the set of profiles to write plus the resulting counts.
type enrollmentPlan struct {
	Write  []string
	Result models.BulkEnrollResult
}

// planBulkEnroll decides which profiles need a write. Profiles already active
// in the target class are left alone; an active placement elsewhere is a move.
func planBulkEnroll(classID string, profileIDs []string, current []placement) enrollmentPlan {
	byProfile := make(map[string]placement, len(current))
	for _, p := range current {
		byProfile[p.ProgramProfileID] = p
	}
	var plan enrollmentPlan
	for _, id := range profileIDs {
		existing, ok := byProfile[id]
		switch {
		case ok && existing.IsActive && existing.ClassID == classID:
			continue
		case ok && existing.IsActive:
			plan.Result.Moved++
		}
		plan.Result.Enrolled++
		plan.Write = append(plan.Write, id)
	}
	return plan
}

// BulkEnroll places the given (already de-duplicated) profiles into classID in
// a single transaction. Either every placement is applied or none is.
func (r *ClassEnrollmentRepository) BulkEnroll(ctx context.Context, classID string, profileIDs []string, now time.Time) (models.BulkEnrollResult, error) {
	var plan enrollmentPlan
	err := database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		const lock = `SELECT program_profile_id, class_id, is_active FROM class_enrollments
        WHERE program_profile_id = ANY($1) FOR UPDATE`
		var current []placement
		if err := tx.SelectContext(ctx, &current, lock, pq.Array(profileIDs)); err != nil {
			return fmt.Errorf("lock class enrollments: %w", err)
		}

		plan = planBulkEnroll(classID, profileIDs, current)

		const upsert = `INSERT INTO class_enrollments (id, program_profile_id, class_id, is_active, start_date, end_date, created_at, updated_at)
VALUES ($1, $2, $3, true, $4, NULL, $4, $4)
ON CONFLICT (program_profile_id)
DO UPDATE SET class_id = EXCLUDED.class_id, is_active = true, start_date = EXCLUDED.start_date, end_date = NULL, updated_at = EXCLUDED.updated_at`
		for _, id := range plan.Write {
			if _, err := tx.ExecContext(ctx, upsert, uuid.NewString(), id, classID, now); err != nil {
				return fmt.Errorf("enroll profile %s: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return models.BulkEnrollResult{}, err
	}
	return plan.Result, nil
}

// Deactivate ends the active class placement of a profile without deleting it.
// It returns sql.ErrNoRows when the profile has no active placement.
func (r *ClassEnrollmentRepository) Deactivate(ctx context.Context, profileID string, now time.Time) error {
	const query = `UPDATE class_enrollments SET is_active = false, end_date = $2, updated_at = $2
        WHERE program_profile_id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, profileID, now)
	if err != nil {
		return fmt.Errorf("deactivate class enrollment: %w", err)
	}
	if rowsAffected(res) == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByProfile returns the class placement of a profile, active or not.
func (r *ClassEnrollmentRepository) FindByProfile(ctx context.Context, profileID string) (*models.ClassEnrollment, error) {
	const query = `SELECT id, program_profile_id, class_id, is_active, start_date, end_date, created_at, updated_at
        FROM class_enrollments WHERE program_profile_id = $1`
	var enrollment models.ClassEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, profileID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ClassExists reports whether a class with the id exists.
func (r *ClassEnrollmentRepository) ClassExists(ctx context.Context, classID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM classes WHERE id = $1)`, classID); err != nil {
		return false, fmt.Errorf("check class: %w", err)
	}
	return exists, nil
}
