package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/pkg/database"
)

const attendanceBase = `FROM attendance_records ar
JOIN attendance_sessions s ON s.id = ar.session_id
JOIN classes c ON c.id = s.class_id`

// AttendanceRepository handles attendance sessions, records and their aggregations.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// StatusCounts returns record counts grouped by status for the filter.
func (r *AttendanceRepository) StatusCounts(ctx context.Context, filter models.AttendanceFilter) ([]models.StatusCount, error) {
	where, args := BuildAttendanceWhere(filter, nil)
	query := "SELECT ar.status, COUNT(*) AS count " + attendanceBase + where + " GROUP BY ar.status"

	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance status counts: %w", err)
	}
	return rows, nil
}

// StatusCountsByClass returns status counts per class.
func (r *AttendanceRepository) StatusCountsByClass(ctx context.Context, filter models.AttendanceFilter) ([]models.GroupedStatusCount, error) {
	where, args := BuildAttendanceWhere(filter, nil)
	query := `SELECT c.id AS group_key, c.name AS group_name, ar.status, COUNT(*) AS count ` +
		attendanceBase + where + " GROUP BY c.id, c.name, ar.status ORDER BY c.name"

	var rows []models.GroupedStatusCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance status counts by class: %w", err)
	}
	return rows, nil
}

// StatusCountsByShift returns status counts per class shift. Classes without a
// shift are reported under an empty key.
func (r *AttendanceRepository) StatusCountsByShift(ctx context.Context, filter models.AttendanceFilter) ([]models.GroupedStatusCount, error) {
	where, args := BuildAttendanceWhere(filter, nil)
	query := `SELECT COALESCE(c.shift, '') AS group_key, COALESCE(c.shift, '') AS group_name, ar.status, COUNT(*) AS count ` +
		attendanceBase + where + " GROUP BY COALESCE(c.shift, ''), ar.status ORDER BY group_key"

	var rows []models.GroupedStatusCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance status counts by shift: %w", err)
	}
	return rows, nil
}

// ClassRoster lists the students actively enrolled in a class.
func (r *AttendanceRepository) ClassRoster(ctx context.Context, classID string) ([]models.RosterStudent, error) {
	const query = `SELECT pp.id AS program_profile_id, p.id AS person_id,
        TRIM(p.first_name || ' ' || p.last_name) AS name, pp.family_reference_id, pp.grade_level
        FROM class_enrollments ce
        JOIN program_profiles pp ON pp.id = ce.program_profile_id
        JOIN persons p ON p.id = pp.person_id
        WHERE ce.class_id = $1 AND ce.is_active = true`

	var rows []models.RosterStudent
	if err := r.db.SelectContext(ctx, &rows, query, classID); err != nil {
		return nil, fmt.Errorf("class roster: %w", err)
	}
	return rows, nil
}

// FindClass loads a class by id.
func (r *AttendanceRepository) FindClass(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, shift, teacher_id, program FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// MarkSession upserts the (class, date) session and its records atomically.
// An existing session keeps its identity; record statuses may be corrected.
// records are updated in place with the stored session and record ids.
func (r *AttendanceRepository) MarkSession(ctx context.Context, session *models.AttendanceSession, records []models.AttendanceRecord) (*models.AttendanceSession, error) {
	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	var stored models.AttendanceSession
	err := database.WithTx(ctx, r.db, nil, func(tx *sqlx.Tx) error {
		const sessionQuery = `INSERT INTO attendance_sessions (id, class_id, date, teacher_id, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (class_id, date)
DO UPDATE SET notes = COALESCE(EXCLUDED.notes, attendance_sessions.notes), updated_at = EXCLUDED.updated_at
RETURNING id, class_id, date, teacher_id, notes, created_at, updated_at`
		if err := tx.GetContext(ctx, &stored, sessionQuery, session.ID, session.ClassID, session.Date, session.TeacherID, session.Notes, now); err != nil {
			return fmt.Errorf("upsert attendance session: %w", err)
		}

		const recordQuery = `INSERT INTO attendance_records (id, session_id, program_profile_id, status, lesson_surah, lesson_pages, notes, marked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (session_id, program_profile_id)
DO UPDATE SET status = EXCLUDED.status, lesson_surah = EXCLUDED.lesson_surah, lesson_pages = EXCLUDED.lesson_pages,
    notes = EXCLUDED.notes, marked_at = EXCLUDED.marked_at
RETURNING id`
		for i := range records {
			rec := &records[i]
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			rec.SessionID = stored.ID
			rec.MarkedAt = now
			// a corrected record keeps the id it was first stored with
			if err := tx.GetContext(ctx, &rec.ID, recordQuery, rec.ID, rec.SessionID, rec.ProgramProfileID, rec.Status, rec.LessonSurah, rec.LessonPages, rec.Notes, rec.MarkedAt); err != nil {
				return fmt.Errorf("upsert attendance record for %s: %w", rec.ProgramProfileID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
