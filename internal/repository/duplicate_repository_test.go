package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/pkg/contact"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

var profileColumns = []string{"id", "person_id", "program", "grade_level", "shift", "family_reference_id", "school_name", "health_info", "created_at", "updated_at"}

func strPtr(s string) *string { return &s }

func TestDuplicateRepositoryMerge(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewDuplicateRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM program_profiles WHERE id = ANY($1) FOR UPDATE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("pp-keep", "person-keep", "WEEKEND_SCHOOL", "3", nil, nil, nil, nil, now, now).
			AddRow("pp-dup", "person-dup", "WEEKEND_SCHOOL", nil, nil, nil, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE program_profile_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "program_profile_id", "batch_id", "status", "start_date", "end_date", "reason", "created_at", "updated_at"}).
			AddRow("enr-1", "pp-dup", nil, "ENROLLED", now, nil, nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET program_profile_id = $1")).
		WithArgs("pp-keep", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM program_profiles WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM persons p")).
		WithArgs(sqlmock.AnyArg(), "person-keep").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("person-dup"))
	mock.ExpectCommit()

	result, err := repo.Merge(context.Background(), MergeRequest{KeepProfileID: "pp-keep", DeleteProfileIDs: []string{"pp-dup"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.EnrollmentsMoved)
	assert.Equal(t, []string{"pp-dup"}, result.DeletedProfileIDs)
	assert.Equal(t, []string{"person-dup"}, result.DeletedPersonIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDuplicateRepositoryMergeRollsBackOnFailure(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewDuplicateRepository(db)
	now := time.Now()
	contactColumns := []string{"id", "person_id", "type", "value", "is_active", "is_primary", "created_at"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("pp-keep", "person-keep", "K12_PROGRAM", nil, nil, nil, nil, nil, now, now).
			AddRow("pp-dup", "person-dup", "K12_PROGRAM", "5", nil, nil, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM contact_points WHERE person_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(contactColumns))
	mock.ExpectQuery(regexp.QuoteMeta("FROM contact_points WHERE person_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(contactColumns).AddRow("cp-1", "person-dup", "PHONE", "5551234567", true, true, now))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contact_points")).
		WithArgs(sqlmock.AnyArg(), "person-keep", contact.TypePhone, "5551234567", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE program_profiles SET grade_level")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE billing_assignments")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	result, err := repo.Merge(context.Background(), MergeRequest{KeepProfileID: "pp-keep", DeleteProfileIDs: []string{"pp-dup"}, MergeData: true})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "reparent billing assignments")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDuplicateRepositoryMergeRejectsCrossProgram(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewDuplicateRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("pp-keep", "person-1", "WEEKEND_SCHOOL", nil, nil, nil, nil, nil, now, now).
			AddRow("pp-other", "person-2", "K12_PROGRAM", nil, nil, nil, nil, nil, now, now))
	mock.ExpectRollback()

	_, err := repo.Merge(context.Background(), MergeRequest{KeepProfileID: "pp-keep", DeleteProfileIDs: []string{"pp-other"}, MergeData: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrCrossProgramMerge))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDuplicateRepositoryMergeMissingProfile(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewDuplicateRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("pp-keep", "person-1", "WEEKEND_SCHOOL", nil, nil, nil, nil, nil, now, now))
	mock.ExpectRollback()

	_, err := repo.Merge(context.Background(), MergeRequest{KeepProfileID: "pp-keep", DeleteProfileIDs: []string{"pp-gone"}})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillProfile(t *testing.T) {
	keep := models.ProgramProfile{ID: "keep", Shift: strPtr("MORNING")}
	deletes := []models.ProgramProfile{
		{ID: "a", Shift: strPtr("AFTERNOON")},
		{ID: "b", GradeLevel: strPtr("4"), SchoolName: strPtr("Oak Elementary")},
		{ID: "c", GradeLevel: strPtr("5")},
	}

	filled := backfillProfile(&keep, deletes)
	assert.Equal(t, []string{"grade_level", "school_name"}, filled)
	assert.Equal(t, "MORNING", *keep.Shift)
	assert.Equal(t, "4", *keep.GradeLevel)
	assert.Equal(t, "Oak Elementary", *keep.SchoolName)
	assert.Nil(t, keep.HealthInfo)
}

func TestMissingContacts(t *testing.T) {
	existing := []models.ContactPoint{{Type: contact.TypeEmail, Value: "amina@example.com"}}
	source := []models.ContactPoint{
		{Type: contact.TypeEmail, Value: "amina@example.com"},
		{Type: contact.TypePhone, Value: "5551234567"},
		{Type: contact.TypeWhatsApp, Value: "5551234567"},
		{Type: contact.TypePhone, Value: "5551234567"},
	}

	out := missingContacts(existing, source)
	require.Len(t, out, 2)
	assert.Equal(t, contact.TypePhone, out[0].Type)
	assert.Equal(t, contact.TypeWhatsApp, out[1].Type)
}

func TestCollidingEnrollmentsPrefersKeep(t *testing.T) {
	active := []models.Enrollment{
		{ID: "newest", ProgramProfileID: "dup"},
		{ID: "keep-enr", ProgramProfileID: "keep"},
		{ID: "older", ProgramProfileID: "dup"},
	}
	assert.Equal(t, []string{"newest", "older"}, collidingEnrollments(active, "keep"))
	assert.Equal(t, []string{"keep-enr", "older"}, collidingEnrollments(active, "other"))
	assert.Nil(t, collidingEnrollments(active[:1], "keep"))
}
