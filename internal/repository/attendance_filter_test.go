package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-roster-api/internal/models"
)

func TestBuildAttendanceWhereEmpty(t *testing.T) {
	clause, args := BuildAttendanceWhere(models.AttendanceFilter{}, nil)
	assert.Equal(t, " WHERE 1=1", clause)
	assert.Empty(t, args)
}

func TestBuildAttendanceWhereAllFields(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	clause, args := BuildAttendanceWhere(models.AttendanceFilter{
		DateFrom:  &from,
		DateTo:    &to,
		ClassID:   "class-1",
		TeacherID: "teacher-1",
		Shift:     "MORNING",
	}, nil)

	assert.Equal(t, " WHERE 1=1 AND s.class_id = $1 AND c.teacher_id = $2 AND c.shift = $3 AND s.date >= $4 AND s.date < $5", clause)
	assert.Equal(t, []interface{}{"class-1", "teacher-1", "MORNING", from, to}, args)
}

func TestBuildAttendanceWhereContinuesPlaceholders(t *testing.T) {
	clause, args := BuildAttendanceWhere(models.AttendanceFilter{Shift: "AFTERNOON"}, []interface{}{"class-9"})
	assert.Equal(t, " WHERE 1=1 AND c.shift = $2", clause)
	assert.Equal(t, []interface{}{"class-9", "AFTERNOON"}, args)
}
