package repository

import (
	"fmt"
	"strings"

	"github.com/noah-isme/school-roster-api/internal/models"
)

// BuildAttendanceWhere translates an attendance filter into a WHERE clause over
// attendance_sessions (s) and classes (c). DateFrom is inclusive and DateTo is
// exclusive so consecutive periods never share a day. Placeholders start at
// len(args)+1 so callers may prepend their own arguments.
func BuildAttendanceWhere(filter models.AttendanceFilter, args []interface{}) (string, []interface{}) {
	conditions := []string{"1=1"}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)))
	}
	if filter.Shift != "" {
		args = append(args, filter.Shift)
		conditions = append(conditions, fmt.Sprintf("c.shift = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conditions = append(conditions, fmt.Sprintf("s.date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conditions = append(conditions, fmt.Sprintf("s.date < $%d", len(args)))
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
