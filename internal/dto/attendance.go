package dto

// AttendanceStatsQuery filters attendance aggregates. Dates are YYYY-MM-DD;
// from is inclusive and to is exclusive.
type AttendanceStatsQuery struct {
	From      string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	ClassID   string `form:"classId"`
	TeacherID string `form:"teacherId"`
	Shift     string `form:"shift"`
}

// AttendanceTrendQuery compares a month (YYYY-MM) with the month before it.
type AttendanceTrendQuery struct {
	Month     string `form:"month" validate:"required,datetime=2006-01"`
	TeacherID string `form:"teacherId"`
	ClassID   string `form:"classId"`
}

// AttendanceMark is one student's mark in a session.
type AttendanceMark struct {
	ProgramProfileID string  `json:"programProfileId" validate:"required"`
	Status           string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED UNEXCUSED_ABSENT"`
	LessonSurah      *string `json:"lessonSurah"`
	LessonPages      *string `json:"lessonPages"`
	Notes            *string `json:"notes"`
}

// MarkAttendanceRequest records attendance for a class on a date.
type MarkAttendanceRequest struct {
	ClassID   string           `json:"classId" validate:"required"`
	Date      string           `json:"date" validate:"required,datetime=2006-01-02"`
	TeacherID string           `json:"-"`
	Notes     *string          `json:"notes"`
	Records   []AttendanceMark `json:"records" validate:"required,min=1,dive"`
}
