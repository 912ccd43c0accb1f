package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent         AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent          AttendanceStatus = "ABSENT"
	AttendanceStatusLate            AttendanceStatus = "LATE"
	AttendanceStatusExcused         AttendanceStatus = "EXCUSED"
	AttendanceStatusUnexcusedAbsent AttendanceStatus = "UNEXCUSED_ABSENT"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate,
		AttendanceStatusExcused, AttendanceStatusUnexcusedAbsent:
		return true
	default:
		return false
	}
}

// AttendanceSession is the unique (class, date) occurrence owning records.
type AttendanceSession struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Date      time.Time `db:"date" json:"date"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord is one mark per (session, program profile).
type AttendanceRecord struct {
	ID               string           `db:"id" json:"id"`
	SessionID        string           `db:"session_id" json:"session_id"`
	ProgramProfileID string           `db:"program_profile_id" json:"program_profile_id"`
	Status           AttendanceStatus `db:"status" json:"status"`
	LessonSurah      *string          `db:"lesson_surah" json:"lesson_surah,omitempty"`
	LessonPages      *string          `db:"lesson_pages" json:"lesson_pages,omitempty"`
	Notes            *string          `db:"notes" json:"notes,omitempty"`
	MarkedAt         time.Time        `db:"marked_at" json:"marked_at"`
}

// StatusCount is one row of a GROUP BY status aggregation.
type StatusCount struct {
	Status AttendanceStatus `db:"status" json:"status"`
	Count  int              `db:"count" json:"count"`
}

// GroupedStatusCount is a status count scoped to a grouping key (class or shift).
type GroupedStatusCount struct {
	GroupKey  string           `db:"group_key" json:"group_key"`
	GroupName string           `db:"group_name" json:"group_name"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Count     int              `db:"count" json:"count"`
}

// AttendanceFilter scopes attendance aggregations. Empty fields mean "no filter".
type AttendanceFilter struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	ClassID   string
	TeacherID string
	Shift     string
}

// RosterStudent is a class member as shown on attendance sheets.
type RosterStudent struct {
	ProgramProfileID  string  `db:"program_profile_id" json:"program_profile_id"`
	PersonID          string  `db:"person_id" json:"person_id"`
	Name              string  `db:"name" json:"name"`
	FamilyReferenceID *string `db:"family_reference_id" json:"family_reference_id,omitempty"`
	GradeLevel        *string `db:"grade_level" json:"grade_level,omitempty"`
}

// AttendanceTotals holds record counts per canonical status.
type AttendanceTotals struct {
	Present         int `json:"present"`
	Absent          int `json:"absent"`
	Late            int `json:"late"`
	Excused         int `json:"excused"`
	UnexcusedAbsent int `json:"unexcused_absent"`
}

// Total is the number of records across all canonical statuses.
func (t AttendanceTotals) Total() int {
	return t.Present + t.Absent + t.Late + t.Excused + t.UnexcusedAbsent
}

// AttendanceStats pairs totals with the derived attendance rate.
type AttendanceStats struct {
	Totals AttendanceTotals `json:"totals"`
	Total  int              `json:"total"`
	Rate   float64          `json:"rate"`
}

// AttendanceBreakdown is the stats of one class or shift, optionally compared to a previous period.
type AttendanceBreakdown struct {
	Key      string           `json:"key"`
	Name     string           `json:"name"`
	Current  AttendanceStats  `json:"current"`
	Previous *AttendanceStats `json:"previous,omitempty"`
	Diff     *float64         `json:"diff"`
}

// AttendanceReport is the aggregate for an arbitrary filter.
type AttendanceReport struct {
	Overall AttendanceStats       `json:"overall"`
	ByShift []AttendanceBreakdown `json:"by_shift"`
	ByClass []AttendanceBreakdown `json:"by_class"`
}

// AttendanceTrend compares a month with the month before it.
type AttendanceTrend struct {
	Month    string                `json:"month"`
	Current  AttendanceStats       `json:"current"`
	Previous AttendanceStats       `json:"previous"`
	Diff     *float64              `json:"diff"`
	ByShift  []AttendanceBreakdown `json:"by_shift"`
	ByClass  []AttendanceBreakdown `json:"by_class"`
}

// MarkedSession is the stored session together with the records written to it.
type MarkedSession struct {
	Session AttendanceSession  `json:"session"`
	Records []AttendanceRecord `json:"records"`
}
