package service

import (
	"math"
	"sort"

	"github.com/noah-isme/school-roster-api/internal/models"
)

// AggregateStatusCounts folds grouped status rows into canonical totals.
// Rows with an unknown status are ignored.
func AggregateStatusCounts(rows []models.StatusCount) models.AttendanceTotals {
	var totals models.AttendanceTotals
	for _, row := range rows {
		switch row.Status {
		case models.AttendanceStatusPresent:
			totals.Present += row.Count
		case models.AttendanceStatusAbsent:
			totals.Absent += row.Count
		case models.AttendanceStatusLate:
			totals.Late += row.Count
		case models.AttendanceStatusExcused:
			totals.Excused += row.Count
		case models.AttendanceStatusUnexcusedAbsent:
			totals.UnexcusedAbsent += row.Count
		}
	}
	return totals
}

// AttendanceRate is (present + late) / total as a percentage with one decimal.
// An empty period has a rate of 0.
func AttendanceRate(totals models.AttendanceTotals) float64 {
	total := totals.Total()
	if total == 0 {
		return 0
	}
	return roundOneDecimal(float64(totals.Present+totals.Late) / float64(total) * 100)
}

func statsFor(totals models.AttendanceTotals) models.AttendanceStats {
	return models.AttendanceStats{Totals: totals, Total: totals.Total(), Rate: AttendanceRate(totals)}
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

// SortSiblingAware orders students so siblings sit together: family groups by
// reference id ascending, names ascending within a group, then students
// without a family reference by name. The input is not modified.
func SortSiblingAware(students []models.RosterStudent) []models.RosterStudent {
	out := make([]models.RosterStudent, len(students))
	copy(out, students)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := familyRef(out[i]), familyRef(out[j])
		switch {
		case a != "" && b == "":
			return true
		case a == "" && b != "":
			return false
		case a != b:
			return a < b
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func familyRef(s models.RosterStudent) string {
	if s.FamilyReferenceID == nil {
		return ""
	}
	return *s.FamilyReferenceID
}
