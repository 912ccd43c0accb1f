package service

import (
	"sort"

	"github.com/noah-isme/school-roster-api/internal/models"
)

// ComparePeriods returns the rate difference current minus previous, rounded
// to one decimal. It returns nil when the previous period has no records.
func ComparePeriods(current, previous models.AttendanceTotals) *float64 {
	if previous.Total() == 0 {
		return nil
	}
	diff := roundOneDecimal(AttendanceRate(current) - AttendanceRate(previous))
	return &diff
}

type groupTotals struct {
	name   string
	totals models.AttendanceTotals
}

func foldGroups(rows []models.GroupedStatusCount) map[string]*groupTotals {
	groups := make(map[string]*groupTotals)
	for _, row := range rows {
		g, ok := groups[row.GroupKey]
		if !ok {
			g = &groupTotals{name: row.GroupName}
			groups[row.GroupKey] = g
		}
		folded := AggregateStatusCounts([]models.StatusCount{{Status: row.Status, Count: row.Count}})
		g.totals.Present += folded.Present
		g.totals.Absent += folded.Absent
		g.totals.Late += folded.Late
		g.totals.Excused += folded.Excused
		g.totals.UnexcusedAbsent += folded.UnexcusedAbsent
	}
	return groups
}

// CompareGroups builds per-group breakdowns for the current period, each with
// its own independently nullable diff against the previous period. Groups only
// present in the previous period are omitted. A nil previous slice skips the
// comparison entirely.
func CompareGroups(current, previous []models.GroupedStatusCount) []models.AttendanceBreakdown {
	cur := foldGroups(current)
	var prev map[string]*groupTotals
	if previous != nil {
		prev = foldGroups(previous)
	}

	keys := make([]string, 0, len(cur))
	for key := range cur {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if cur[keys[i]].name != cur[keys[j]].name {
			return cur[keys[i]].name < cur[keys[j]].name
		}
		return keys[i] < keys[j]
	})

	out := make([]models.AttendanceBreakdown, 0, len(keys))
	for _, key := range keys {
		g := cur[key]
		breakdown := models.AttendanceBreakdown{Key: key, Name: g.name, Current: statsFor(g.totals)}
		if prev != nil {
			var prevTotals models.AttendanceTotals
			if p, ok := prev[key]; ok {
				prevTotals = p.totals
			}
			prevStats := statsFor(prevTotals)
			breakdown.Previous = &prevStats
			breakdown.Diff = ComparePeriods(g.totals, prevTotals)
		}
		out = append(out, breakdown)
	}
	return out
}
