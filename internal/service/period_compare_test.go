package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster-api/internal/models"
)

func TestComparePeriodsNilWithoutHistory(t *testing.T) {
	current := models.AttendanceTotals{Present: 9, Absent: 1}
	assert.Nil(t, ComparePeriods(current, models.AttendanceTotals{}))
}

func TestComparePeriodsDiff(t *testing.T) {
	current := models.AttendanceTotals{Present: 9, Absent: 1}
	previous := models.AttendanceTotals{Present: 2, Absent: 1}

	diff := ComparePeriods(current, previous)
	require.NotNil(t, diff)
	assert.Equal(t, 23.3, *diff)

	zero := ComparePeriods(models.AttendanceTotals{}, previous)
	require.NotNil(t, zero)
	assert.Equal(t, -66.7, *zero)
}

func TestCompareGroupsIndependentDiffs(t *testing.T) {
	current := []models.GroupedStatusCount{
		{GroupKey: "MORNING", GroupName: "MORNING", Status: models.AttendanceStatusPresent, Count: 4},
		{GroupKey: "AFTERNOON", GroupName: "AFTERNOON", Status: models.AttendanceStatusPresent, Count: 3},
		{GroupKey: "AFTERNOON", GroupName: "AFTERNOON", Status: models.AttendanceStatusAbsent, Count: 1},
	}
	previous := []models.GroupedStatusCount{
		{GroupKey: "MORNING", GroupName: "MORNING", Status: models.AttendanceStatusPresent, Count: 1},
		{GroupKey: "MORNING", GroupName: "MORNING", Status: models.AttendanceStatusAbsent, Count: 1},
		{GroupKey: "EVENING", GroupName: "EVENING", Status: models.AttendanceStatusPresent, Count: 5},
	}

	out := CompareGroups(current, previous)
	require.Len(t, out, 2)

	assert.Equal(t, "AFTERNOON", out[0].Key)
	assert.Equal(t, 75.0, out[0].Current.Rate)
	assert.Nil(t, out[0].Diff)

	assert.Equal(t, "MORNING", out[1].Key)
	require.NotNil(t, out[1].Diff)
	assert.Equal(t, 50.0, *out[1].Diff)
}

func TestCompareGroupsWithoutPrevious(t *testing.T) {
	out := CompareGroups([]models.GroupedStatusCount{
		{GroupKey: "c1", GroupName: "Hifz A", Status: models.AttendanceStatusLate, Count: 2},
	}, nil)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Previous)
	assert.Nil(t, out[0].Diff)
	assert.Equal(t, 100.0, out[0].Current.Rate)
}
