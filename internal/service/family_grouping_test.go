package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster-api/internal/models"
)

func familyRow(id, ref, child string, created time.Time) models.FamilyRow {
	row := models.FamilyRow{ProfileID: id, PersonID: "person-" + id, ChildName: child, CreatedAt: created}
	if ref != "" {
		row.FamilyReferenceID = &ref
	}
	return row
}

func TestGroupFamiliesScenario(t *testing.T) {
	base := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	rows := []models.FamilyRow{
		familyRow("1", "F1", "Alice", base),
		familyRow("2", "F1", "Bob", base.Add(time.Hour)),
		familyRow("3", "F2", "Carl", base.Add(30*time.Minute)),
	}

	families := GroupFamilies(rows)
	require.Len(t, families, 2)

	assert.Equal(t, "ref:F1", families[0].Key)
	assert.Equal(t, base.Add(time.Hour), families[0].RegisteredAt)
	require.Len(t, families[0].Children, 2)
	assert.Equal(t, "Alice", families[0].Children[0].Name)
	assert.Equal(t, "Bob", families[0].Children[1].Name)

	assert.Equal(t, "F2", families[1].Key)
	require.Len(t, families[1].Children, 1)
	assert.Equal(t, "Carl", families[1].Children[0].Name)
}

func TestGroupFamiliesKeyFallbacks(t *testing.T) {
	now := time.Now()
	withEmail := func(id, email string) models.FamilyRow {
		row := familyRow(id, "", "child-"+id, now)
		row.Guardian1Email = &email
		return row
	}
	rows := []models.FamilyRow{
		withEmail("1", "Parent@Example.com "),
		withEmail("2", "parent@example.com"),
		familyRow("3", "", "orphan", now),
		withEmail("4", "   "),
	}

	families := GroupFamilies(rows)
	keys := map[string]int{}
	for _, f := range families {
		keys[f.Key] = len(f.Children)
	}
	assert.Equal(t, map[string]int{"email:parent@example.com": 2, "profile:3": 1, "profile:4": 1}, keys)
}

func TestGroupFamiliesReferenceLookingLikeFallback(t *testing.T) {
	now := time.Now()
	referenced := familyRow("1", "email:a@x.com", "Ayla", now)
	unreferenced := familyRow("2", "", "Bashir", now)
	email := "A@x.com"
	unreferenced.Guardian1Email = &email

	families := GroupFamilies([]models.FamilyRow{referenced, unreferenced})
	require.Len(t, families, 2)
	keys := []string{families[0].Key, families[1].Key}
	assert.ElementsMatch(t, []string{"ref:email:a@x.com", "email:a@x.com"}, keys)
}

func TestGroupFamiliesGuardianTwoSetIfAbsent(t *testing.T) {
	now := time.Now()
	first := familyRow("1", "F1", "Alice", now)
	g1 := "Maryam"
	first.Guardian1Name = &g1
	second := familyRow("2", "F1", "Bob", now)
	other1, phone := "Ignored", "5550002222"
	later := "Later"
	second.Guardian1Name = &other1
	second.Guardian2Phone = &phone
	third := familyRow("3", "F1", "Cara", now)
	third.Guardian2Phone = &later
	third.Guardian2Name = &later

	families := GroupFamilies([]models.FamilyRow{first, second, third})
	require.Len(t, families, 1)
	f := families[0]
	assert.Equal(t, "Maryam", *f.Guardian1.Name)
	assert.Equal(t, "5550002222", *f.Guardian2.Phone)
	assert.Equal(t, "Later", *f.Guardian2.Name)
	assert.Nil(t, f.Guardian2.Email)
}

func TestGroupFamiliesInvariants(t *testing.T) {
	now := time.Now()
	rows := []models.FamilyRow{
		familyRow("1", "F9", "a", now),
		familyRow("2", "", "b", now),
		familyRow("3", "F1", "c", now.Add(-time.Hour)),
		familyRow("4", "F9", "d", now.Add(-2*time.Hour)),
		familyRow("5", "", "e", now.Add(time.Minute)),
	}
	reversed := make([]models.FamilyRow, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}

	for _, input := range [][]models.FamilyRow{rows, reversed} {
		families := GroupFamilies(input)
		children := 0
		for i, f := range families {
			children += len(f.Children)
			if i > 0 {
				assert.False(t, f.RegisteredAt.After(families[i-1].RegisteredAt))
			}
			if f.Key == "F9" {
				assert.Len(t, f.Children, 2)
			}
		}
		assert.Equal(t, len(rows), children)
	}
}
