package service

import (
	"sort"

	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/pkg/contact"
)

// FamilyKey picks the grouping key of a row: "ref:" plus the family reference
// when set, otherwise "email:" plus the normalized first guardian email,
// otherwise "profile:" plus the profile id. Each source has its own prefix.
func FamilyKey(row models.FamilyRow) string {
	if row.FamilyReferenceID != nil && *row.FamilyReferenceID != "" {
		return familyRefPrefix + *row.FamilyReferenceID
	}
	if row.Guardian1Email != nil {
		if email, ok := contact.NormalizeEmail(*row.Guardian1Email); ok {
			return "email:" + email
		}
	}
	return "profile:" + row.ProfileID
}

const familyRefPrefix = "ref:"

// GroupFamilies partitions rows into families. The first row of a family sets
// guardian 1; guardian 2 fields are filled from the first row that has them.
// RegisteredAt is the latest row timestamp and families are returned newest first.
func GroupFamilies(rows []models.FamilyRow) []models.Family {
	index := make(map[string]int, len(rows))
	families := make([]models.Family, 0)

	for _, row := range rows {
		key := FamilyKey(row)
		i, seen := index[key]
		if !seen {
			families = append(families, models.Family{
				Key: key,
				Guardian1: models.GuardianContact{
					Name:  row.Guardian1Name,
					Email: row.Guardian1Email,
					Phone: row.Guardian1Phone,
				},
				RegisteredAt: row.CreatedAt,
			})
			i = len(families) - 1
			index[key] = i
		}

		family := &families[i]
		setIfAbsent(&family.Guardian2.Name, row.Guardian2Name)
		setIfAbsent(&family.Guardian2.Email, row.Guardian2Email)
		setIfAbsent(&family.Guardian2.Phone, row.Guardian2Phone)
		if row.CreatedAt.After(family.RegisteredAt) {
			family.RegisteredAt = row.CreatedAt
		}
		family.Children = append(family.Children, models.FamilyChild{
			ProfileID:  row.ProfileID,
			PersonID:   row.PersonID,
			Name:       row.ChildName,
			GradeLevel: row.GradeLevel,
			Shift:      row.Shift,
			CreatedAt:  row.CreatedAt,
		})
	}

	sort.SliceStable(families, func(i, j int) bool {
		if !families[i].RegisteredAt.Equal(families[j].RegisteredAt) {
			return families[i].RegisteredAt.After(families[j].RegisteredAt)
		}
		return families[i].Key < families[j].Key
	})
	return families
}

func setIfAbsent(dst **string, value *string) {
	if *dst == nil && value != nil {
		*dst = value
	}
}
