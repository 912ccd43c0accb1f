package dto

// FamilyQuery filters the family listing.
type FamilyQuery struct {
	Program string `form:"program" validate:"omitempty,oneof=WEEKEND_SCHOOL K12_PROGRAM"`
	Shift   string `form:"shift"`
}

// FamilyExportQuery selects the export format.
type FamilyExportQuery struct {
	FamilyQuery
	Format string `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}
