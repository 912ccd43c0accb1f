package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/pkg/contact"
)

// FamilyRepository flattens program profiles with their guardians for family grouping.
type FamilyRepository struct {
	db *sqlx.DB
}

// NewFamilyRepository constructs the repository.
func NewFamilyRepository(db *sqlx.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// ListFamilyRows returns one row per program profile with the first two active
// guardians (primary payer first) and their preferred email and phone.
func (r *FamilyRepository) ListFamilyRows(ctx context.Context, filter models.FamilyFilter) ([]models.FamilyRow, error) {
	args := []interface{}{contact.TypeEmail, contact.TypePhone, contact.TypeWhatsApp}
	var builder strings.Builder
	builder.WriteString(`WITH ranked AS (
    SELECT gr.dependent_id, p.id AS guardian_id, TRIM(p.first_name || ' ' || p.last_name) AS name,
        ROW_NUMBER() OVER (PARTITION BY gr.dependent_id ORDER BY gr.is_primary_payer DESC, gr.created_at ASC) AS rn
    FROM guardian_relationships gr
    JOIN persons p ON p.id = gr.guardian_id
    WHERE gr.is_active = true
), guardians AS (
    SELECT r.dependent_id, r.rn, r.name,
        (SELECT cp.value FROM contact_points cp WHERE cp.person_id = r.guardian_id AND cp.is_active = true AND cp.type = $1
            ORDER BY cp.is_primary DESC, cp.created_at ASC LIMIT 1) AS email,
        (SELECT cp.value FROM contact_points cp WHERE cp.person_id = r.guardian_id AND cp.is_active = true AND cp.type IN ($2, $3)
            ORDER BY cp.is_primary DESC, cp.created_at ASC LIMIT 1) AS phone
    FROM ranked r WHERE r.rn <= 2
)
SELECT pp.id AS profile_id, p.id AS person_id, TRIM(p.first_name || ' ' || p.last_name) AS child_name,
    pp.grade_level, pp.shift, pp.family_reference_id,
    g1.name AS guardian1_name, g1.email AS guardian1_email, g1.phone AS guardian1_phone,
    g2.name AS guardian2_name, g2.email AS guardian2_email, g2.phone AS guardian2_phone,
    pp.created_at
FROM program_profiles pp
JOIN persons p ON p.id = pp.person_id
LEFT JOIN guardians g1 ON g1.dependent_id = p.id AND g1.rn = 1
LEFT JOIN guardians g2 ON g2.dependent_id = p.id AND g2.rn = 2
WHERE 1=1`)

	if filter.Program != "" {
		args = append(args, filter.Program)
		fmt.Fprintf(&builder, " AND pp.program = $%d", len(args))
	}
	if filter.Shift != "" {
		args = append(args, filter.Shift)
		fmt.Fprintf(&builder, " AND pp.shift = $%d", len(args))
	}
	builder.WriteString(" ORDER BY pp.created_at DESC")

	var rows []models.FamilyRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list family rows: %w", err)
	}
	return rows, nil
}
