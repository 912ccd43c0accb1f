package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/pkg/contact"
)

// PersonRepository reads and writes persons, contact points and the guardian/sibling graph.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs the repository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// FindByID returns a person with its active contact points.
func (r *PersonRepository) FindByID(ctx context.Context, id string) (*models.Person, error) {
	const query = `SELECT id, first_name, last_name, date_of_birth, created_at, updated_at FROM persons WHERE id = $1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, id); err != nil {
		return nil, err
	}
	points, err := r.ContactPoints(ctx, id)
	if err != nil {
		return nil, err
	}
	person.ContactPoints = points
	return &person, nil
}

// FindByContact returns the most recently updated person owning an active
// contact point equal to the already-normalized email or phone. Phone values
// match both PHONE and WHATSAPP points. Returns sql.ErrNoRows when nothing matches.
func (r *PersonRepository) FindByContact(ctx context.Context, email, phone *string) (*models.Person, error) {
	var matches []string
	var args []interface{}
	if email != nil {
		args = append(args, contact.TypeEmail, *email)
		matches = append(matches, fmt.Sprintf("(cp.type = $%d AND cp.value = $%d)", len(args)-1, len(args)))
	}
	if phone != nil {
		args = append(args, contact.TypePhone, contact.TypeWhatsApp, *phone)
		matches = append(matches, fmt.Sprintf("(cp.type IN ($%d, $%d) AND cp.value = $%d)", len(args)-2, len(args)-1, len(args)))
	}
	if len(matches) == 0 {
		return nil, sql.ErrNoRows
	}

	query := fmt.Sprintf(`SELECT p.id, p.first_name, p.last_name, p.date_of_birth, p.created_at, p.updated_at
        FROM persons p
        JOIN contact_points cp ON cp.person_id = p.id
        WHERE cp.is_active = true AND (%s)
        ORDER BY p.updated_at DESC
        LIMIT 1`, strings.Join(matches, " OR "))

	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, args...); err != nil {
		return nil, err
	}
	points, err := r.ContactPoints(ctx, person.ID)
	if err != nil {
		return nil, err
	}
	person.ContactPoints = points
	return &person, nil
}

// ContactPoints lists the active contact points of a person, primary first.
func (r *PersonRepository) ContactPoints(ctx context.Context, personID string) ([]models.ContactPoint, error) {
	const query = `SELECT id, person_id, type, value, is_active, is_primary, created_at
        FROM contact_points WHERE person_id = $1 AND is_active = true
        ORDER BY is_primary DESC, created_at ASC`
	var points []models.ContactPoint
	if err := r.db.SelectContext(ctx, &points, query, personID); err != nil {
		return nil, fmt.Errorf("list contact points: %w", err)
	}
	return points, nil
}

type relationshipRow struct {
	ID              string     `db:"id"`
	GuardianID      string     `db:"guardian_id"`
	DependentID     string     `db:"dependent_id"`
	Role            string     `db:"role"`
	IsActive        bool       `db:"is_active"`
	InactiveReason  *string    `db:"inactive_reason"`
	IsPrimaryPayer  bool       `db:"is_primary_payer"`
	CreatedAt       time.Time  `db:"created_at"`
	PersonID        string     `db:"person_id"`
	FirstName       string     `db:"first_name"`
	LastName        string     `db:"last_name"`
	DateOfBirth     *time.Time `db:"date_of_birth"`
	PersonCreatedAt time.Time  `db:"person_created_at"`
	PersonUpdatedAt time.Time  `db:"person_updated_at"`
}

func (row relationshipRow) person() *models.Person {
	return &models.Person{
		ID:          row.PersonID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		DateOfBirth: row.DateOfBirth,
		CreatedAt:   row.PersonCreatedAt,
		UpdatedAt:   row.PersonUpdatedAt,
	}
}

const guardianSelect = `SELECT gr.id, gr.guardian_id, gr.dependent_id, gr.role, gr.is_active, gr.inactive_reason,
        gr.is_primary_payer, gr.created_at, p.id AS person_id, p.first_name, p.last_name, p.date_of_birth,
        p.created_at AS person_created_at, p.updated_at AS person_updated_at
        FROM guardian_relationships gr`

// Guardians returns the active guardians of a dependent, primary payer first.
func (r *PersonRepository) Guardians(ctx context.Context, dependentID string) ([]models.GuardianRelationship, error) {
	query := guardianSelect + `
        JOIN persons p ON p.id = gr.guardian_id
        WHERE gr.dependent_id = $1 AND gr.is_active = true
        ORDER BY gr.is_primary_payer DESC, gr.created_at ASC`
	return r.selectGuardians(ctx, query, dependentID)
}

// Dependents returns the active dependents of a guardian.
func (r *PersonRepository) Dependents(ctx context.Context, guardianID string) ([]models.GuardianRelationship, error) {
	query := guardianSelect + `
        JOIN persons p ON p.id = gr.dependent_id
        WHERE gr.guardian_id = $1 AND gr.is_active = true
        ORDER BY p.first_name ASC, p.last_name ASC`
	return r.selectGuardians(ctx, query, guardianID)
}

func (r *PersonRepository) selectGuardians(ctx context.Context, query, personID string) ([]models.GuardianRelationship, error) {
	var rows []relationshipRow
	if err := r.db.SelectContext(ctx, &rows, query, personID); err != nil {
		return nil, fmt.Errorf("list guardian relationships: %w", err)
	}
	out := make([]models.GuardianRelationship, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.GuardianRelationship{
			ID:             row.ID,
			GuardianID:     row.GuardianID,
			DependentID:    row.DependentID,
			Role:           models.GuardianRole(row.Role),
			Status:         models.StatusFromColumns(row.IsActive, row.InactiveReason),
			IsPrimaryPayer: row.IsPrimaryPayer,
			CreatedAt:      row.CreatedAt,
			Person:         row.person(),
		})
	}
	return out, nil
}

// LinkGuardian creates the guardian edge or reactivates an existing one for the same role.
func (r *PersonRepository) LinkGuardian(ctx context.Context, rel *models.GuardianRelationship) error {
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	const query = `INSERT INTO guardian_relationships (id, guardian_id, dependent_id, role, is_active, inactive_reason, is_primary_payer, created_at, updated_at)
VALUES ($1, $2, $3, $4, true, NULL, $5, $6, $6)
ON CONFLICT (guardian_id, dependent_id, role)
DO UPDATE SET is_active = true, inactive_reason = NULL, is_primary_payer = EXCLUDED.is_primary_payer, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	var stored struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &stored, query, rel.ID, rel.GuardianID, rel.DependentID, rel.Role, rel.IsPrimaryPayer, now); err != nil {
		return fmt.Errorf("link guardian: %w", err)
	}
	rel.ID = stored.ID
	rel.CreatedAt = stored.CreatedAt
	rel.Status = models.ActiveStatus()
	return nil
}

// DeactivateGuardian soft-deactivates an active guardian edge. It returns
// sql.ErrNoRows when no active edge has the id.
func (r *PersonRepository) DeactivateGuardian(ctx context.Context, id, reason string) error {
	const query = `UPDATE guardian_relationships SET is_active = false, inactive_reason = $2, updated_at = $3
        WHERE id = $1 AND is_active = true`
	res, err := r.db.ExecContext(ctx, query, id, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate guardian: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate guardian rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type siblingRow struct {
	ID              string     `db:"id"`
	Person1ID       string     `db:"person1_id"`
	Person2ID       string     `db:"person2_id"`
	IsActive        bool       `db:"is_active"`
	InactiveReason  *string    `db:"inactive_reason"`
	CreatedAt       time.Time  `db:"created_at"`
	PersonID        string     `db:"person_id"`
	FirstName       string     `db:"first_name"`
	LastName        string     `db:"last_name"`
	DateOfBirth     *time.Time `db:"date_of_birth"`
	PersonCreatedAt time.Time  `db:"person_created_at"`
	PersonUpdatedAt time.Time  `db:"person_updated_at"`
}

// Siblings returns the active siblings of a person.
func (r *PersonRepository) Siblings(ctx context.Context, personID string) ([]models.SiblingRelationship, error) {
	const query = `SELECT sr.id, sr.person1_id, sr.person2_id, sr.is_active, sr.inactive_reason, sr.created_at,
        p.id AS person_id, p.first_name, p.last_name, p.date_of_birth,
        p.created_at AS person_created_at, p.updated_at AS person_updated_at
        FROM sibling_relationships sr
        JOIN persons p ON p.id = CASE WHEN sr.person1_id = $1 THEN sr.person2_id ELSE sr.person1_id END
        WHERE (sr.person1_id = $1 OR sr.person2_id = $1) AND sr.is_active = true
        ORDER BY p.first_name ASC, p.last_name ASC`
	var rows []siblingRow
	if err := r.db.SelectContext(ctx, &rows, query, personID); err != nil {
		return nil, fmt.Errorf("list siblings: %w", err)
	}
	out := make([]models.SiblingRelationship, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.SiblingRelationship{
			ID:        row.ID,
			Person1ID: row.Person1ID,
			Person2ID: row.Person2ID,
			Status:    models.StatusFromColumns(row.IsActive, row.InactiveReason),
			CreatedAt: row.CreatedAt,
			Sibling: &models.Person{
				ID:          row.PersonID,
				FirstName:   row.FirstName,
				LastName:    row.LastName,
				DateOfBirth: row.DateOfBirth,
				CreatedAt:   row.PersonCreatedAt,
				UpdatedAt:   row.PersonUpdatedAt,
			},
		})
	}
	return out, nil
}

// LinkSiblings stores the pair in canonical order; linking an existing pair reactivates it.
func (r *PersonRepository) LinkSiblings(ctx context.Context, a, b string) (*models.SiblingRelationship, error) {
	first, second := models.CanonicalSiblingPair(a, b)
	const query = `INSERT INTO sibling_relationships (id, person1_id, person2_id, is_active, inactive_reason, created_at)
VALUES ($1, $2, $3, true, NULL, $4)
ON CONFLICT (person1_id, person2_id)
DO UPDATE SET is_active = true, inactive_reason = NULL
RETURNING id, person1_id, person2_id, created_at`
	var stored struct {
		ID        string    `db:"id"`
		Person1ID string    `db:"person1_id"`
		Person2ID string    `db:"person2_id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &stored, query, uuid.NewString(), first, second, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("link siblings: %w", err)
	}
	return &models.SiblingRelationship{
		ID:        stored.ID,
		Person1ID: stored.Person1ID,
		Person2ID: stored.Person2ID,
		Status:    models.ActiveStatus(),
		CreatedAt: stored.CreatedAt,
	}, nil
}

// DuplicateCandidates lists program profiles with each active phone-like contact
// of their person, newest first within a phone value.
func (r *PersonRepository) DuplicateCandidates(ctx context.Context, filter models.DuplicateFilter) ([]models.DuplicateCandidateRow, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT pp.id AS profile_id, p.id AS person_id, TRIM(p.first_name || ' ' || p.last_name) AS name,
        pp.program, cp.value AS phone, GREATEST(pp.updated_at, p.updated_at) AS updated_at
        FROM program_profiles pp
        JOIN persons p ON p.id = pp.person_id
        JOIN contact_points cp ON cp.person_id = p.id AND cp.is_active = true AND cp.type IN ($1, $2)
        WHERE 1=1`)
	args := []interface{}{contact.TypePhone, contact.TypeWhatsApp}
	if filter.Program != "" {
		args = append(args, filter.Program)
		fmt.Fprintf(&builder, " AND pp.program = $%d", len(args))
	}
	builder.WriteString(" ORDER BY cp.value ASC, updated_at DESC")

	var rows []models.DuplicateCandidateRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list duplicate candidates: %w", err)
	}
	return rows, nil
}
