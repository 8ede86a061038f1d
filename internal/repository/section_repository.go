package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campustools/timetable-api/internal/models"
)

const sectionColumns = "id, code, program, year_level, created_at, updated_at"

// SectionRepository provides persistence for sections and their
// subject loads.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new section repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns sections matching the filter.
func (r *SectionRepository) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, int, error) {
	base := "FROM sections WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.YearLevel != nil {
		conditions = append(conditions, fmt.Sprintf("year_level = $%d", len(args)+1))
		args = append(args, *filter.YearLevel)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("code ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC LIMIT %d OFFSET %d", sectionColumns, base, size, offset)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sections: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count sections: %w", err)
	}

	return sections, total, nil
}

// FindByID loads one section.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE id = $1", sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// ListSubjectDemand returns the section's assigned subjects together with
// the minutes already committed for each one in the term. This is the
// demand input the auto-scheduler works from.
func (r *SectionRepository) ListSubjectDemand(ctx context.Context, sectionID, termID string) ([]models.SubjectDemandRow, error) {
	const query = `SELECT
			sub.id AS subject_id,
			sub.code AS subject_code,
			sub.units AS units,
			sub.room_type AS room_type,
			COALESCE(SUM(EXTRACT(EPOCH FROM (cs.end_time::time - cs.start_time::time)) / 60), 0)::int AS scheduled_minutes
		FROM section_subjects ss
		JOIN subjects sub ON sub.id = ss.subject_id
		LEFT JOIN class_sessions cs
			ON cs.subject_id = sub.id AND cs.section_id = ss.section_id AND cs.term_id = ss.term_id
		WHERE ss.section_id = $1 AND ss.term_id = $2
		GROUP BY sub.id, sub.code, sub.units, sub.room_type
		ORDER BY sub.code ASC`
	var rows []models.SubjectDemandRow
	if err := r.db.SelectContext(ctx, &rows, query, sectionID, termID); err != nil {
		return nil, fmt.Errorf("list subject demand: %w", err)
	}
	return rows, nil
}

// AssignSubject links a subject to a section's load for a term.
func (r *SectionRepository) AssignSubject(ctx context.Context, sectionID, subjectID, termID string) error {
	const query = `INSERT INTO section_subjects (id, section_id, subject_id, term_id, created_at)
		VALUES ($1, $2, $3, $4, NOW()) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), sectionID, subjectID, termID); err != nil {
		return fmt.Errorf("assign subject to section: %w", err)
	}
	return nil
}

// UnassignSubject removes a subject from a section's load for a term.
func (r *SectionRepository) UnassignSubject(ctx context.Context, sectionID, subjectID, termID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM section_subjects WHERE section_id = $1 AND subject_id = $2 AND term_id = $3", sectionID, subjectID, termID); err != nil {
		return fmt.Errorf("unassign subject from section: %w", err)
	}
	return nil
}

// Create inserts a section.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, code, program, year_level, created_at, updated_at)
		VALUES (:id, :code, :program, :year_level, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update persists section changes.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET code = :code, program = :program, year_level = :year_level, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, section)
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("section %s not found", section.ID)
	}
	return nil
}

// Delete removes a section.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sections WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("section %s not found", id)
	}
	return nil
}
