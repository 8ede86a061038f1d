package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campustools/timetable-api/internal/models"
)

const sessionColumns = "id, term_id, section_id, subject_id, room_id, day_of_week, start_time, end_time, created_at, updated_at"

// ClassSessionRepository provides persistence for committed class sessions.
type ClassSessionRepository struct {
	db *sqlx.DB
}

// NewClassSessionRepository creates a new session repository.
func NewClassSessionRepository(db *sqlx.DB) *ClassSessionRepository {
	return &ClassSessionRepository{db: db}
}

// List returns sessions with optional filtering and pagination.
func (r *ClassSessionRepository) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSession, int, error) {
	base := "FROM class_sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day_of_week": true,
		"start_time":  true,
		"room_id":     true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, start_time ASC LIMIT %d OFFSET %d", sessionColumns, base, sortBy, order, size, offset)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class sessions: %w", err)
	}

	return sessions, total, nil
}

// ListByRoomAndDay returns a room's term-scoped bookings for one weekday,
// ordered by start time. Feeds the deterministic slot finder.
func (r *ClassSessionRepository) ListByRoomAndDay(ctx context.Context, termID, roomID, dayOfWeek string) ([]models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE term_id = $1 AND room_id = $2 AND day_of_week = $3 ORDER BY start_time ASC", sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, termID, roomID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list sessions by room and day: %w", err)
	}
	return sessions, nil
}

// ListBySectionAndDay returns a section's term-scoped bookings for one weekday.
func (r *ClassSessionRepository) ListBySectionAndDay(ctx context.Context, termID, sectionID, dayOfWeek string) ([]models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE term_id = $1 AND section_id = $2 AND day_of_week = $3 ORDER BY start_time ASC", sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, termID, sectionID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list sessions by section and day: %w", err)
	}
	return sessions, nil
}

// ListBySection returns all of a section's sessions in a term.
func (r *ClassSessionRepository) ListBySection(ctx context.Context, termID, sectionID string) ([]models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE term_id = $1 AND section_id = $2 ORDER BY day_of_week ASC, start_time ASC", sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, termID, sectionID); err != nil {
		return nil, fmt.Errorf("list sessions by section: %w", err)
	}
	return sessions, nil
}

// ListBySubjectAndSection returns the committed sessions backing a
// subject's duration accounting for one section.
func (r *ClassSessionRepository) ListBySubjectAndSection(ctx context.Context, termID, sectionID, subjectID string) ([]models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE term_id = $1 AND section_id = $2 AND subject_id = $3 ORDER BY day_of_week ASC, start_time ASC", sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, termID, sectionID, subjectID); err != nil {
		return nil, fmt.Errorf("list sessions by subject and section: %w", err)
	}
	return sessions, nil
}

// ListForConflictCheck merges the term-scoped sessions that share any of
// the given rooms or the section, sorted by start time. This is the
// persisted snapshot the batch validator runs its conflict test against.
func (r *ClassSessionRepository) ListForConflictCheck(ctx context.Context, termID string, roomIDs []string, sectionID string) ([]models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE term_id = $1 AND (room_id = ANY($2) OR section_id = $3) ORDER BY start_time ASC", sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, termID, pq.Array(roomIDs), sectionID); err != nil {
		return nil, fmt.Errorf("list sessions for conflict check: %w", err)
	}
	return sessions, nil
}

// BulkCreateWithTx inserts a batch of sessions inside the caller's
// transaction so acceptance stays all-or-nothing.
func (r *ClassSessionRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.ClassSession) error {
	if len(sessions) == 0 {
		return nil
	}
	const query = `INSERT INTO class_sessions (id, term_id, section_id, subject_id, room_id, day_of_week, start_time, end_time, created_at, updated_at)
		VALUES (:id, :term_id, :section_id, :subject_id, :room_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range sessions {
		if sessions[i].ID == "" {
			sessions[i].ID = uuid.NewString()
		}
		sessions[i].CreatedAt = now
		sessions[i].UpdatedAt = now
	}
	if _, err := tx.NamedExecContext(ctx, query, sessions); err != nil {
		return fmt.Errorf("bulk create class sessions: %w", err)
	}
	return nil
}

// FindByID loads one session.
func (r *ClassSessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE id = $1", sessionColumns)
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes a committed session.
func (r *ClassSessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM class_sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete class session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete class session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("class session %s not found", id)
	}
	return nil
}
