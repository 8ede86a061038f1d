package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campustools/timetable-api/internal/dto"
	"github.com/campustools/timetable-api/internal/models"
	"github.com/campustools/timetable-api/internal/timetable"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
)

type classSessionRepository interface {
	List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSession, int, error)
	ListByRoomAndDay(ctx context.Context, termID, roomID, dayOfWeek string) ([]models.ClassSession, error)
	ListBySectionAndDay(ctx context.Context, termID, sectionID, dayOfWeek string) ([]models.ClassSession, error)
	ListBySection(ctx context.Context, termID, sectionID string) ([]models.ClassSession, error)
	ListForConflictCheck(ctx context.Context, termID string, roomIDs []string, sectionID string) ([]models.ClassSession, error)
	BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.ClassSession) error
}

type timetableRoomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ListActive(ctx context.Context) ([]models.Room, error)
}

type timetableSubjectReader interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Subject, error)
}

type timetableSectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
	ListSubjectDemand(ctx context.Context, sectionID, termID string) ([]models.SubjectDemandRow, error)
}

type timetableTermReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableService hosts the interactive scheduling operations: slot
// suggestion, batch commit and timetable reads.
type TimetableService struct {
	sessions  classSessionRepository
	rooms     timetableRoomReader
	subjects  timetableSubjectReader
	sections  timetableSectionReader
	terms     timetableTermReader
	cache     cacheStore
	tx        txProvider
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService wires the timetable dependencies. cache may be nil.
func NewTimetableService(
	sessions classSessionRepository,
	rooms timetableRoomReader,
	subjects timetableSubjectReader,
	sections timetableSectionReader,
	terms timetableTermReader,
	cache cacheStore,
	tx txProvider,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &TimetableService{
		sessions:  sessions,
		rooms:     rooms,
		subjects:  subjects,
		sections:  sections,
		terms:     terms,
		cache:     cache,
		tx:        tx,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// SuggestSlot returns the earliest free gap of the requested length on
// one day of a room's or a section's timetable. An absent gap is a
// Found=false response, not an error.
func (s *TimetableService) SuggestSlot(ctx context.Context, req dto.SuggestSlotRequest) (*dto.SuggestSlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot suggestion payload")
	}
	day, err := timetable.ParseWeekday(req.Day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown day %q", req.Day))
	}
	if req.DurationMinutes%timetable.GridMinutes != 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duration must be a multiple of %d minutes", timetable.GridMinutes))
	}

	var booked []models.ClassSession
	switch req.Dimension {
	case "room":
		if _, err := s.rooms.FindByID(ctx, req.RoomID); err != nil {
			return nil, notFoundOr(err, fmt.Sprintf("room %q not found", req.RoomID))
		}
		booked, err = s.sessions.ListByRoomAndDay(ctx, req.TermID, req.RoomID, string(day))
	case "section":
		if _, err := s.sections.FindByID(ctx, req.SectionID); err != nil {
			return nil, notFoundOr(err, fmt.Sprintf("section %q not found", req.SectionID))
		}
		booked, err = s.sessions.ListBySectionAndDay(ctx, req.TermID, req.SectionID, string(day))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load day bookings")
	}

	busy := make([]timetable.Interval, 0, len(booked))
	for _, session := range booked {
		iv, err := intervalOf(session)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored session has malformed times")
		}
		busy = append(busy, iv)
	}

	slot, found := timetable.FindSlot(req.DurationMinutes, busy)
	resp := &dto.SuggestSlotResponse{Found: found, Day: string(day)}
	if found {
		resp.StartTime = timetable.FormatClock(slot.Start)
		resp.EndTime = timetable.FormatClock(slot.End)
		resp.Display = displayRange(slot)
	}
	return resp, nil
}

// CommitBatch validates a proposed batch against the engine's full check
// sequence and, unless DryRun is set, persists it atomically. A rejected
// batch is reported through the response, not as an error.
func (s *TimetableService) CommitBatch(ctx context.Context, req dto.CommitBatchRequest) (*dto.CommitBatchResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("term %q not found", req.TermID))
	}

	proposed := make([]timetable.Session, len(req.Sessions))
	for i, proposal := range req.Sessions {
		session, violation := buildProposal(proposal, req.SectionID, i)
		if violation != nil {
			return &dto.CommitBatchResponse{Violation: violation}, nil
		}
		proposed[i] = session
	}

	catalog, scheduled, err := s.loadValidationContext(ctx, req, proposed)
	if err != nil {
		return nil, err
	}

	persisted, err := s.loadPersistedNeighbours(ctx, req.TermID, req.SectionID, proposed)
	if err != nil {
		return nil, err
	}

	if batchErr := timetable.ValidateBatch(proposed, persisted, scheduled, catalog); batchErr != nil {
		return &dto.CommitBatchResponse{Violation: toViolation(batchErr)}, nil
	}

	rows := make([]models.ClassSession, len(proposed))
	for i, session := range proposed {
		rows[i] = toModel(session, req.TermID)
	}

	if req.DryRun {
		return &dto.CommitBatchResponse{Valid: true, Sessions: viewsOf(rows)}, nil
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin batch commit")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.sessions.BulkCreateWithTx(ctx, tx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist batch")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit batch")
	}

	s.invalidateTimetables(ctx)
	s.logger.Info("batch committed",
		zap.String("term_id", req.TermID),
		zap.String("section_id", req.SectionID),
		zap.Int("sessions", len(rows)))

	return &dto.CommitBatchResponse{Valid: true, Committed: true, Sessions: viewsOf(rows)}, nil
}

// SectionTimetable returns a section's full weekly timetable for a term.
func (s *TimetableService) SectionTimetable(ctx context.Context, termID, sectionID string) ([]dto.SessionView, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("section %q not found", sectionID))
	}

	cacheKey := fmt.Sprintf("timetable:section:%s:%s", termID, sectionID)
	if s.cache != nil {
		var cached []dto.SessionView
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := s.sessions.ListBySection(ctx, termID, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load section timetable")
	}
	views := viewsOf(rows)
	sortViews(views)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, views, s.cacheTTL); err != nil {
			s.logger.Warn("cache section timetable", zap.Error(err))
		}
	}
	return views, nil
}

// RoomTimetable returns a room's full weekly timetable for a term.
func (s *TimetableService) RoomTimetable(ctx context.Context, termID, roomID string) ([]dto.SessionView, error) {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("room %q not found", roomID))
	}

	cacheKey := fmt.Sprintf("timetable:room:%s:%s", termID, roomID)
	if s.cache != nil {
		var cached []dto.SessionView
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	rows, _, err := s.sessions.List(ctx, models.ClassSessionFilter{TermID: termID, RoomID: roomID, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room timetable")
	}
	views := viewsOf(rows)
	sortViews(views)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, views, s.cacheTTL); err != nil {
			s.logger.Warn("cache room timetable", zap.Error(err))
		}
	}
	return views, nil
}

// SectionDemand reports the duration accounting of a section's curriculum.
func (s *TimetableService) SectionDemand(ctx context.Context, termID, sectionID string) ([]dto.SubjectDemandView, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("section %q not found", sectionID))
	}
	rows, err := s.sections.ListSubjectDemand(ctx, sectionID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subject demand")
	}

	views := make([]dto.SubjectDemandView, 0, len(rows))
	for _, row := range rows {
		demand := timetable.SubjectDemand{
			SubjectID:        row.SubjectID,
			Units:            row.Units,
			RoomType:         timetable.RoomType(row.RoomType),
			ScheduledMinutes: row.ScheduledMinutes,
		}
		views = append(views, dto.SubjectDemandView{
			SubjectID:        row.SubjectID,
			SubjectCode:      row.SubjectCode,
			Units:            row.Units,
			RequiredMinutes:  demand.RequiredMinutes(),
			ScheduledMinutes: row.ScheduledMinutes,
			RemainingMinutes: demand.RemainingMinutes(),
			Excess:           demand.Excess(),
		})
	}
	return views, nil
}

func (s *TimetableService) loadValidationContext(ctx context.Context, req dto.CommitBatchRequest, proposed []timetable.Session) (timetable.Catalog, map[string]int, error) {
	catalog := timetable.Catalog{
		Rooms:    make(map[string]timetable.Room),
		Subjects: make(map[string]timetable.SubjectInfo),
		Sections: make(map[string]struct{}),
	}

	if _, err := s.sections.FindByID(ctx, req.SectionID); err == nil {
		catalog.Sections[req.SectionID] = struct{}{}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return catalog, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load section")
	}

	for _, roomID := range distinctRoomIDs(proposed) {
		room, err := s.rooms.FindByID(ctx, roomID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return catalog, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load rooms")
		}
		catalog.Rooms[room.ID] = timetable.Room{ID: room.ID, Type: timetable.RoomType(room.Type)}
	}

	subjectIDs := make([]string, 0, len(proposed))
	seen := make(map[string]struct{}, len(proposed))
	for _, session := range proposed {
		if _, ok := seen[session.SubjectID]; ok {
			continue
		}
		seen[session.SubjectID] = struct{}{}
		subjectIDs = append(subjectIDs, session.SubjectID)
	}
	subjects, err := s.subjects.FindByIDs(ctx, subjectIDs)
	if err != nil {
		return catalog, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subjects")
	}
	for id, subject := range subjects {
		catalog.Subjects[id] = timetable.SubjectInfo{Units: subject.Units, RoomType: timetable.RoomType(subject.RoomType)}
	}

	scheduled := make(map[string]int)
	demand, err := s.sections.ListSubjectDemand(ctx, req.SectionID, req.TermID)
	if err != nil {
		return catalog, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subject demand")
	}
	for _, row := range demand {
		scheduled[row.SubjectID] = row.ScheduledMinutes
	}
	return catalog, scheduled, nil
}

func (s *TimetableService) loadPersistedNeighbours(ctx context.Context, termID, sectionID string, proposed []timetable.Session) ([]timetable.Session, error) {
	rows, err := s.sessions.ListForConflictCheck(ctx, termID, distinctRoomIDs(proposed), sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load persisted sessions")
	}
	persisted := make([]timetable.Session, 0, len(rows))
	for _, row := range rows {
		session, err := toEngine(row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored session has malformed times")
		}
		persisted = append(persisted, session)
	}
	return persisted, nil
}

func (s *TimetableService) invalidateTimetables(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
		s.logger.Warn("invalidate timetable cache", zap.Error(err))
	}
}

// buildProposal turns one wire proposal into an engine session. Malformed
// times are reported as batch violations so callers get the same shape as
// every other rejection.
func buildProposal(p dto.SessionProposal, sectionID string, index int) (timetable.Session, *dto.BatchViolation) {
	start, err := timetable.ParseClock(p.StartTime)
	if err != nil {
		return timetable.Session{}, &dto.BatchViolation{
			Code:    timetable.BatchCodeInvalidTime,
			Index:   index,
			Message: fmt.Sprintf("start time %q is not HH:MM", p.StartTime),
		}
	}
	end, err := timetable.ParseClock(p.EndTime)
	if err != nil {
		return timetable.Session{}, &dto.BatchViolation{
			Code:    timetable.BatchCodeInvalidTime,
			Index:   index,
			Message: fmt.Sprintf("end time %q is not HH:MM", p.EndTime),
		}
	}
	return timetable.Session{
		Day:       timetable.Weekday(strings.ToUpper(p.Day)),
		Interval:  timetable.Interval{Start: start, End: end},
		RoomID:    p.RoomID,
		SectionID: sectionID,
		SubjectID: p.SubjectID,
	}, nil
}

func toViolation(err *timetable.BatchError) *dto.BatchViolation {
	v := &dto.BatchViolation{Code: err.Code, Index: err.Index, Message: err.Message}
	if err.OtherIndex >= 0 {
		other := err.OtherIndex
		v.OtherIndex = &other
	}
	return v
}

func toEngine(row models.ClassSession) (timetable.Session, error) {
	iv, err := intervalOf(row)
	if err != nil {
		return timetable.Session{}, err
	}
	return timetable.Session{
		Day:       timetable.Weekday(row.DayOfWeek),
		Interval:  iv,
		RoomID:    row.RoomID,
		SectionID: row.SectionID,
		SubjectID: row.SubjectID,
	}, nil
}

func toModel(session timetable.Session, termID string) models.ClassSession {
	return models.ClassSession{
		TermID:    termID,
		SectionID: session.SectionID,
		SubjectID: session.SubjectID,
		RoomID:    session.RoomID,
		DayOfWeek: string(session.Day),
		StartTime: timetable.FormatClock(session.Interval.Start),
		EndTime:   timetable.FormatClock(session.Interval.End),
	}
}

func distinctRoomIDs(sessions []timetable.Session) []string {
	seen := make(map[string]struct{}, len(sessions))
	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		if _, ok := seen[session.RoomID]; ok {
			continue
		}
		seen[session.RoomID] = struct{}{}
		ids = append(ids, session.RoomID)
	}
	return ids
}

func intervalOf(row models.ClassSession) (timetable.Interval, error) {
	start, err := timetable.ParseClock(row.StartTime)
	if err != nil {
		return timetable.Interval{}, fmt.Errorf("session %s start: %w", row.ID, err)
	}
	end, err := timetable.ParseClock(row.EndTime)
	if err != nil {
		return timetable.Interval{}, fmt.Errorf("session %s end: %w", row.ID, err)
	}
	return timetable.Interval{Start: start, End: end}, nil
}

func viewsOf(rows []models.ClassSession) []dto.SessionView {
	views := make([]dto.SessionView, 0, len(rows))
	for _, row := range rows {
		view := dto.SessionView{
			ID:        row.ID,
			Day:       row.DayOfWeek,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			RoomID:    row.RoomID,
			SectionID: row.SectionID,
			SubjectID: row.SubjectID,
		}
		if iv, err := intervalOf(row); err == nil {
			view.Display = displayRange(iv)
		}
		views = append(views, view)
	}
	return views
}

func sortViews(views []dto.SessionView) {
	sort.Slice(views, func(i, j int) bool {
		a, b := views[i], views[j]
		ai := timetable.Weekday(a.Day).Index()
		bi := timetable.Weekday(b.Day).Index()
		if ai != bi {
			return ai < bi
		}
		return a.StartTime < b.StartTime
	})
}

func displayRange(iv timetable.Interval) string {
	return fmt.Sprintf("%s - %s", timetable.Format12Hour(iv.Start), timetable.Format12Hour(iv.End))
}

func notFoundOr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "lookup failed")
}
