package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campustools/timetable-api/internal/dto"
	"github.com/campustools/timetable-api/internal/models"
	"github.com/campustools/timetable-api/internal/timetable"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
)

type sessionRepoStub struct {
	rows    []models.ClassSession
	created [][]models.ClassSession
}

func (s *sessionRepoStub) List(ctx context.Context, filter models.ClassSessionFilter) ([]models.ClassSession, int, error) {
	var out []models.ClassSession
	for _, row := range s.rows {
		if filter.RoomID != "" && row.RoomID != filter.RoomID {
			continue
		}
		if filter.SectionID != "" && row.SectionID != filter.SectionID {
			continue
		}
		out = append(out, row)
	}
	return out, len(out), nil
}

func (s *sessionRepoStub) ListByRoomAndDay(ctx context.Context, termID, roomID, dayOfWeek string) ([]models.ClassSession, error) {
	var out []models.ClassSession
	for _, row := range s.rows {
		if row.RoomID == roomID && row.DayOfWeek == dayOfWeek {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *sessionRepoStub) ListBySectionAndDay(ctx context.Context, termID, sectionID, dayOfWeek string) ([]models.ClassSession, error) {
	var out []models.ClassSession
	for _, row := range s.rows {
		if row.SectionID == sectionID && row.DayOfWeek == dayOfWeek {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *sessionRepoStub) ListBySection(ctx context.Context, termID, sectionID string) ([]models.ClassSession, error) {
	var out []models.ClassSession
	for _, row := range s.rows {
		if row.SectionID == sectionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *sessionRepoStub) ListForConflictCheck(ctx context.Context, termID string, roomIDs []string, sectionID string) ([]models.ClassSession, error) {
	wanted := make(map[string]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		wanted[id] = struct{}{}
	}
	var out []models.ClassSession
	for _, row := range s.rows {
		if _, ok := wanted[row.RoomID]; ok || row.SectionID == sectionID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *sessionRepoStub) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, sessions []models.ClassSession) error {
	batch := make([]models.ClassSession, len(sessions))
	copy(batch, sessions)
	s.created = append(s.created, batch)
	return nil
}

type roomReaderStub struct {
	rooms map[string]models.Room
}

func (s *roomReaderStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

func (s *roomReaderStub) ListActive(ctx context.Context) ([]models.Room, error) {
	var out []models.Room
	for _, room := range s.rooms {
		if room.Active {
			out = append(out, room)
		}
	}
	// Match RoomRepository.ListActive's ORDER BY code ASC so map iteration
	// order doesn't leak into callers.
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type subjectReaderStub struct {
	subjects map[string]models.Subject
}

func (s *subjectReaderStub) FindByIDs(ctx context.Context, ids []string) (map[string]models.Subject, error) {
	out := make(map[string]models.Subject)
	for _, id := range ids {
		if subject, ok := s.subjects[id]; ok {
			out[id] = subject
		}
	}
	return out, nil
}

type sectionReaderStub struct {
	sections map[string]models.Section
	demand   []models.SubjectDemandRow
}

func (s *sectionReaderStub) FindByID(ctx context.Context, id string) (*models.Section, error) {
	section, ok := s.sections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &section, nil
}

func (s *sectionReaderStub) ListSubjectDemand(ctx context.Context, sectionID, termID string) ([]models.SubjectDemandRow, error) {
	return s.demand, nil
}

type termReaderStub struct {
	terms map[string]models.Term
}

func (s *termReaderStub) FindByID(ctx context.Context, id string) (*models.Term, error) {
	term, ok := s.terms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &term, nil
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

type timetableFixture struct {
	sessions *sessionRepoStub
	tx       *txProviderMock
	mock     sqlmock.Sqlmock
	service  *TimetableService
}

func newTimetableFixture(t *testing.T) *timetableFixture {
	sessions := &sessionRepoStub{}
	tx, mock := newTxProviderMock(t)
	rooms := &roomReaderStub{rooms: map[string]models.Room{
		"room-1": {ID: "room-1", Code: "R101", Type: "LECTURE", Active: true},
		"lab-1":  {ID: "lab-1", Code: "L201", Type: "LABORATORY", Active: true},
	}}
	subjects := &subjectReaderStub{subjects: map[string]models.Subject{
		"math": {ID: "math", Code: "MATH101", Units: 3, RoomType: "LECTURE"},
		"chem": {ID: "chem", Code: "CHEM101", Units: 2, RoomType: "LABORATORY"},
	}}
	sections := &sectionReaderStub{
		sections: map[string]models.Section{"sec-1": {ID: "sec-1", Code: "BSCS-1A"}},
		demand: []models.SubjectDemandRow{
			{SubjectID: "math", SubjectCode: "MATH101", Units: 3, RoomType: "LECTURE"},
			{SubjectID: "chem", SubjectCode: "CHEM101", Units: 2, RoomType: "LABORATORY"},
		},
	}
	terms := &termReaderStub{terms: map[string]models.Term{"term-1": {ID: "term-1", Name: "1st Semester"}}}

	service := NewTimetableService(sessions, rooms, subjects, sections, terms, nil, tx, 0, nil, nil)
	return &timetableFixture{sessions: sessions, tx: tx, mock: mock, service: service}
}

func TestSuggestSlotEmptyDay(t *testing.T) {
	f := newTimetableFixture(t)

	resp, err := f.service.SuggestSlot(context.Background(), dto.SuggestSlotRequest{
		TermID:          "term-1",
		Dimension:       "room",
		RoomID:          "room-1",
		Day:             "MONDAY",
		DurationMinutes: 60,
	})
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, "07:30", resp.StartTime)
	assert.Equal(t, "08:30", resp.EndTime)
	assert.Equal(t, "7:30 AM - 8:30 AM", resp.Display)
}

func TestSuggestSlotSkipsBookings(t *testing.T) {
	f := newTimetableFixture(t)
	f.sessions.rows = []models.ClassSession{
		{RoomID: "room-1", SectionID: "sec-9", DayOfWeek: "MONDAY", StartTime: "07:30", EndTime: "10:30"},
	}

	resp, err := f.service.SuggestSlot(context.Background(), dto.SuggestSlotRequest{
		TermID:          "term-1",
		Dimension:       "room",
		RoomID:          "room-1",
		Day:             "MONDAY",
		DurationMinutes: 90,
	})
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, "10:30", resp.StartTime)
	assert.Equal(t, "12:00", resp.EndTime)
}

func TestSuggestSlotNoGapIsAnOutcome(t *testing.T) {
	f := newTimetableFixture(t)
	f.sessions.rows = []models.ClassSession{
		{RoomID: "room-1", SectionID: "sec-9", DayOfWeek: "MONDAY", StartTime: "07:30", EndTime: "19:30"},
	}

	resp, err := f.service.SuggestSlot(context.Background(), dto.SuggestSlotRequest{
		TermID:          "term-1",
		Dimension:       "room",
		RoomID:          "room-1",
		Day:             "MONDAY",
		DurationMinutes: 15,
	})
	require.NoError(t, err)
	assert.False(t, resp.Found)
	assert.Empty(t, resp.StartTime)
}

func TestSuggestSlotUnknownRoom(t *testing.T) {
	f := newTimetableFixture(t)

	_, err := f.service.SuggestSlot(context.Background(), dto.SuggestSlotRequest{
		TermID:          "term-1",
		Dimension:       "room",
		RoomID:          "nope",
		Day:             "MONDAY",
		DurationMinutes: 60,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCommitBatchDryRunValid(t *testing.T) {
	f := newTimetableFixture(t)

	resp, err := f.service.CommitBatch(context.Background(), dto.CommitBatchRequest{
		TermID:    "term-1",
		SectionID: "sec-1",
		DryRun:    true,
		Sessions: []dto.SessionProposal{
			{Day: "MONDAY", StartTime: "07:30", EndTime: "09:00", RoomID: "room-1", SubjectID: "math"},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.False(t, resp.Committed)
	assert.Nil(t, resp.Violation)
	assert.Empty(t, f.sessions.created)
}

func TestCommitBatchRejectsInternalOverlap(t *testing.T) {
	f := newTimetableFixture(t)

	resp, err := f.service.CommitBatch(context.Background(), dto.CommitBatchRequest{
		TermID:    "term-1",
		SectionID: "sec-1",
		Sessions: []dto.SessionProposal{
			{Day: "MONDAY", StartTime: "07:30", EndTime: "09:00", RoomID: "room-1", SubjectID: "math"},
			{Day: "MONDAY", StartTime: "08:00", EndTime: "09:30", RoomID: "room-1", SubjectID: "chem"},
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	require.NotNil(t, resp.Violation)
	assert.Equal(t, timetable.BatchCodeInternalConflict, resp.Violation.Code)
	assert.Equal(t, 0, resp.Violation.Index)
	require.NotNil(t, resp.Violation.OtherIndex)
	assert.Equal(t, 1, *resp.Violation.OtherIndex)
	assert.Empty(t, f.sessions.created)
}

func TestCommitBatchRejectsMalformedTime(t *testing.T) {
	f := newTimetableFixture(t)

	resp, err := f.service.CommitBatch(context.Background(), dto.CommitBatchRequest{
		TermID:    "term-1",
		SectionID: "sec-1",
		Sessions: []dto.SessionProposal{
			{Day: "MONDAY", StartTime: "banana", EndTime: "09:00", RoomID: "room-1", SubjectID: "math"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Violation)
	assert.Equal(t, timetable.BatchCodeInvalidTime, resp.Violation.Code)
}

func TestCommitBatchRejectsDurationOverBudget(t *testing.T) {
	f := newTimetableFixture(t)

	// chem carries 2 units, so 120 minutes; a 180-minute batch busts it.
	resp, err := f.service.CommitBatch(context.Background(), dto.CommitBatchRequest{
		TermID:    "term-1",
		SectionID: "sec-1",
		Sessions: []dto.SessionProposal{
			{Day: "MONDAY", StartTime: "07:30", EndTime: "09:30", RoomID: "lab-1", SubjectID: "chem"},
			{Day: "TUESDAY", StartTime: "07:30", EndTime: "08:30", RoomID: "lab-1", SubjectID: "chem"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Violation)
	assert.Equal(t, timetable.BatchCodeDurationExceeded, resp.Violation.Code)
	assert.Equal(t, 1, resp.Violation.Index)
}

func TestCommitBatchRejectsPersistedConflict(t *testing.T) {
	f := newTimetableFixture(t)
	f.sessions.rows = []models.ClassSession{
		{RoomID: "room-1", SectionID: "sec-9", SubjectID: "x", DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "10:00"},
	}

	resp, err := f.service.CommitBatch(context.Background(), dto.CommitBatchRequest{
		TermID:    "term-1",
		SectionID: "sec-1",
		Sessions: []dto.SessionProposal{
			{Day: "MONDAY", StartTime: "07:30", EndTime: "09:00", RoomID: "room-1", SubjectID: "math"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Violation)
	assert.Equal(t, timetable.BatchCodePersistedConflict, resp.Violation.Code)
}

func TestCommitBatchPersistsAtomically(t *testing.T) {
	f := newTimetableFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.service.CommitBatch(context.Background(), dto.CommitBatchRequest{
		TermID:    "term-1",
		SectionID: "sec-1",
		Sessions: []dto.SessionProposal{
			{Day: "MONDAY", StartTime: "07:30", EndTime: "09:00", RoomID: "room-1", SubjectID: "math"},
			{Day: "WEDNESDAY", StartTime: "07:30", EndTime: "09:00", RoomID: "room-1", SubjectID: "math"},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.True(t, resp.Committed)
	require.Len(t, f.sessions.created, 1)
	assert.Len(t, f.sessions.created[0], 2)
	assert.Equal(t, "term-1", f.sessions.created[0][0].TermID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSectionDemandAccounting(t *testing.T) {
	f := newTimetableFixture(t)
	f.sessions.rows = nil
	fDemand := []models.SubjectDemandRow{
		{SubjectID: "math", SubjectCode: "MATH101", Units: 3, RoomType: "LECTURE", ScheduledMinutes: 90},
		{SubjectID: "chem", SubjectCode: "CHEM101", Units: 2, RoomType: "LABORATORY", ScheduledMinutes: 150},
	}
	f.service.sections.(*sectionReaderStub).demand = fDemand

	views, err := f.service.SectionDemand(context.Background(), "term-1", "sec-1")
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, 180, views[0].RequiredMinutes)
	assert.Equal(t, 90, views[0].RemainingMinutes)
	assert.False(t, views[0].Excess)

	// Over-scheduled subjects floor at zero and flag the excess.
	assert.Equal(t, 120, views[1].RequiredMinutes)
	assert.Equal(t, 0, views[1].RemainingMinutes)
	assert.True(t, views[1].Excess)
}

func TestSectionTimetableSorted(t *testing.T) {
	f := newTimetableFixture(t)
	f.sessions.rows = []models.ClassSession{
		{ID: "b", SectionID: "sec-1", DayOfWeek: "WEDNESDAY", StartTime: "07:30", EndTime: "09:00", RoomID: "room-1"},
		{ID: "a", SectionID: "sec-1", DayOfWeek: "MONDAY", StartTime: "10:00", EndTime: "11:00", RoomID: "room-1"},
		{ID: "c", SectionID: "sec-1", DayOfWeek: "MONDAY", StartTime: "07:30", EndTime: "09:00", RoomID: "room-1"},
	}

	views, err := f.service.SectionTimetable(context.Background(), "term-1", "sec-1")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "c", views[0].ID)
	assert.Equal(t, "a", views[1].ID)
	assert.Equal(t, "b", views[2].ID)
}
