package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campustools/timetable-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{"id", "term_id", "section_id", "subject_id", "room_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"})
}

func TestClassSessionRepositoryListByRoomAndDay(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	now := time.Now()
	rows := sessionRows(t).
		AddRow("sess-1", "term-1", "sec-1", "sub-1", "room-1", "MONDAY", "09:00", "10:30", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+sessionColumns+" FROM class_sessions WHERE term_id = $1 AND room_id = $2 AND day_of_week = $3 ORDER BY start_time ASC")).
		WithArgs("term-1", "room-1", "MONDAY").
		WillReturnRows(rows)

	sessions, err := repo.ListByRoomAndDay(context.Background(), "term-1", "room-1", "MONDAY")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "09:00", sessions[0].StartTime)
	assert.Equal(t, "10:30", sessions[0].EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryListForConflictCheck(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	now := time.Now()
	rows := sessionRows(t).
		AddRow("sess-1", "term-1", "sec-1", "sub-1", "room-1", "MONDAY", "09:00", "10:30", now, now).
		AddRow("sess-2", "term-1", "sec-2", "sub-2", "room-2", "TUESDAY", "13:00", "14:00", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+sessionColumns+" FROM class_sessions WHERE term_id = $1 AND (room_id = ANY($2) OR section_id = $3) ORDER BY start_time ASC")).
		WithArgs("term-1", sqlmock.AnyArg(), "sec-1").
		WillReturnRows(rows)

	sessions, err := repo.ListForConflictCheck(context.Background(), "term-1", []string{"room-1", "room-2"}, "sec-1")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryBulkCreateWithTx(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO class_sessions")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	sessions := []models.ClassSession{
		{TermID: "term-1", SectionID: "sec-1", SubjectID: "sub-1", RoomID: "room-1", DayOfWeek: "MONDAY", StartTime: "07:30", EndTime: "09:00"},
		{TermID: "term-1", SectionID: "sec-1", SubjectID: "sub-1", RoomID: "room-1", DayOfWeek: "WEDNESDAY", StartTime: "07:30", EndTime: "09:00"},
	}
	require.NoError(t, repo.BulkCreateWithTx(context.Background(), tx, sessions))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryBulkCreateEmpty(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	require.NoError(t, repo.BulkCreateWithTx(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSessionRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewClassSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_sessions WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
