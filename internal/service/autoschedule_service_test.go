package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campustools/timetable-api/internal/dto"
	"github.com/campustools/timetable-api/internal/models"
	"github.com/campustools/timetable-api/internal/timetable"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
)

type autoScheduleFixture struct {
	sessions *sessionRepoStub
	tx       *txProviderMock
	service  *AutoScheduleService
}

func newAutoScheduleFixture(t *testing.T) *autoScheduleFixture {
	sessions := &sessionRepoStub{}
	tx, _ := newTxProviderMock(t)
	rooms := &roomReaderStub{rooms: map[string]models.Room{
		"room-1": {ID: "room-1", Code: "R101", Type: "LECTURE", Active: true},
		"room-2": {ID: "room-2", Code: "R102", Type: "LECTURE", Active: true},
		"lab-1":  {ID: "lab-1", Code: "L201", Type: "LABORATORY", Active: true},
	}}
	sections := &sectionReaderStub{
		sections: map[string]models.Section{"sec-1": {ID: "sec-1", Code: "BSCS-1A"}},
		demand: []models.SubjectDemandRow{
			{SubjectID: "math", SubjectCode: "MATH101", Units: 3, RoomType: "LECTURE"},
			{SubjectID: "chem", SubjectCode: "CHEM101", Units: 2, RoomType: "LABORATORY"},
		},
	}
	terms := &termReaderStub{terms: map[string]models.Term{"term-1": {ID: "term-1", Name: "1st Semester"}}}

	service := NewAutoScheduleService(sessions, rooms, sections, terms, nil, tx, AutoScheduleConfig{}, nil, nil)
	return &autoScheduleFixture{sessions: sessions, tx: tx, service: service}
}

func seedOf(v int64) *int64 { return &v }

func TestAutoScheduleGenerateCoversDemand(t *testing.T) {
	f := newAutoScheduleFixture(t)

	resp, err := f.service.Generate(context.Background(), dto.AutoScheduleRequest{
		TermID:    "term-1",
		SectionID: "sec-1",
		Seed:      seedOf(7),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProposalID)
	require.Len(t, resp.Reports, 2)

	total := make(map[string]int)
	for _, view := range resp.Sessions {
		assert.Equal(t, "sec-1", view.SectionID)
		total[view.SubjectID] += minutesBetween(t, view.StartTime, view.EndTime)
	}
	assert.Equal(t, 180, total["math"])
	assert.Equal(t, 120, total["chem"])

	for _, report := range resp.Reports {
		assert.Zero(t, report.RemainingMinutes)
		assert.Empty(t, report.FailureReason)
		assert.NotEmpty(t, report.SubjectCode)
	}
	// Nothing persists at generation time.
	assert.Empty(t, f.sessions.created)
}

func TestAutoScheduleGenerateDeterministicWithSeed(t *testing.T) {
	f := newAutoScheduleFixture(t)

	a, err := f.service.Generate(context.Background(), dto.AutoScheduleRequest{
		TermID: "term-1", SectionID: "sec-1", Seed: seedOf(42),
	})
	require.NoError(t, err)
	b, err := f.service.Generate(context.Background(), dto.AutoScheduleRequest{
		TermID: "term-1", SectionID: "sec-1", Seed: seedOf(42),
	})
	require.NoError(t, err)

	require.Equal(t, len(a.Sessions), len(b.Sessions))
	for i := range a.Sessions {
		assert.Equal(t, a.Sessions[i].Day, b.Sessions[i].Day)
		assert.Equal(t, a.Sessions[i].StartTime, b.Sessions[i].StartTime)
		assert.Equal(t, a.Sessions[i].RoomID, b.Sessions[i].RoomID)
	}
}

func TestAutoScheduleGenerateReportsMissingRoomType(t *testing.T) {
	f := newAutoScheduleFixture(t)
	rooms := f.service.rooms.(*roomReaderStub)
	delete(rooms.rooms, "lab-1")

	resp, err := f.service.Generate(context.Background(), dto.AutoScheduleRequest{
		TermID: "term-1", SectionID: "sec-1", Seed: seedOf(1),
	})
	require.NoError(t, err)

	var chem *dto.SubjectOutcome
	for i := range resp.Reports {
		if resp.Reports[i].SubjectID == "chem" {
			chem = &resp.Reports[i]
		}
	}
	require.NotNil(t, chem)
	assert.Equal(t, "No rooms for type LABORATORY", chem.FailureReason)
	assert.Equal(t, 120, chem.RemainingMinutes)
	assert.Zero(t, chem.CreatedSessions)
}

func TestAutoScheduleGenerateUnknownSection(t *testing.T) {
	f := newAutoScheduleFixture(t)

	_, err := f.service.Generate(context.Background(), dto.AutoScheduleRequest{
		TermID: "term-1", SectionID: "ghost",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAutoScheduleGenerateRejectsUnknownDay(t *testing.T) {
	f := newAutoScheduleFixture(t)

	_, err := f.service.Generate(context.Background(), dto.AutoScheduleRequest{
		TermID: "term-1", SectionID: "sec-1", Days: []string{"FUNDAY"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAutoScheduleSavePersistsProposal(t *testing.T) {
	f := newAutoScheduleFixture(t)

	generated, err := f.service.Generate(context.Background(), dto.AutoScheduleRequest{
		TermID: "term-1", SectionID: "sec-1", Seed: seedOf(11),
	})
	require.NoError(t, err)

	f.tx.mock.ExpectBegin()
	f.tx.mock.ExpectCommit()

	resp, err := f.service.Save(context.Background(), dto.SaveProposalRequest{ProposalID: generated.ProposalID})
	require.NoError(t, err)
	assert.True(t, resp.Committed)
	require.Len(t, f.sessions.created, 1)
	assert.Len(t, f.sessions.created[0], len(generated.Sessions))

	// A saved proposal cannot be replayed.
	_, err = f.service.Save(context.Background(), dto.SaveProposalRequest{ProposalID: generated.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAutoScheduleSaveUnknownProposal(t *testing.T) {
	f := newAutoScheduleFixture(t)

	_, err := f.service.Save(context.Background(), dto.SaveProposalRequest{ProposalID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAutoScheduleSaveRejectsStaleProposal(t *testing.T) {
	f := newAutoScheduleFixture(t)

	generated, err := f.service.Generate(context.Background(), dto.AutoScheduleRequest{
		TermID: "term-1", SectionID: "sec-1", Seed: seedOf(3),
	})
	require.NoError(t, err)
	require.NotEmpty(t, generated.Sessions)

	// Someone books the exact interval the proposal wanted.
	first := generated.Sessions[0]
	f.sessions.rows = append(f.sessions.rows, models.ClassSession{
		RoomID:    first.RoomID,
		SectionID: "sec-other",
		SubjectID: "x",
		DayOfWeek: first.Day,
		StartTime: first.StartTime,
		EndTime:   first.EndTime,
	})

	_, err = f.service.Save(context.Background(), dto.SaveProposalRequest{ProposalID: generated.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)
}

func TestProposalStoreExpiry(t *testing.T) {
	store := newProposalStore(time.Minute)
	store.Save(schedulerProposal{ProposalID: "old", RequestedAt: time.Now().Add(-2 * time.Minute)})
	store.Save(schedulerProposal{ProposalID: "fresh", RequestedAt: time.Now()})

	_, ok := store.Get("old")
	assert.False(t, ok)
	_, ok = store.Get("fresh")
	assert.True(t, ok)
}

func minutesBetween(t *testing.T, start, end string) int {
	t.Helper()
	from, err := timetable.ParseClock(start)
	require.NoError(t, err)
	to, err := timetable.ParseClock(end)
	require.NoError(t, err)
	return to - from
}
