package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campustools/timetable-api/internal/dto"
	"github.com/campustools/timetable-api/internal/models"
	"github.com/campustools/timetable-api/internal/timetable"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
)

// AutoScheduleConfig governs the bulk scheduler's defaults. A non-zero
// RandomSeed makes unseeded runs reproducible, which is useful in demos
// and integration environments.
type AutoScheduleConfig struct {
	ProposalTTL        time.Duration
	StepMinutes        int
	AttemptsPerSession int
	RandomSeed         int64
}

// AutoScheduleService runs the randomized bulk scheduler and parks its
// proposals server-side until they are saved or expire.
type AutoScheduleService struct {
	sessions  classSessionRepository
	rooms     timetableRoomReader
	sections  timetableSectionReader
	terms     timetableTermReader
	cache     cacheStore
	tx        txProvider
	cfg       AutoScheduleConfig
	validator *validator.Validate
	logger    *zap.Logger
	store     *proposalStore
}

// NewAutoScheduleService wires the bulk scheduler dependencies.
func NewAutoScheduleService(
	sessions classSessionRepository,
	rooms timetableRoomReader,
	sections timetableSectionReader,
	terms timetableTermReader,
	cache cacheStore,
	tx txProvider,
	cfg AutoScheduleConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *AutoScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &AutoScheduleService{
		sessions:  sessions,
		rooms:     rooms,
		sections:  sections,
		terms:     terms,
		cache:     cache,
		tx:        tx,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		store:     newProposalStore(cfg.ProposalTTL),
	}
}

// Generate fills a section's unscheduled curriculum in one randomized
// pass and returns the proposal. Nothing is persisted until Save.
func (s *AutoScheduleService) Generate(ctx context.Context, req dto.AutoScheduleRequest) (*dto.AutoScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto-schedule payload")
	}
	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("term %q not found", req.TermID))
	}
	if _, err := s.sections.FindByID(ctx, req.SectionID); err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("section %q not found", req.SectionID))
	}

	days := make([]timetable.Weekday, 0, len(req.Days))
	for _, raw := range req.Days {
		day, err := timetable.ParseWeekday(raw)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown day %q", raw))
		}
		days = append(days, day)
	}

	demandRows, err := s.sections.ListSubjectDemand(ctx, req.SectionID, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subject demand")
	}
	demands := make([]timetable.SubjectDemand, 0, len(demandRows))
	codes := make(map[string]string, len(demandRows))
	for _, row := range demandRows {
		codes[row.SubjectID] = row.SubjectCode
		demands = append(demands, timetable.SubjectDemand{
			SubjectID:        row.SubjectID,
			Units:            row.Units,
			RoomType:         timetable.RoomType(row.RoomType),
			ScheduledMinutes: row.ScheduledMinutes,
		})
	}

	roomRows, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load rooms")
	}
	rooms := make([]timetable.Room, 0, len(roomRows))
	roomIDs := make([]string, 0, len(roomRows))
	for _, room := range roomRows {
		rooms = append(rooms, timetable.Room{ID: room.ID, Type: timetable.RoomType(room.Type)})
		roomIDs = append(roomIDs, room.ID)
	}

	existingRows, err := s.sessions.ListForConflictCheck(ctx, req.TermID, roomIDs, req.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load existing sessions")
	}
	existing := make([]timetable.Session, 0, len(existingRows))
	for _, row := range existingRows {
		session, err := toEngine(row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored session has malformed times")
		}
		existing = append(existing, session)
	}

	opts := timetable.AutoScheduleOptions{
		StepMinutes:        firstPositive(req.StepMinutes, s.cfg.StepMinutes),
		AttemptsPerSession: firstPositive(req.AttemptsPerSession, s.cfg.AttemptsPerSession),
		Days:               days,
		Rand:               s.randFor(req.Seed),
	}

	result, err := timetable.AutoSchedule(ctx, demands, existing, rooms, req.SectionID, opts)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "auto-schedule interrupted")
	}

	rows := make([]models.ClassSession, len(result.Created))
	for i, session := range result.Created {
		rows[i] = toModel(session, req.TermID)
	}

	proposal := schedulerProposal{
		ProposalID:  uuid.NewString(),
		TermID:      req.TermID,
		SectionID:   req.SectionID,
		Sessions:    rows,
		Reports:     outcomesOf(result.Reports, codes),
		RequestedAt: time.Now(),
	}
	s.store.Save(proposal)

	s.logger.Info("auto-schedule proposal generated",
		zap.String("proposal_id", proposal.ProposalID),
		zap.String("section_id", req.SectionID),
		zap.Int("sessions", len(rows)))

	return &dto.AutoScheduleResponse{
		ProposalID: proposal.ProposalID,
		Sessions:   viewsOf(rows),
		Reports:    proposal.Reports,
	}, nil
}

// Save persists a previously generated proposal atomically. The proposal
// is re-checked against current bookings first so a stale proposal cannot
// introduce conflicts.
func (s *AutoScheduleService) Save(ctx context.Context, req dto.SaveProposalRequest) (*dto.CommitBatchResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}

	proposed := make([]timetable.Session, 0, len(proposal.Sessions))
	roomIDs := make(map[string]struct{})
	for _, row := range proposal.Sessions {
		session, err := toEngine(row)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "proposal session has malformed times")
		}
		proposed = append(proposed, session)
		roomIDs[row.RoomID] = struct{}{}
	}
	ids := make([]string, 0, len(roomIDs))
	for id := range roomIDs {
		ids = append(ids, id)
	}

	persistedRows, err := s.sessions.ListForConflictCheck(ctx, proposal.TermID, ids, proposal.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load existing sessions")
	}
	for _, row := range persistedRows {
		other, err := toEngine(row)
		if err != nil {
			continue
		}
		for _, candidate := range proposed {
			if timetable.Conflicts(candidate, []timetable.Session{other}) {
				return nil, appErrors.Clone(appErrors.ErrScheduleConflict, "bookings changed since the proposal was generated")
			}
		}
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin proposal save")
	}
	defer func() { _ = tx.Rollback() }()

	rows := proposal.Sessions
	if err := s.sessions.BulkCreateWithTx(ctx, tx, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist proposal")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit proposal")
	}

	s.store.Delete(proposal.ProposalID)
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "timetable:*"); err != nil {
			s.logger.Warn("invalidate timetable cache", zap.Error(err))
		}
	}

	s.logger.Info("auto-schedule proposal saved",
		zap.String("proposal_id", proposal.ProposalID),
		zap.Int("sessions", len(rows)))

	return &dto.CommitBatchResponse{Valid: true, Committed: true, Sessions: viewsOf(rows)}, nil
}

func (s *AutoScheduleService) randFor(seed *int64) *rand.Rand {
	switch {
	case seed != nil:
		return rand.New(rand.NewSource(*seed))
	case s.cfg.RandomSeed != 0:
		return rand.New(rand.NewSource(s.cfg.RandomSeed))
	default:
		return nil
	}
}

func outcomesOf(reports []timetable.SubjectReport, codes map[string]string) []dto.SubjectOutcome {
	outcomes := make([]dto.SubjectOutcome, 0, len(reports))
	for _, report := range reports {
		outcomes = append(outcomes, dto.SubjectOutcome{
			SubjectID:        report.SubjectID,
			SubjectCode:      codes[report.SubjectID],
			ScheduledBefore:  report.ScheduledBefore,
			ScheduledAfter:   report.ScheduledAfter,
			CreatedSessions:  report.CreatedSessions,
			RemainingMinutes: report.RemainingMinutes,
			FailureReason:    report.FailureReason,
		})
	}
	return outcomes
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

type schedulerProposal struct {
	ProposalID  string
	TermID      string
	SectionID   string
	Sessions    []models.ClassSession
	Reports     []dto.SubjectOutcome
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]schedulerProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]schedulerProposal),
	}
}

func (s *proposalStore) Save(proposal schedulerProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (schedulerProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return schedulerProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return schedulerProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}
