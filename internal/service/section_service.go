package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campustools/timetable-api/internal/models"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.Section, int, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id string) error
	AssignSubject(ctx context.Context, sectionID, subjectID, termID string) error
	UnassignSubject(ctx context.Context, sectionID, subjectID, termID string) error
}

type sectionSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateSectionRequest carries the payload for registering a section.
type CreateSectionRequest struct {
	Code      string `json:"code" validate:"required"`
	Program   string `json:"program" validate:"required"`
	YearLevel int    `json:"yearLevel" validate:"required,min=1,max=6"`
}

// UpdateSectionRequest carries partial section updates.
type UpdateSectionRequest struct {
	Code      *string `json:"code"`
	Program   *string `json:"program"`
	YearLevel *int    `json:"yearLevel" validate:"omitempty,min=1,max=6"`
}

// AssignSubjectRequest links a subject to a section's term curriculum.
type AssignSubjectRequest struct {
	SubjectID string `json:"subjectId" validate:"required"`
	TermID    string `json:"termId" validate:"required"`
}

// SectionService manages sections and their curriculum assignments.
type SectionService struct {
	sections  sectionRepository
	subjects  sectionSubjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService creates a section service.
func NewSectionService(sections sectionRepository, subjects sectionSubjectReader, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{sections: sections, subjects: subjects, validator: validate, logger: logger}
}

// List returns sections with pagination metadata.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, *models.Pagination, error) {
	sections, total, err := s.sections.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list sections")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return sections, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one section.
func (s *SectionService) Get(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %q not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load section")
	}
	return section, nil
}

// Create registers a section.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section := &models.Section{
		Code:      req.Code,
		Program:   req.Program,
		YearLevel: req.YearLevel,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create section")
	}
	s.logger.Info("section created", zap.String("section_id", section.ID), zap.String("code", section.Code))
	return section, nil
}

// Update applies partial changes to a section.
func (s *SectionService) Update(ctx context.Context, id string, req UpdateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Code != nil {
		section.Code = *req.Code
	}
	if req.Program != nil {
		section.Program = *req.Program
	}
	if req.YearLevel != nil {
		section.YearLevel = *req.YearLevel
	}
	if err := s.sections.Update(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update section")
	}
	return section, nil
}

// Delete removes a section.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if err := s.sections.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete section")
	}
	return nil
}

// AssignSubject adds a subject to the section's term curriculum.
func (s *SectionService) AssignSubject(ctx context.Context, sectionID string, req AssignSubjectRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.Get(ctx, sectionID); err != nil {
		return err
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %q not found", req.SubjectID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load subject")
	}
	if err := s.sections.AssignSubject(ctx, sectionID, req.SubjectID, req.TermID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "assign subject")
	}
	return nil
}

// UnassignSubject removes a subject from the section's term curriculum.
func (s *SectionService) UnassignSubject(ctx context.Context, sectionID, subjectID, termID string) error {
	if err := s.sections.UnassignSubject(ctx, sectionID, subjectID, termID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "unassign subject")
	}
	return nil
}
