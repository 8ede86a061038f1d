package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campustools/timetable-api/internal/dto"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
	"github.com/campustools/timetable-api/pkg/export"
)

type timetableReader interface {
	SectionTimetable(ctx context.Context, termID, sectionID string) ([]dto.SessionView, error)
	RoomTimetable(ctx context.Context, termID, roomID string) ([]dto.SessionView, error)
	SectionDemand(ctx context.Context, termID, sectionID string) ([]dto.SubjectDemandView, error)
}

// ExportService renders timetables as downloadable documents.
type ExportService struct {
	timetables timetableReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService creates an export service.
func NewExportService(timetables timetableReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timetables: timetables,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(true),
		logger:     logger,
	}
}

// SectionCSV renders a section's timetable as CSV.
func (s *ExportService) SectionCSV(ctx context.Context, termID, sectionID string) ([]byte, error) {
	views, err := s.timetables.SectionTimetable(ctx, termID, sectionID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(timetableDataset(views))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
	}
	return payload, nil
}

// SectionPDF renders a section's timetable as PDF.
func (s *ExportService) SectionPDF(ctx context.Context, termID, sectionID string) ([]byte, error) {
	views, err := s.timetables.SectionTimetable(ctx, termID, sectionID)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(timetableDataset(views), fmt.Sprintf("Section Timetable %s", sectionID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf")
	}
	return payload, nil
}

// RoomCSV renders a room's timetable as CSV.
func (s *ExportService) RoomCSV(ctx context.Context, termID, roomID string) ([]byte, error) {
	views, err := s.timetables.RoomTimetable(ctx, termID, roomID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(timetableDataset(views))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
	}
	return payload, nil
}

// RoomPDF renders a room's timetable as PDF.
func (s *ExportService) RoomPDF(ctx context.Context, termID, roomID string) ([]byte, error) {
	views, err := s.timetables.RoomTimetable(ctx, termID, roomID)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(timetableDataset(views), fmt.Sprintf("Room Timetable %s", roomID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf")
	}
	return payload, nil
}

// DemandCSV renders a section's per-subject duration accounting as CSV.
func (s *ExportService) DemandCSV(ctx context.Context, termID, sectionID string) ([]byte, error) {
	views, err := s.timetables.SectionDemand(ctx, termID, sectionID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(demandDataset(views))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv")
	}
	return payload, nil
}

func demandDataset(views []dto.SubjectDemandView) export.Dataset {
	rows := make([]map[string]string, 0, len(views))
	for _, view := range views {
		excess := ""
		if view.Excess {
			excess = "yes"
		}
		rows = append(rows, map[string]string{
			"Subject":   view.SubjectCode,
			"Units":     fmt.Sprintf("%d", view.Units),
			"Required":  fmt.Sprintf("%d", view.RequiredMinutes),
			"Scheduled": fmt.Sprintf("%d", view.ScheduledMinutes),
			"Remaining": fmt.Sprintf("%d", view.RemainingMinutes),
			"Excess":    excess,
		})
	}
	return export.Dataset{
		Headers: []string{"Subject", "Units", "Required", "Scheduled", "Remaining", "Excess"},
		Rows:    rows,
	}
}

func timetableDataset(views []dto.SessionView) export.Dataset {
	rows := make([]map[string]string, 0, len(views))
	for _, view := range views {
		rows = append(rows, map[string]string{
			"Day":     view.Day,
			"Time":    view.Display,
			"Room":    view.RoomID,
			"Section": view.SectionID,
			"Subject": view.SubjectID,
		})
	}
	return export.Dataset{
		Headers: []string{"Day", "Time", "Room", "Section", "Subject"},
		Rows:    rows,
	}
}
