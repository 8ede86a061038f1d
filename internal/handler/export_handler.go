package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campustools/timetable-api/internal/service"
	"github.com/campustools/timetable-api/pkg/response"
)

// ExportHandler serves timetable downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// SectionExport godoc
// @Summary Download a section timetable
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Section ID"
// @Param termId query string true "Term ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /sections/{id}/timetable/export [get]
func (h *ExportHandler) SectionExport(c *gin.Context) {
	termID := c.Query("termId")
	sectionID := c.Param("id")

	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		payload, err := h.service.SectionPDF(c.Request.Context(), termID, sectionID)
		if err != nil {
			response.Error(c, err)
			return
		}
		serveFile(c, payload, "application/pdf", fmt.Sprintf("section-%s.pdf", sectionID))
	default:
		payload, err := h.service.SectionCSV(c.Request.Context(), termID, sectionID)
		if err != nil {
			response.Error(c, err)
			return
		}
		serveFile(c, payload, "text/csv", fmt.Sprintf("section-%s.csv", sectionID))
	}
}

// RoomExport godoc
// @Summary Download a room timetable
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Room ID"
// @Param termId query string true "Term ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /rooms/{id}/timetable/export [get]
func (h *ExportHandler) RoomExport(c *gin.Context) {
	termID := c.Query("termId")
	roomID := c.Param("id")

	switch c.DefaultQuery("format", "csv") {
	case "pdf":
		payload, err := h.service.RoomPDF(c.Request.Context(), termID, roomID)
		if err != nil {
			response.Error(c, err)
			return
		}
		serveFile(c, payload, "application/pdf", fmt.Sprintf("room-%s.pdf", roomID))
	default:
		payload, err := h.service.RoomCSV(c.Request.Context(), termID, roomID)
		if err != nil {
			response.Error(c, err)
			return
		}
		serveFile(c, payload, "text/csv", fmt.Sprintf("room-%s.csv", roomID))
	}
}

// DemandExport godoc
// @Summary Download a section's curriculum demand accounting
// @Tags Exports
// @Produce octet-stream
// @Param id path string true "Section ID"
// @Param termId query string true "Term ID"
// @Success 200 {file} binary
// @Router /sections/{id}/demand/export [get]
func (h *ExportHandler) DemandExport(c *gin.Context) {
	termID := c.Query("termId")
	sectionID := c.Param("id")

	payload, err := h.service.DemandCSV(c.Request.Context(), termID, sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, payload, "text/csv", fmt.Sprintf("section-%s-demand.csv", sectionID))
}

func serveFile(c *gin.Context, payload []byte, contentType, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
