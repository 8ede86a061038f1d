package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campustools/timetable-api/internal/dto"
	"github.com/campustools/timetable-api/internal/service"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
	"github.com/campustools/timetable-api/pkg/response"
)

// TimetableHandler manages interactive scheduling endpoints.
type TimetableHandler struct {
	service *service.TimetableService
	metrics *service.MetricsService
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(svc *service.TimetableService, metrics *service.MetricsService) *TimetableHandler {
	return &TimetableHandler{service: svc, metrics: metrics}
}

// SuggestSlot godoc
// @Summary Suggest the earliest free slot on one day
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SuggestSlotRequest true "Slot query"
// @Success 200 {object} response.Envelope
// @Router /timetable/suggest-slot [post]
func (h *TimetableHandler) SuggestSlot(c *gin.Context) {
	var req dto.SuggestSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	resp, err := h.service.SuggestSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// CommitBatch godoc
// @Summary Validate and commit a batch of proposed sessions
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.CommitBatchRequest true "Proposed batch"
// @Success 200 {object} response.Envelope
// @Router /timetable/batch [post]
func (h *TimetableHandler) CommitBatch(c *gin.Context) {
	var req dto.CommitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	resp, err := h.service.CommitBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		switch {
		case resp.Committed:
			h.metrics.ObserveBatchCommit("committed")
		case resp.Valid:
			h.metrics.ObserveBatchCommit("dry_run")
		default:
			h.metrics.ObserveBatchCommit("rejected")
		}
	}
	status := http.StatusOK
	if !resp.Valid {
		status = http.StatusUnprocessableEntity
	}
	response.JSON(c, status, resp, nil)
}

// SectionTimetable godoc
// @Summary A section's weekly timetable
// @Tags Timetable
// @Produce json
// @Param id path string true "Section ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/timetable [get]
func (h *TimetableHandler) SectionTimetable(c *gin.Context) {
	views, err := h.service.SectionTimetable(c.Request.Context(), c.Query("termId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// RoomTimetable godoc
// @Summary A room's weekly timetable
// @Tags Timetable
// @Produce json
// @Param id path string true "Room ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/timetable [get]
func (h *TimetableHandler) RoomTimetable(c *gin.Context) {
	views, err := h.service.RoomTimetable(c.Request.Context(), c.Query("termId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// SectionDemand godoc
// @Summary Duration accounting for a section's curriculum
// @Tags Timetable
// @Produce json
// @Param id path string true "Section ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/demand [get]
func (h *TimetableHandler) SectionDemand(c *gin.Context) {
	views, err := h.service.SectionDemand(c.Request.Context(), c.Query("termId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}
