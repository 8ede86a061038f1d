package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campustools/timetable-api/internal/dto"
	"github.com/campustools/timetable-api/internal/service"
	appErrors "github.com/campustools/timetable-api/pkg/errors"
	"github.com/campustools/timetable-api/pkg/response"
)

// AutoScheduleHandler manages bulk scheduling endpoints.
type AutoScheduleHandler struct {
	service *service.AutoScheduleService
	metrics *service.MetricsService
}

// NewAutoScheduleHandler constructs handler.
func NewAutoScheduleHandler(svc *service.AutoScheduleService, metrics *service.MetricsService) *AutoScheduleHandler {
	return &AutoScheduleHandler{service: svc, metrics: metrics}
}

// Generate godoc
// @Summary Generate a timetable proposal for a section
// @Tags AutoSchedule
// @Accept json
// @Produce json
// @Param payload body dto.AutoScheduleRequest true "Generation parameters"
// @Success 200 {object} response.Envelope
// @Router /timetable/auto-schedule [post]
func (h *AutoScheduleHandler) Generate(c *gin.Context) {
	var req dto.AutoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	resp, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		shortfalls := 0
		for _, report := range resp.Reports {
			if report.RemainingMinutes > 0 {
				shortfalls++
			}
		}
		h.metrics.ObserveAutoScheduleRun(len(resp.Sessions), shortfalls)
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Save godoc
// @Summary Persist a generated proposal
// @Tags AutoSchedule
// @Accept json
// @Produce json
// @Param payload body dto.SaveProposalRequest true "Proposal reference"
// @Success 200 {object} response.Envelope
// @Router /timetable/auto-schedule/save [post]
func (h *AutoScheduleHandler) Save(c *gin.Context) {
	var req dto.SaveProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	resp, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
