package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/youscore-api/internal/service"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
	"github.com/noah-isme/youscore-api/pkg/response"
)

// SummaryHandler wires HTTP endpoints to the summary service.
type SummaryHandler struct {
	service *service.SummaryService
}

// NewSummaryHandler creates a new handler.
func NewSummaryHandler(svc *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{service: svc}
}

// Get godoc
// @Summary Dashboard summary
// @Description Weighted averages, best subject and per-subject breakdown
// @Tags Summary
// @Produce json
// @Param semester query string false "Semester selection: 'all' or a 1-based number" default(all)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /summary [get]
func (h *SummaryHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.Get(c.Request.Context(), claims.UserID, c.DefaultQuery("semester", service.SemesterAll))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary)
}
