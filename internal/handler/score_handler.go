package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/youscore-api/internal/models"
	"github.com/noah-isme/youscore-api/internal/service"
	appErrors "github.com/noah-isme/youscore-api/pkg/errors"
	"github.com/noah-isme/youscore-api/pkg/response"
)

// ScoreHandler wires HTTP endpoints to the score service.
type ScoreHandler struct {
	service *service.ScoreService
	metrics *service.MetricsService
}

// NewScoreHandler creates a new handler.
func NewScoreHandler(svc *service.ScoreService, metrics *service.MetricsService) *ScoreHandler {
	return &ScoreHandler{service: svc, metrics: metrics}
}

// List godoc
// @Summary List scores
// @Description List the current user's score entries ordered by their configured sort option
// @Tags Scores
// @Produce json
// @Param q query string false "Filter by subject, exam type, original text or score"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /scores [get]
func (h *ScoreHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entries, err := h.service.Query(c.Request.Context(), claims.UserID, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries)
}

// Create godoc
// @Summary Create score
// @Description Record a manually entered score
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body models.ScoreCreateRequest true "Score payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /scores [post]
func (h *ScoreHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ScoreCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}

	entry, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entry)
}

// Extract godoc
// @Summary Extract score from text
// @Description Interpret free text as a single score and store it
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body models.ExtractRequest true "Extraction payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /scores/extract [post]
func (h *ScoreHandler) Extract(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid extraction payload"))
		return
	}

	entry, err := h.service.ExtractAndCreate(c.Request.Context(), claims.UserID, req.Text)
	h.metrics.ObserveExtraction("single", err)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entry)
}

// ExtractBulk godoc
// @Summary Extract scores from text
// @Description Interpret free text mentioning several scores and store them all
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body models.ExtractRequest true "Extraction payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /scores/extract/bulk [post]
func (h *ScoreHandler) ExtractBulk(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid extraction payload"))
		return
	}

	entries, err := h.service.ExtractAndCreateBulk(c.Request.Context(), claims.UserID, req.Text)
	h.metrics.ObserveExtraction("bulk", err)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entries)
}

// ExtractImage godoc
// @Summary Extract scores from image
// @Description Interpret a grade-sheet image and store every score found
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body models.ExtractImageRequest true "Image payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /scores/extract/image [post]
func (h *ScoreHandler) ExtractImage(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ExtractImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid image payload"))
		return
	}

	entries, err := h.service.ExtractFromImage(c.Request.Context(), claims.UserID, req.Data, req.MIMEType)
	h.metrics.ObserveExtraction("image", err)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entries)
}

// Update godoc
// @Summary Update score
// @Description Apply a partial edit to one score entry
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Score entry ID"
// @Param payload body models.ScoreUpdate true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /scores/{id} [patch]
func (h *ScoreHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ScoreUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	entry, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entry)
}

// Delete godoc
// @Summary Delete score
// @Description Remove one score entry
// @Tags Scores
// @Produce json
// @Param id path string true "Score entry ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /scores/{id} [delete]
func (h *ScoreHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// BatchDelete godoc
// @Summary Delete selected scores
// @Description Remove the selected score entries in one call
// @Tags Scores
// @Accept json
// @Produce json
// @Param payload body models.ScoreBatchDeleteRequest true "Entry IDs"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /scores/batch-delete [post]
func (h *ScoreHandler) BatchDelete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.ScoreBatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch delete payload"))
		return
	}

	deleted, err := h.service.DeleteMany(c.Request.Context(), claims.UserID, req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted})
}

// DeleteAll godoc
// @Summary Delete all scores
// @Description Remove every score entry belonging to the current user
// @Tags Scores
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /scores [delete]
func (h *ScoreHandler) DeleteAll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteAll(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
