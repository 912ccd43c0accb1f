package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
	"github.com/noah-isme/school-roster-api/pkg/response"
)

type duplicateService interface {
	FindDuplicatePersons(ctx context.Context, filter models.DuplicateFilter) ([]models.DuplicateCluster, error)
	ResolveDuplicates(ctx context.Context, req dto.ResolveDuplicatesRequest) (*models.MergeResult, error)
}

// DuplicateHandler exposes duplicate detection and merge endpoints.
type DuplicateHandler struct {
	service duplicateService
}

// NewDuplicateHandler builds a new handler.
func NewDuplicateHandler(service duplicateService) *DuplicateHandler {
	return &DuplicateHandler{service: service}
}

// List godoc
// @Summary List suspected duplicate persons
// @Tags Duplicates
// @Produce json
// @Param program query string false "WEEKEND_SCHOOL or K12_PROGRAM"
// @Success 200 {object} response.Envelope
// @Router /duplicates [get]
func (h *DuplicateHandler) List(c *gin.Context) {
	filter := models.DuplicateFilter{}
	if raw := c.Query("program"); raw != "" {
		program := models.Program(raw)
		if !program.Valid() {
			response.Error(c, appErrors.FieldError("program", "must be one of WEEKEND_SCHOOL K12_PROGRAM"))
			return
		}
		filter.Program = program
	}
	clusters, err := h.service.FindDuplicatePersons(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clusters, nil, map[string]interface{}{"count": len(clusters)})
}

// Resolve godoc
// @Summary Merge duplicate program profiles into one
// @Tags Duplicates
// @Accept json
// @Produce json
// @Param payload body dto.ResolveDuplicatesRequest true "Merge request"
// @Success 200 {object} response.Envelope
// @Router /duplicates/resolve [post]
func (h *DuplicateHandler) Resolve(c *gin.Context) {
	var req dto.ResolveDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid merge payload"))
		return
	}
	result, err := h.service.ResolveDuplicates(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
