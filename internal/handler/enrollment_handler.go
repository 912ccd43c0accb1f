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

type enrollmentService interface {
	BulkEnroll(ctx context.Context, req dto.BulkEnrollRequest) (models.BulkEnrollResult, error)
	RemoveFromClass(ctx context.Context, profileID string) error
	Placement(ctx context.Context, profileID string) (*models.ClassEnrollment, error)
}

// EnrollmentHandler manages class placements.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler builds a new handler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// BulkEnroll godoc
// @Summary Place profiles into a class, moving them out of their current class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.BulkEnrollRequest true "Profiles to place"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/enrollments/bulk [post]
func (h *EnrollmentHandler) BulkEnroll(c *gin.Context) {
	var req dto.BulkEnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	req.ClassID = c.Param("id")
	result, err := h.service.BulkEnroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Placement godoc
// @Summary Current or most recent class placement of a profile
// @Tags Enrollments
// @Produce json
// @Param profileId path string true "Program profile ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /class-enrollments/{profileId} [get]
func (h *EnrollmentHandler) Placement(c *gin.Context) {
	placement, err := h.service.Placement(c.Request.Context(), c.Param("profileId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placement, nil)
}

// Remove godoc
// @Summary Remove a profile from its class
// @Tags Enrollments
// @Param profileId path string true "Program profile ID"
// @Success 204
// @Router /class-enrollments/{profileId} [delete]
func (h *EnrollmentHandler) Remove(c *gin.Context) {
	if err := h.service.RemoveFromClass(c.Request.Context(), c.Param("profileId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
