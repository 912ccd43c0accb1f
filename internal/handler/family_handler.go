package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	"github.com/noah-isme/school-roster-api/internal/service"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
	"github.com/noah-isme/school-roster-api/pkg/response"
)

type familyService interface {
	List(ctx context.Context, query dto.FamilyQuery) ([]models.Family, error)
	Export(ctx context.Context, query dto.FamilyExportQuery) (*service.FamilyExport, error)
}

// FamilyHandler serves the grouped family roster.
type FamilyHandler struct {
	service familyService
}

// NewFamilyHandler builds a new handler.
func NewFamilyHandler(service familyService) *FamilyHandler {
	return &FamilyHandler{service: service}
}

// List godoc
// @Summary List registrations grouped into families
// @Tags Families
// @Produce json
// @Param program query string false "WEEKEND_SCHOOL or K12_PROGRAM"
// @Param shift query string false "Shift filter"
// @Success 200 {object} response.Envelope
// @Router /families [get]
func (h *FamilyHandler) List(c *gin.Context) {
	var query dto.FamilyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid family query"))
		return
	}
	families, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	children := 0
	for _, family := range families {
		children += len(family.Children)
	}
	response.JSON(c, http.StatusOK, families, nil, map[string]interface{}{
		"families": len(families),
		"children": children,
	})
}

// Export godoc
// @Summary Download the family roster
// @Tags Families
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param program query string false "WEEKEND_SCHOOL or K12_PROGRAM"
// @Param shift query string false "Shift filter"
// @Param format query string false "csv (default), pdf or xlsx"
// @Success 200 {file} file
// @Router /families/export [get]
func (h *FamilyHandler) Export(c *gin.Context) {
	var query dto.FamilyExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}
