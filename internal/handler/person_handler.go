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

type personService interface {
	Get(ctx context.Context, id string) (*models.Person, error)
	FindPersonByContact(ctx context.Context, email, phone *string) (*models.Person, error)
	Guardians(ctx context.Context, personID string) ([]models.GuardianRelationship, error)
	Dependents(ctx context.Context, personID string) ([]models.GuardianRelationship, error)
	Siblings(ctx context.Context, personID string) ([]models.SiblingRelationship, error)
	LinkGuardian(ctx context.Context, req dto.LinkGuardianRequest) (*models.GuardianRelationship, error)
	DeactivateGuardian(ctx context.Context, id string, req dto.DeactivateGuardianRequest) error
	LinkSiblings(ctx context.Context, req dto.LinkSiblingsRequest) (*models.SiblingRelationship, error)
}

// PersonHandler exposes identity and relationship endpoints.
type PersonHandler struct {
	service personService
}

// NewPersonHandler builds a new handler.
func NewPersonHandler(service personService) *PersonHandler {
	return &PersonHandler{service: service}
}

// Lookup godoc
// @Summary Find a person by email or phone
// @Tags Persons
// @Produce json
// @Param email query string false "Email address"
// @Param phone query string false "Phone number in any format"
// @Success 200 {object} response.Envelope
// @Router /persons/lookup [get]
func (h *PersonHandler) Lookup(c *gin.Context) {
	var query dto.PersonLookupQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid lookup query"))
		return
	}
	if query.Email == nil && query.Phone == nil {
		response.Error(c, appErrors.FieldError("email", "email or phone is required"))
		return
	}
	person, err := h.service.FindPersonByContact(c.Request.Context(), query.Email, query.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	if person == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no person matches the contact"))
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

// Guardians godoc
// @Summary List active guardians of a person
// @Tags Persons
// @Produce json
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Router /persons/{id}/guardians [get]
func (h *PersonHandler) Guardians(c *gin.Context) {
	items, err := h.service.Guardians(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Dependents godoc
// @Summary List active dependents of a person
// @Tags Persons
// @Produce json
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Router /persons/{id}/dependents [get]
func (h *PersonHandler) Dependents(c *gin.Context) {
	items, err := h.service.Dependents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get a person with active contact points
// @Tags Persons
// @Produce json
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /persons/{id} [get]
func (h *PersonHandler) Get(c *gin.Context) {
	person, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, person, nil)
}

// Siblings godoc
// @Summary List active siblings of a person
// @Tags Persons
// @Produce json
// @Param id path string true "Person ID"
// @Success 200 {object} response.Envelope
// @Router /persons/{id}/siblings [get]
func (h *PersonHandler) Siblings(c *gin.Context) {
	items, err := h.service.Siblings(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// LinkGuardian godoc
// @Summary Link a guardian to a dependent
// @Tags Persons
// @Accept json
// @Produce json
// @Param id path string true "Dependent person ID"
// @Param payload body dto.LinkGuardianRequest true "Guardian link"
// @Success 201 {object} response.Envelope
// @Router /persons/{id}/guardians [post]
func (h *PersonHandler) LinkGuardian(c *gin.Context) {
	var req dto.LinkGuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid guardian payload"))
		return
	}
	req.DependentID = c.Param("id")
	rel, err := h.service.LinkGuardian(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rel)
}

// DeactivateGuardian godoc
// @Summary End a guardian relationship
// @Tags Persons
// @Accept json
// @Param id path string true "Relationship ID"
// @Param payload body dto.DeactivateGuardianRequest true "Reason"
// @Success 204
// @Router /guardians/{id} [delete]
func (h *PersonHandler) DeactivateGuardian(c *gin.Context) {
	var req dto.DeactivateGuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid deactivation payload"))
		return
	}
	if err := h.service.DeactivateGuardian(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// LinkSiblings godoc
// @Summary Record two persons as siblings
// @Tags Persons
// @Accept json
// @Produce json
// @Param payload body dto.LinkSiblingsRequest true "Sibling pair"
// @Success 201 {object} response.Envelope
// @Router /siblings [post]
func (h *PersonHandler) LinkSiblings(c *gin.Context) {
	var req dto.LinkSiblingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sibling payload"))
		return
	}
	rel, err := h.service.LinkSiblings(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rel)
}
