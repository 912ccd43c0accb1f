package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-roster-api/internal/dto"
	"github.com/noah-isme/school-roster-api/internal/models"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

type personServiceMock struct {
	person        *models.Person
	lookupErr     error
	lastEmail     *string
	lastPhone     *string
	lastLink      dto.LinkGuardianRequest
	deactivateErr error
	lastReason    string
	siblingsFor   string
}

func (m *personServiceMock) Get(ctx context.Context, id string) (*models.Person, error) {
	if m.person == nil || m.person.ID != id {
		return nil, appErrors.ErrNotFound
	}
	return m.person, nil
}

func (m *personServiceMock) FindPersonByContact(ctx context.Context, email, phone *string) (*models.Person, error) {
	m.lastEmail, m.lastPhone = email, phone
	return m.person, m.lookupErr
}

func (m *personServiceMock) Guardians(ctx context.Context, personID string) ([]models.GuardianRelationship, error) {
	return []models.GuardianRelationship{{ID: "rel-1"}}, nil
}

func (m *personServiceMock) Dependents(ctx context.Context, personID string) ([]models.GuardianRelationship, error) {
	return nil, nil
}

func (m *personServiceMock) Siblings(ctx context.Context, personID string) ([]models.SiblingRelationship, error) {
	m.siblingsFor = personID
	return nil, nil
}

func (m *personServiceMock) LinkGuardian(ctx context.Context, req dto.LinkGuardianRequest) (*models.GuardianRelationship, error) {
	m.lastLink = req
	return &models.GuardianRelationship{ID: "rel-2"}, nil
}

func (m *personServiceMock) DeactivateGuardian(ctx context.Context, id string, req dto.DeactivateGuardianRequest) error {
	m.lastReason = req.Reason
	return m.deactivateErr
}

func (m *personServiceMock) LinkSiblings(ctx context.Context, req dto.LinkSiblingsRequest) (*models.SiblingRelationship, error) {
	return &models.SiblingRelationship{ID: "sib-1"}, nil
}

func TestPersonHandlerLookup(t *testing.T) {
	mockSvc := &personServiceMock{person: &models.Person{ID: "p-1", FirstName: "Aisha"}}
	handler := NewPersonHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/persons/lookup?phone=%2B1%20(555)%20123-4567", "", nil)
	handler.Lookup(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastPhone)
	assert.Equal(t, "+1 (555) 123-4567", *mockSvc.lastPhone)
	assert.Nil(t, mockSvc.lastEmail)
}

func TestPersonHandlerLookupMisses(t *testing.T) {
	handler := NewPersonHandler(&personServiceMock{})

	c, w := newTestContext(http.MethodGet, "/persons/lookup", "", nil)
	handler.Lookup(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodGet, "/persons/lookup?email=nobody@example.com", "", nil)
	handler.Lookup(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPersonHandlerLinkGuardianUsesPathDependent(t *testing.T) {
	mockSvc := &personServiceMock{}
	handler := NewPersonHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/persons/child-1/guardians", `{"guardianId":"parent-1","role":"PARENT","isPrimaryPayer":true}`, nil)
	c.Params = gin.Params{{Key: "id", Value: "child-1"}}
	handler.LinkGuardian(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "child-1", mockSvc.lastLink.DependentID)
	assert.Equal(t, "parent-1", mockSvc.lastLink.GuardianID)
	assert.True(t, mockSvc.lastLink.IsPrimaryPayer)
}

func TestPersonHandlerDeactivateGuardian(t *testing.T) {
	mockSvc := &personServiceMock{}
	handler := NewPersonHandler(mockSvc)

	c, w := newTestContext(http.MethodDelete, "/guardians/rel-1", `{"reason":"custody change"}`, nil)
	c.Params = gin.Params{{Key: "id", Value: "rel-1"}}
	handler.DeactivateGuardian(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "custody change", mockSvc.lastReason)

	mockSvc.deactivateErr = appErrors.Clone(appErrors.ErrNotFound, "guardian relationship not found")
	c, w = newTestContext(http.MethodDelete, "/guardians/rel-9", `{"reason":"x"}`, nil)
	handler.DeactivateGuardian(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPersonHandlerSiblings(t *testing.T) {
	mockSvc := &personServiceMock{}
	handler := NewPersonHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/persons/p-1/siblings", "", nil)
	c.Params = gin.Params{{Key: "id", Value: "p-1"}}
	handler.Siblings(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p-1", mockSvc.siblingsFor)
}

func TestPersonHandlerGet(t *testing.T) {
	handler := NewPersonHandler(&personServiceMock{person: &models.Person{ID: "p-1", FirstName: "Amina"}})

	c, w := newTestContext(http.MethodGet, "/persons/p-1", "", nil)
	c.Params = gin.Params{{Key: "id", Value: "p-1"}}
	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "p-1", data["id"])

	c, w = newTestContext(http.MethodGet, "/persons/p-9", "", nil)
	c.Params = gin.Params{{Key: "id", Value: "p-9"}}
	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
